package services

import (
	"appero/internal/providers"
	"appero/internal/structures"
	"time"

	"github.com/roylee0704/gron"
)

const DefaultRetryInterval = 3 * time.Minute

type SchedulerInterface interface {
	Init()
	Stop()
}

type DrainTrigger interface {
	TriggerDrain()
}

// Scheduler requests a drain right away and then on every retry interval.
type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	trigger DrainTrigger
	cron    *gron.Cron
}

func (s *Scheduler) Init() {
	interval := s.config.Sync.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), func() {
		s.logger.Debugf(providers.TypeSync, "Retry timer fired")
		s.trigger.TriggerDrain()
	})
	s.cron.Start()

	s.logger.Infof(providers.TypeSync, "Drain scheduler started, retry every %s", interval)
	s.trigger.TriggerDrain()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func NewScheduler(config *structures.Config, logger providers.Logger, trigger DrainTrigger) SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		trigger: trigger,
	}
}

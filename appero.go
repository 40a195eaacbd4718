// Package appero measures user sentiment and relays it to the Appero
// collection endpoint. Experiences and feedback are queued durably while the
// backend cannot be reached and delivered later, oldest first.
package appero

import (
	"appero/internal/connectivity"
	"appero/internal/models"
	"appero/internal/providers"
	"appero/internal/services"
	"appero/internal/storage"
	"appero/internal/structures"
	"appero/internal/transport"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const DefaultBaseURL = "https://app.appero.co.uk/api/v1"

type (
	ExperienceRating  = models.ExperienceRating
	FlowType          = models.FlowType
	FeedbackUIStrings = models.FeedbackUIStrings
	Frustration       = models.Frustration
	DrainResult       = services.DrainResult
)

const (
	StrongNegative = models.StrongNegative
	MildNegative   = models.MildNegative
	Neutral        = models.Neutral
	MildPositive   = models.MildPositive
	StrongPositive = models.StrongPositive

	FlowPositive = models.FlowPositive
	FlowNeutral  = models.FlowNeutral
	FlowNegative = models.FlowNegative

	MaxFeedbackLength = models.MaxFeedbackLength

	DefaultRatingThreshold = models.DefaultRatingThreshold
)

// ErrCorruptState is passed to Options.OnStateError when the stored state
// could not be read and the instance started from defaults.
var ErrCorruptState = storage.ErrCorruptState

type Options struct {
	BaseURL string
	// StatePath is the state document location. Defaults to
	// <user config dir>/appero/state.json.
	StatePath string
	Compress  bool

	Timeout       time.Duration
	RetryInterval time.Duration

	// ProbeAddr is dialed every ProbeInterval to detect reachability. Leave it
	// empty to report reachability through SetReachable instead.
	ProbeAddr     string
	ProbeInterval time.Duration

	Source       string
	BuildVersion string

	LogWriter io.Writer
	LogLevel  string

	// OnStateError receives the error when New could not restore the stored
	// state. The damaged file is kept beside the original with a .corrupt
	// suffix.
	OnStateError func(error)

	sender transport.SenderInterface
}

// Appero is one SDK instance. Create it with New, call Start once the API key
// is known and Close on teardown.
type Appero struct {
	engine     *services.SyncEngine
	monitor    *connectivity.Monitor
	scheduler  services.SchedulerInterface
	compressor storage.CompressorInterface
	logger     providers.Logger

	startOnce sync.Once
	closeOnce sync.Once
}

func (o Options) config() (*structures.Config, error) {
	conf := &structures.Config{
		AppName: "Appero",
		Api: structures.ApiConfig{
			BaseURL:      o.BaseURL,
			Timeout:      o.Timeout,
			Source:       o.Source,
			BuildVersion: o.BuildVersion,
		},
		Persistence: structures.Persistence{FilePath: o.StatePath, Compress: o.Compress},
		Sync:        structures.SyncConfig{RetryInterval: o.RetryInterval},
		Connectivity: structures.ConnectivityConfig{
			ProbeAddr:     o.ProbeAddr,
			ProbeInterval: o.ProbeInterval,
			ProbeTimeout:  3 * time.Second,
		},
	}
	if conf.Api.BaseURL == "" {
		conf.Api.BaseURL = DefaultBaseURL
	}
	if conf.Api.Timeout <= 0 {
		conf.Api.Timeout = transport.DefaultTimeout
	}
	if conf.Connectivity.ProbeAddr != "" && conf.Connectivity.ProbeInterval <= 0 {
		conf.Connectivity.ProbeInterval = 30 * time.Second
	}
	if conf.Persistence.FilePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		conf.Persistence.FilePath = filepath.Join(dir, "appero", "state.json")
	}
	return conf, nil
}

// New builds an instance and restores any persisted state. A damaged state
// file is set aside and the instance starts from defaults.
func New(opts Options) (*Appero, error) {
	conf, err := opts.config()
	if err != nil {
		return nil, err
	}

	w := opts.LogWriter
	if w == nil {
		w = io.Discard
	}
	logger := providers.NewWriterLogProvider(w, opts.LogLevel)
	metrics := providers.NewNoopMetrics()

	compressor, err := storage.NewZstdCompressor()
	if err != nil {
		return nil, err
	}
	store := storage.NewStateStore(conf, compressor, logger, metrics)

	sender := opts.sender
	if sender == nil {
		sender = transport.NewClient(conf, logger, metrics)
	}
	monitor := connectivity.NewMonitorFromConfig(conf, logger)
	engine := services.NewSyncEngine(conf, store, sender, monitor, logger, metrics)
	if err := engine.Restore(); err != nil && opts.OnStateError != nil {
		opts.OnStateError(err)
	}

	return &Appero{
		engine:     engine,
		monitor:    monitor,
		scheduler:  services.NewScheduler(conf, logger, engine),
		compressor: compressor,
		logger:     logger,
	}, nil
}

// Start configures credentials and launches background delivery. An empty
// userID keeps the stored identity or generates a new one.
func (a *Appero) Start(ctx context.Context, apiKey, userID string) {
	a.engine.Configure(apiKey)
	if userID != "" {
		a.engine.SetUserID(userID)
	} else {
		a.engine.GenerateOrRestoreUserID()
	}

	a.startOnce.Do(func() {
		a.monitor.Start(ctx)
		a.engine.Start(ctx)
		a.scheduler.Init()
	})
}

// Log records an experience and adds its rating to the user's score. It never
// fails: undeliverable experiences are queued and invalid ratings are dropped.
// When online the experience is sent before Log returns, which can take up to
// Options.Timeout, so call it off the UI goroutine.
func (a *Appero) Log(ctx context.Context, rating ExperienceRating, detail string) {
	a.engine.LogExperience(ctx, rating, detail)
}

// PostFeedback returns false only when the rating is outside 1..5 or the text
// exceeds MaxFeedbackLength characters. Like Log it sends before returning.
func (a *Appero) PostFeedback(ctx context.Context, rating int, feedback string) bool {
	return a.engine.SubmitFeedback(ctx, rating, feedback)
}

func (a *Appero) ShouldShowFeedbackPrompt() bool {
	return a.engine.ShouldShowFeedbackPrompt()
}

// PromptChanges streams the prompt flag whenever it changes. Call the
// returned function to stop receiving.
func (a *Appero) PromptChanges() (<-chan bool, func()) {
	return a.engine.Subscribe()
}

func (a *Appero) FeedbackUIStrings() FeedbackUIStrings {
	return a.engine.FeedbackUIStrings()
}

func (a *Appero) FlowType() FlowType {
	return a.engine.FlowType()
}

func (a *Appero) DismissPrompt() {
	a.engine.DismissPrompt()
}

func (a *Appero) SetForceOfflineMode(enabled bool) {
	a.monitor.SetForceOffline(enabled)
}

func (a *Appero) ForceOfflineMode() bool {
	return a.monitor.ForceOffline()
}

// SetReachable feeds platform reachability into the monitor.
func (a *Appero) SetReachable(reachable bool) {
	a.monitor.SetReachable(reachable)
}

func (a *Appero) UserID() string {
	return a.engine.UserID()
}

func (a *Appero) SetUserID(id string) {
	a.engine.SetUserID(id)
}

func (a *Appero) GenerateOrRestoreUserID() string {
	return a.engine.GenerateOrRestoreUserID()
}

func (a *Appero) QueueSizes() (experiences, feedback int) {
	return a.engine.QueueSizes()
}

// Drain delivers queued items now instead of waiting for the retry timer.
func (a *Appero) Drain(ctx context.Context) DrainResult {
	return a.engine.DrainQueues(ctx)
}

// Reset clears identity, queues, prompt state and frustrations and deletes
// the state file.
func (a *Appero) Reset() error {
	return a.engine.ResetAll()
}

func (a *Appero) RegisterFrustration(identifier string, threshold int, userPrompt string) {
	a.engine.RegisterFrustration(identifier, threshold, userPrompt)
}

func (a *Appero) LogFrustration(identifier string) bool {
	return a.engine.LogFrustration(identifier)
}

func (a *Appero) Frustration(identifier string) (Frustration, bool) {
	return a.engine.Frustration(identifier)
}

func (a *Appero) IsThresholdCrossed(identifier string) bool {
	return a.engine.IsThresholdCrossed(identifier)
}

func (a *Appero) MarkFrustrationPrompted(identifier string) {
	a.engine.MarkFrustrationPrompted(identifier)
}

func (a *Appero) IsFrustrationPrompted(identifier string) bool {
	return a.engine.IsFrustrationPrompted(identifier)
}

func (a *Appero) DeferFrustrationPrompt(identifier string) {
	a.engine.DeferFrustrationPrompt(identifier)
}

func (a *Appero) IsFrustrationDeferred(identifier string) bool {
	return a.engine.IsFrustrationDeferred(identifier)
}

func (a *Appero) FrustrationNeedsPrompt(identifier string) bool {
	return a.engine.FrustrationNeedsPrompt(identifier)
}

func (a *Appero) ResetAllFrustrations() {
	a.engine.ResetAllFrustrations()
}

// LogPoints adds a custom score, positive or negative.
func (a *Appero) LogPoints(points int) {
	a.engine.LogPoints(points)
}

func (a *Appero) ExperienceValue() int {
	return a.engine.ExperienceValue()
}

func (a *Appero) RatingThreshold() int {
	return a.engine.RatingThreshold()
}

// SetRatingThreshold sets the score that qualifies a user for the rating
// prompt. Values below 1 restore DefaultRatingThreshold.
func (a *Appero) SetRatingThreshold(threshold int) {
	a.engine.SetRatingThreshold(threshold)
}

func (a *Appero) RatingPrompted() bool {
	return a.engine.RatingPrompted()
}

func (a *Appero) MarkRatingPrompted() {
	a.engine.MarkRatingPrompted()
}

// ShouldPromptForRating is the local decision: the score reached the
// threshold and the user was not asked yet. It is independent of
// ShouldShowFeedbackPrompt, which follows the server.
func (a *Appero) ShouldPromptForRating() bool {
	return a.engine.ShouldPromptForRating()
}

func (a *Appero) ResetExperienceAndPrompt() {
	a.engine.ResetExperienceAndPrompt()
}

// Close stops the retry timer, the drain worker and the probe loop.
func (a *Appero) Close() {
	a.closeOnce.Do(func() {
		a.scheduler.Stop()
		a.engine.Stop()
		a.monitor.Stop()
		a.compressor.Close()
		a.logger.Close()
	})
}

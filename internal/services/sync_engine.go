package services

import (
	"appero/internal/connectivity"
	"appero/internal/models"
	"appero/internal/providers"
	"appero/internal/storage"
	"appero/internal/structures"
	"appero/internal/transport"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/atomic"
)

const (
	KindExperience = "experience"
	KindFeedback   = "feedback"
)

type SyncEngineInterface interface {
	LogExperience(ctx context.Context, rating models.ExperienceRating, detail string)
	SubmitFeedback(ctx context.Context, rating int, text string) bool
	DrainQueues(ctx context.Context) DrainResult
	TriggerDrain()
	DismissPrompt()
	ResetAll() error

	Configure(apiKey string)
	GenerateOrRestoreUserID() string
	SetUserID(id string)
	UserID() string

	Snapshot() models.ApperoState
	ShouldShowFeedbackPrompt() bool
	FeedbackUIStrings() models.FeedbackUIStrings
	FlowType() models.FlowType
	QueueSizes() (experiences, feedback int)
	Revision() uint64
	Subscribe() (<-chan bool, func())

	FrustrationTrackerInterface
	ExperiencePointsInterface
}

// DrainResult describes one pass over both queues.
type DrainResult struct {
	Skipped         bool `json:"skipped"`
	ExperiencesSent int  `json:"experiences_sent"`
	FeedbackSent    int  `json:"feedback_sent"`
	ExperiencesLeft int  `json:"experiences_left"`
	FeedbackLeft    int  `json:"feedback_left"`
}

// SyncEngine owns the persisted document. Every change goes through mutate,
// which holds mu, saves the document and bumps the revision. Network calls
// are made without holding mu.
type SyncEngine struct {
	config  *structures.Config
	store   storage.StateStoreInterface
	sender  transport.SenderInterface
	monitor connectivity.MonitorInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	now     func() time.Time

	mu         sync.Mutex
	doc        *models.PersistedState
	apiKey     string
	generation uint64

	revision *atomic.Uint64
	drainMu  sync.Mutex
	drainCh  chan struct{}

	subsMu sync.Mutex
	subs   map[int]chan bool
	nextID int

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewSyncEngine(
	config *structures.Config,
	store storage.StateStoreInterface,
	sender transport.SenderInterface,
	monitor connectivity.MonitorInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *SyncEngine {
	return &SyncEngine{
		config:   config,
		store:    store,
		sender:   sender,
		monitor:  monitor,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		doc:      models.NewPersistedState(),
		apiKey:   config.Api.Key,
		revision: atomic.NewUint64(0),
		drainCh:  make(chan struct{}, 1),
		subs:     make(map[int]chan bool),
	}
}

// SetClock replaces the time source. Intended for tests.
func (e *SyncEngine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Restore replaces the in-memory document with the stored one. On a load
// error the engine keeps running on defaults and the error is returned for
// reporting.
func (e *SyncEngine) Restore() error {
	doc, err := e.store.Load()
	if err != nil {
		e.logger.Warnf(providers.TypeSync, "Restoring state failed, starting from defaults: %s", err)
	}

	e.mu.Lock()
	before := e.doc.State.FeedbackPromptShouldDisplay
	e.doc = doc
	e.generation++
	e.revision.Inc()
	e.reportQueuesLocked()
	if after := e.doc.State.FeedbackPromptShouldDisplay; before != after {
		e.notify(after)
	}
	exp, fb := len(doc.State.UnsentExperiences), len(doc.State.UnsentFeedback)
	e.mu.Unlock()

	e.logger.Infof(providers.TypeSync, "State restored: %d experiences and %d feedback queued", exp, fb)
	return err
}

// Start launches the drain worker and subscribes to reconnect events.
func (e *SyncEngine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		ctx, e.cancel = context.WithCancel(ctx)
		e.monitor.OnReconnect(e.TriggerDrain)

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-e.drainCh:
					e.DrainQueues(ctx)
				}
			}
		}()
	})
}

func (e *SyncEngine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// TriggerDrain asks the worker for a drain. Requests made while one is
// already pending collapse into it.
func (e *SyncEngine) TriggerDrain() {
	select {
	case e.drainCh <- struct{}{}:
	default:
	}
}

func (e *SyncEngine) mutate(fn func(doc *models.PersistedState)) {
	e.mu.Lock()
	before := e.doc.State.FeedbackPromptShouldDisplay
	fn(e.doc)
	after := e.doc.State.FeedbackPromptShouldDisplay
	e.revision.Inc()
	e.persistLocked()
	e.reportQueuesLocked()
	if before != after {
		e.notify(after)
	}
	e.mu.Unlock()
}

func (e *SyncEngine) persistLocked() {
	if err := e.store.Save(e.doc); err != nil {
		e.logger.Errorf(providers.TypeSync, "Failed to persist state: %s", err)
	}
}

func (e *SyncEngine) reportQueuesLocked() {
	e.metrics.SetQueueSize(KindExperience, len(e.doc.State.UnsentExperiences))
	e.metrics.SetQueueSize(KindFeedback, len(e.doc.State.UnsentFeedback))
}

type credentials struct {
	apiKey     string
	userID     string
	generation uint64
}

func (e *SyncEngine) credentials() credentials {
	e.mu.Lock()
	defer e.mu.Unlock()
	return credentials{apiKey: e.apiKey, userID: e.doc.UserID, generation: e.generation}
}

// identity returns the send credentials. Once an API key is configured an
// absent user id is generated on first use, so a reset never leaves the
// queues without an owner.
func (e *SyncEngine) identity() credentials {
	creds := e.credentials()
	if creds.apiKey != "" && creds.userID == "" {
		e.GenerateOrRestoreUserID()
		creds = e.credentials()
	}
	return creds
}

func (e *SyncEngine) sameGeneration(c credentials) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == c.generation
}

func (c credentials) complete() bool {
	return c.apiKey != "" && c.userID != ""
}

func (e *SyncEngine) LogExperience(ctx context.Context, rating models.ExperienceRating, detail string) {
	exp, err := models.NewExperience(e.clock(), rating, detail)
	if err != nil {
		e.logger.Warnf(providers.TypeSync, "Ignoring experience with rating %d: %s", rating, err)
		return
	}

	creds := e.identity()
	var resp *models.ExperienceResponse
	delivered := false
	if creds.complete() && e.monitor.IsConnected() {
		resp, delivered = e.sendExperience(ctx, creds, exp)
	}
	if delivered && !e.sameGeneration(creds) {
		e.metrics.IncDeliveries(KindExperience, providers.OutcomeSent)
		return
	}

	// The score, the queue and the response land in one save.
	e.mutate(func(doc *models.PersistedState) {
		activePoints(doc).Value += int(rating)
		if !delivered {
			doc.State.UnsentExperiences = append(doc.State.UnsentExperiences, exp)
		} else if e.generation == creds.generation {
			doc.State.ApplyResponse(resp)
		}
	})
	if delivered {
		e.metrics.IncDeliveries(KindExperience, providers.OutcomeSent)
		return
	}
	e.metrics.IncDeliveries(KindExperience, providers.OutcomeQueued)
	e.logger.Debugf(providers.TypeSync, "Experience queued (%s)", exp.Rating)
}

// SubmitFeedback reports false only for invalid input. Valid feedback is
// either delivered or queued.
func (e *SyncEngine) SubmitFeedback(ctx context.Context, rating int, text string) bool {
	fb, err := models.NewQueuedFeedback(e.clock(), models.FeedbackInput{Rating: rating, Feedback: text})
	if err != nil {
		e.logger.Debugf(providers.TypeSync, "Rejected feedback: %s", err)
		return false
	}

	creds := e.identity()
	if creds.complete() && e.monitor.IsConnected() && e.sendFeedback(ctx, creds, fb) {
		e.metrics.IncDeliveries(KindFeedback, providers.OutcomeSent)
		return true
	}

	e.mutate(func(doc *models.PersistedState) {
		doc.State.UnsentFeedback = append(doc.State.UnsentFeedback, fb)
	})
	e.metrics.IncDeliveries(KindFeedback, providers.OutcomeQueued)
	return true
}

// DrainQueues sends queued items oldest first and removes the delivered ones
// in a single mutation. Items that fail stay queued in their original order.
func (e *SyncEngine) DrainQueues(ctx context.Context) DrainResult {
	e.drainMu.Lock()
	defer e.drainMu.Unlock()

	creds := e.credentials()
	if exp, fb := e.QueueSizes(); creds.userID == "" && exp+fb > 0 {
		creds = e.identity()
	}
	if !creds.complete() || !e.monitor.IsConnected() {
		exp, fb := e.QueueSizes()
		return DrainResult{Skipped: true, ExperiencesLeft: exp, FeedbackLeft: fb}
	}

	e.mu.Lock()
	experiences := append([]models.Experience(nil), e.doc.State.UnsentExperiences...)
	feedback := append([]models.QueuedFeedback(nil), e.doc.State.UnsentFeedback...)
	e.mu.Unlock()

	var result DrainResult
	if len(experiences) > 0 {
		result.ExperiencesSent = e.drainExperiences(ctx, creds, experiences)
	}
	if len(feedback) > 0 {
		result.FeedbackSent = e.drainFeedback(ctx, creds, feedback)
	}

	result.ExperiencesLeft, result.FeedbackLeft = e.QueueSizes()
	if result.ExperiencesSent > 0 || result.FeedbackSent > 0 {
		e.logger.Infof(providers.TypeSync, "Drained %d experiences and %d feedback, %d and %d remain",
			result.ExperiencesSent, result.FeedbackSent, result.ExperiencesLeft, result.FeedbackLeft)
	}
	return result
}

func (e *SyncEngine) drainExperiences(ctx context.Context, creds credentials, queue []models.Experience) int {
	delivered := make([]models.Experience, 0, len(queue))
	responses := make([]*models.ExperienceResponse, 0, len(queue))
	for _, exp := range queue {
		if ctx.Err() != nil || !e.monitor.IsConnected() {
			break
		}
		resp, ok := e.sendExperience(ctx, creds, exp)
		if !ok {
			e.metrics.IncDeliveries(KindExperience, providers.OutcomeFailed)
			continue
		}
		e.metrics.IncDeliveries(KindExperience, providers.OutcomeSent)
		delivered = append(delivered, exp)
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(delivered) == 0 || !e.sameGeneration(creds) {
		return len(delivered)
	}

	e.mutate(func(doc *models.PersistedState) {
		if e.generation != creds.generation {
			return
		}
		doc.State.UnsentExperiences = models.RemoveExperiences(doc.State.UnsentExperiences, delivered)
		for _, resp := range responses {
			doc.State.ApplyResponse(resp)
		}
	})
	return len(delivered)
}

func (e *SyncEngine) drainFeedback(ctx context.Context, creds credentials, queue []models.QueuedFeedback) int {
	delivered := make([]models.QueuedFeedback, 0, len(queue))
	for _, fb := range queue {
		if ctx.Err() != nil || !e.monitor.IsConnected() {
			break
		}
		if !e.sendFeedback(ctx, creds, fb) {
			e.metrics.IncDeliveries(KindFeedback, providers.OutcomeFailed)
			continue
		}
		e.metrics.IncDeliveries(KindFeedback, providers.OutcomeSent)
		delivered = append(delivered, fb)
	}
	if len(delivered) == 0 || !e.sameGeneration(creds) {
		return len(delivered)
	}

	e.mutate(func(doc *models.PersistedState) {
		if e.generation == creds.generation {
			doc.State.UnsentFeedback = models.RemoveFeedback(doc.State.UnsentFeedback, delivered)
		}
	})
	return len(delivered)
}

// sendExperience reports whether the server accepted exp. The decoded
// response is nil when the body was empty or could not be parsed.
func (e *SyncEngine) sendExperience(ctx context.Context, creds credentials, exp models.Experience) (*models.ExperienceResponse, bool) {
	body, err := e.sender.Send(ctx, transport.EndpointExperiences, models.ExperienceRequest{
		UserID:       creds.userID,
		Value:        int(exp.Rating),
		Context:      exp.Context,
		SentAt:       exp.Timestamp,
		Source:       e.config.Api.Source,
		BuildVersion: e.config.Api.BuildVersion,
	}, http.MethodPost, creds.apiKey)
	if !transport.Delivered(err) {
		e.logger.Debugf(providers.TypeSync, "Experience not delivered: %s", err)
		return nil, false
	}
	if err != nil {
		return nil, true
	}

	var resp models.ExperienceResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		e.logger.Warnf(providers.TypeSync, "Could not decode experience response: %s", err)
		return nil, true
	}
	return &resp, true
}

func (e *SyncEngine) sendFeedback(ctx context.Context, creds credentials, fb models.QueuedFeedback) bool {
	_, err := e.sender.Send(ctx, transport.EndpointFeedback, models.FeedbackRequest{
		UserID:       creds.userID,
		Rating:       fb.Rating,
		Feedback:     fb.Feedback,
		SentAt:       fb.Timestamp,
		Source:       e.config.Api.Source,
		BuildVersion: e.config.Api.BuildVersion,
	}, http.MethodPost, creds.apiKey)
	if !transport.Delivered(err) {
		var srvErr *transport.ServerMessageError
		if errors.As(err, &srvErr) {
			e.logger.Warnf(providers.TypeSync, "Feedback rejected by server: %s", srvErr)
		} else {
			e.logger.Debugf(providers.TypeSync, "Feedback not delivered: %s", err)
		}
		return false
	}
	return true
}

// DismissPrompt is the only operation that clears the prompt latch.
func (e *SyncEngine) DismissPrompt() {
	now := e.clock().UTC()
	e.mutate(func(doc *models.PersistedState) {
		doc.State.FeedbackPromptShouldDisplay = false
		doc.State.LastPromptDate = &now
	})
}

// ResetAll drops identity, queues, prompt state, scores and frustrations and
// removes the backing file. The API key and the rating threshold are kept.
func (e *SyncEngine) ResetAll() error {
	e.mu.Lock()
	before := e.doc.State.FeedbackPromptShouldDisplay
	threshold := e.doc.RatingThreshold
	e.doc = models.NewPersistedState()
	e.doc.RatingThreshold = threshold
	e.generation++
	e.revision.Inc()
	err := e.store.Delete()
	e.reportQueuesLocked()
	if before {
		e.notify(false)
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Errorf(providers.TypeSync, "Failed to delete state file: %s", err)
		return err
	}
	e.logger.Infof(providers.TypeSync, "State reset")
	return nil
}

func (e *SyncEngine) Configure(apiKey string) {
	e.mu.Lock()
	e.apiKey = apiKey
	e.mu.Unlock()
}

// GenerateOrRestoreUserID returns the stored user id, creating and persisting
// a random one when none exists.
func (e *SyncEngine) GenerateOrRestoreUserID() string {
	if id := e.UserID(); id != "" {
		return id
	}

	var id string
	e.mutate(func(doc *models.PersistedState) {
		if doc.UserID != "" {
			id = doc.UserID
			return
		}
		uid, err := uuid.NewV4()
		if err != nil {
			e.logger.Errorf(providers.TypeSync, "Failed to generate user id: %s", err)
			return
		}
		doc.UserID = uid.String()
		id = doc.UserID
	})
	return id
}

// SetUserID switches the active identity. Moving to a different id starts a
// fresh session: queues and prompt state of the previous user are dropped.
// Frustration counters and scores stay namespaced per user; a score gathered
// before any id was set moves to the new id.
func (e *SyncEngine) SetUserID(id string) {
	if id == "" || id == e.UserID() {
		return
	}
	e.mutate(func(doc *models.PersistedState) {
		if doc.UserID == id {
			return
		}
		if doc.UserID != "" {
			e.logger.Infof(providers.TypeSync, "User changed, dropping %d experiences and %d feedback of the previous session",
				len(doc.State.UnsentExperiences), len(doc.State.UnsentFeedback))
			doc.State = models.NewApperoState()
			e.generation++
		} else if anon, ok := doc.Points[""]; ok {
			if _, taken := doc.Points[id]; !taken {
				doc.Points[id] = anon
			}
			delete(doc.Points, "")
		}
		doc.UserID = id
	})
}

func (e *SyncEngine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.UserID
}

func (e *SyncEngine) Snapshot() models.ApperoState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.State.Clone()
}

func (e *SyncEngine) ShouldShowFeedbackPrompt() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.State.FeedbackPromptShouldDisplay
}

func (e *SyncEngine) FeedbackUIStrings() models.FeedbackUIStrings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.State.FeedbackUIStrings
}

func (e *SyncEngine) FlowType() models.FlowType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.State.FlowType
}

func (e *SyncEngine) QueueSizes() (experiences, feedback int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.doc.State.UnsentExperiences), len(e.doc.State.UnsentFeedback)
}

// Revision increases on every state change.
func (e *SyncEngine) Revision() uint64 {
	return e.revision.Load()
}

// Subscribe returns a channel receiving the prompt flag whenever it changes.
// Only the latest value is kept for a slow reader. Notifications are sent
// while the state lock is held so they arrive in mutation order.
func (e *SyncEngine) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)
	e.subsMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.subsMu.Unlock()

	return ch, func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		if _, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
	}
}

func (e *SyncEngine) notify(value bool) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}

func (e *SyncEngine) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now()
}

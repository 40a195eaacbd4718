package services

import (
	"appero/internal/models"
	"appero/internal/providers"
)

type FrustrationTrackerInterface interface {
	RegisterFrustration(identifier string, threshold int, userPrompt string)
	LogFrustration(identifier string) bool
	Frustration(identifier string) (models.Frustration, bool)
	IsThresholdCrossed(identifier string) bool
	MarkFrustrationPrompted(identifier string)
	IsFrustrationPrompted(identifier string) bool
	DeferFrustrationPrompt(identifier string)
	IsFrustrationDeferred(identifier string) bool
	FrustrationNeedsPrompt(identifier string) bool
	ResetAllFrustrations()
}

// activeFrustrations returns the counters of the active user, creating the
// namespace when create is set. Callers hold the engine lock.
func activeFrustrations(doc *models.PersistedState, create bool) map[string]*models.Frustration {
	set, ok := doc.Frustrations[doc.UserID]
	if !ok && create {
		set = make(map[string]*models.Frustration)
		doc.Frustrations[doc.UserID] = set
	}
	return set
}

func (e *SyncEngine) lookupFrustration(identifier string) (*models.Frustration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := activeFrustrations(e.doc, false)[identifier]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// RegisterFrustration adds a counter. An identifier that already exists keeps
// its current state.
func (e *SyncEngine) RegisterFrustration(identifier string, threshold int, userPrompt string) {
	if identifier == "" || threshold < 1 {
		e.logger.Warnf(providers.TypeSync, "Ignoring frustration %q with threshold %d", identifier, threshold)
		return
	}
	if _, ok := e.lookupFrustration(identifier); ok {
		return
	}
	e.mutate(func(doc *models.PersistedState) {
		set := activeFrustrations(doc, true)
		if _, ok := set[identifier]; !ok {
			set[identifier] = models.NewFrustration(identifier, threshold, userPrompt)
		}
	})
}

// LogFrustration counts one event and reports whether the frustration now
// needs a prompt. Unknown identifiers are ignored.
func (e *SyncEngine) LogFrustration(identifier string) bool {
	if _, ok := e.lookupFrustration(identifier); !ok {
		e.logger.Warnf(providers.TypeSync, "Frustration %q is not registered", identifier)
		return false
	}
	var needsPrompt bool
	e.mutate(func(doc *models.PersistedState) {
		if f, ok := activeFrustrations(doc, false)[identifier]; ok {
			f.Events++
			needsPrompt = f.NeedsPrompt(e.now())
		}
	})
	return needsPrompt
}

func (e *SyncEngine) Frustration(identifier string) (models.Frustration, bool) {
	f, ok := e.lookupFrustration(identifier)
	if !ok {
		return models.Frustration{}, false
	}
	return *f, true
}

func (e *SyncEngine) IsThresholdCrossed(identifier string) bool {
	f, ok := e.lookupFrustration(identifier)
	return ok && f.ThresholdCrossed()
}

func (e *SyncEngine) MarkFrustrationPrompted(identifier string) {
	e.updateFrustration(identifier, func(f *models.Frustration) {
		f.Prompted = true
	})
}

func (e *SyncEngine) IsFrustrationPrompted(identifier string) bool {
	f, ok := e.lookupFrustration(identifier)
	return ok && f.Prompted
}

// DeferFrustrationPrompt silences the prompt for models.FrustrationDeferral.
func (e *SyncEngine) DeferFrustrationPrompt(identifier string) {
	e.updateFrustration(identifier, func(f *models.Frustration) {
		f.DeferFrom(e.now())
	})
}

func (e *SyncEngine) IsFrustrationDeferred(identifier string) bool {
	f, ok := e.lookupFrustration(identifier)
	return ok && f.Deferred(e.clock())
}

func (e *SyncEngine) FrustrationNeedsPrompt(identifier string) bool {
	f, ok := e.lookupFrustration(identifier)
	return ok && f.NeedsPrompt(e.clock())
}

// ResetAllFrustrations clears the counters of the active user only.
func (e *SyncEngine) ResetAllFrustrations() {
	e.mutate(func(doc *models.PersistedState) {
		delete(doc.Frustrations, doc.UserID)
	})
}

func (e *SyncEngine) updateFrustration(identifier string, fn func(f *models.Frustration)) {
	if _, ok := e.lookupFrustration(identifier); !ok {
		return
	}
	e.mutate(func(doc *models.PersistedState) {
		if f, ok := activeFrustrations(doc, false)[identifier]; ok {
			fn(f)
		}
	})
}

package services

import (
	"appero/internal/models"
	"appero/internal/providers"
)

// ExperiencePointsInterface is the local rating prompt decision. It runs
// next to the server driven feedback latch and never touches it.
type ExperiencePointsInterface interface {
	LogPoints(points int)
	ExperienceValue() int
	RatingThreshold() int
	SetRatingThreshold(threshold int)
	RatingPrompted() bool
	MarkRatingPrompted()
	ShouldPromptForRating() bool
	ResetExperienceAndPrompt()
}

func activePoints(doc *models.PersistedState) *models.ExperiencePoints {
	p, ok := doc.Points[doc.UserID]
	if !ok {
		p = &models.ExperiencePoints{}
		doc.Points[doc.UserID] = p
	}
	return p
}

// LogPoints adds a custom score, negative values included.
func (e *SyncEngine) LogPoints(points int) {
	if points == 0 {
		return
	}
	e.mutate(func(doc *models.PersistedState) {
		activePoints(doc).Value += points
	})
}

func (e *SyncEngine) ExperienceValue() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.doc.Points[e.doc.UserID]; ok {
		return p.Value
	}
	return 0
}

func (e *SyncEngine) RatingThreshold() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.EffectiveThreshold(e.doc.RatingThreshold)
}

// SetRatingThreshold applies to every user. A value below 1 restores the
// default.
func (e *SyncEngine) SetRatingThreshold(threshold int) {
	if threshold < 1 {
		e.logger.Debugf(providers.TypeSync, "Rating threshold %d restores the default of %d", threshold, models.DefaultRatingThreshold)
		threshold = 0
	}
	e.mutate(func(doc *models.PersistedState) {
		doc.RatingThreshold = threshold
	})
}

func (e *SyncEngine) RatingPrompted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.doc.Points[e.doc.UserID]
	return ok && p.Prompted
}

// MarkRatingPrompted stops later threshold crossings from asking the current
// user again.
func (e *SyncEngine) MarkRatingPrompted() {
	e.mutate(func(doc *models.PersistedState) {
		activePoints(doc).Prompted = true
	})
}

func (e *SyncEngine) ShouldPromptForRating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Points[e.doc.UserID].ShouldPrompt(models.EffectiveThreshold(e.doc.RatingThreshold))
}

// ResetExperienceAndPrompt zeroes the current user's score and prompted flag.
func (e *SyncEngine) ResetExperienceAndPrompt() {
	e.mutate(func(doc *models.PersistedState) {
		delete(doc.Points, doc.UserID)
	})
}

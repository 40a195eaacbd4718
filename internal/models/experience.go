package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrFeedbackTooLong = errors.New("feedback exceeds maximum length")
)

// ExperienceRating is a point on the five step Likert scale.
type ExperienceRating int

const (
	StrongNegative ExperienceRating = iota + 1
	MildNegative
	Neutral
	MildPositive
	StrongPositive
)

func (r ExperienceRating) Valid() bool {
	return r >= StrongNegative && r <= StrongPositive
}

func (r ExperienceRating) String() string {
	switch r {
	case StrongNegative:
		return "strong_negative"
	case MildNegative:
		return "mild_negative"
	case Neutral:
		return "neutral"
	case MildPositive:
		return "mild_positive"
	case StrongPositive:
		return "strong_positive"
	default:
		return "invalid"
	}
}

// Experience is a single sentiment signal. It is never mutated after creation.
type Experience struct {
	Timestamp time.Time        `json:"timestamp"`
	Rating    ExperienceRating `json:"value"`
	Context   string           `json:"context,omitempty"`
}

func NewExperience(ts time.Time, rating ExperienceRating, context string) (Experience, error) {
	if !rating.Valid() {
		return Experience{}, ErrInvalidRating
	}
	return Experience{Timestamp: ts.UTC(), Rating: rating, Context: context}, nil
}

// Equal reports structural equality; timestamps compare by instant.
func (e Experience) Equal(o Experience) bool {
	return e.Timestamp.Equal(o.Timestamp) && e.Rating == o.Rating && e.Context == o.Context
}

// RemoveExperiences drops the first match of every delivered item and keeps
// the relative order of whatever remains.
func RemoveExperiences(queue, delivered []Experience) []Experience {
	if len(delivered) == 0 {
		return queue
	}
	pending := make([]Experience, len(delivered))
	copy(pending, delivered)

	out := make([]Experience, 0, len(queue))
	for _, item := range queue {
		matched := -1
		for i, d := range pending {
			if item.Equal(d) {
				matched = i
				break
			}
		}
		if matched >= 0 {
			pending = append(pending[:matched], pending[matched+1:]...)
			continue
		}
		out = append(out, item)
	}
	return out
}

package models

import (
	"fmt"
	"time"

	"github.com/gookit/validate"
)

const MaxFeedbackLength = 240

// FeedbackInput is what a host hands in before anything is queued.
type FeedbackInput struct {
	Rating   int    `json:"rating" validate:"required|min:1|max:5"`
	Feedback string `json:"feedback" validate:"maxLen:240"`
}

func (in FeedbackInput) Validate() error {
	v := validate.Struct(&in)
	if v.Validate() {
		return nil
	}
	if !ExperienceRating(in.Rating).Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, in.Rating)
	}
	return fmt.Errorf("%w: %s", ErrFeedbackTooLong, v.Errors.One())
}

// QueuedFeedback is an explicit submission waiting for delivery.
type QueuedFeedback struct {
	Timestamp time.Time `json:"timestamp"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
}

func NewQueuedFeedback(ts time.Time, in FeedbackInput) (QueuedFeedback, error) {
	if err := in.Validate(); err != nil {
		return QueuedFeedback{}, err
	}
	return QueuedFeedback{Timestamp: ts.UTC(), Rating: in.Rating, Feedback: in.Feedback}, nil
}

func (f QueuedFeedback) Equal(o QueuedFeedback) bool {
	return f.Timestamp.Equal(o.Timestamp) && f.Rating == o.Rating && f.Feedback == o.Feedback
}

func RemoveFeedback(queue, delivered []QueuedFeedback) []QueuedFeedback {
	if len(delivered) == 0 {
		return queue
	}
	pending := make([]QueuedFeedback, len(delivered))
	copy(pending, delivered)

	out := make([]QueuedFeedback, 0, len(queue))
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

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exp(sec int, r ExperienceRating, ctx string) Experience {
	return Experience{Timestamp: time.Unix(int64(sec), 0).UTC(), Rating: r, Context: ctx}
}

func TestExperienceRating_Valid(t *testing.T) {
	for r := StrongNegative; r <= StrongPositive; r++ {
		assert.True(t, r.Valid(), r.String())
	}
	assert.False(t, ExperienceRating(0).Valid())
	assert.False(t, ExperienceRating(6).Valid())
	assert.Equal(t, "invalid", ExperienceRating(-1).String())
}

func TestNewExperience_RejectsInvalidRating(t *testing.T) {
	_, err := NewExperience(time.Now(), 9, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestExperience_EqualComparesInstant(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Experience{Timestamp: ts, Rating: Neutral, Context: "checkout"}
	b := Experience{Timestamp: ts.In(time.FixedZone("X", 3600)), Rating: Neutral, Context: "checkout"}
	assert.True(t, a.Equal(b))

	b.Context = "other"
	assert.False(t, a.Equal(b))
}

func TestRemoveExperiences_KeepsOrderOfFailures(t *testing.T) {
	a, b, c := exp(1, StrongPositive, "a"), exp(2, Neutral, "b"), exp(3, MildNegative, "c")

	out := RemoveExperiences([]Experience{a, b, c}, []Experience{b})
	assert.Equal(t, []Experience{a, c}, out)

	out = RemoveExperiences([]Experience{a, b, c}, []Experience{a})
	assert.Equal(t, []Experience{b, c}, out)
}

func TestRemoveExperiences_DuplicatesRemovedOncePerDelivery(t *testing.T) {
	a := exp(1, StrongPositive, "")
	out := RemoveExperiences([]Experience{a, a, a}, []Experience{a})
	assert.Len(t, out, 2)
}

func TestRemoveExperiences_NothingDelivered(t *testing.T) {
	q := []Experience{exp(1, Neutral, "")}
	assert.Equal(t, q, RemoveExperiences(q, nil))
}

func TestFeedbackInput_Validate(t *testing.T) {
	assert.NoError(t, FeedbackInput{Rating: 1}.Validate())
	assert.NoError(t, FeedbackInput{Rating: 5, Feedback: strings.Repeat("a", MaxFeedbackLength)}.Validate())

	for _, r := range []int{-3, 0, 6, 100} {
		err := FeedbackInput{Rating: r, Feedback: "x"}.Validate()
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", r)
	}

	err := FeedbackInput{Rating: 5, Feedback: strings.Repeat("a", MaxFeedbackLength+1)}.Validate()
	assert.ErrorIs(t, err, ErrFeedbackTooLong)
}

func TestRemoveFeedback_KeepsOrder(t *testing.T) {
	ts := time.Unix(10, 0).UTC()
	a := QueuedFeedback{Timestamp: ts, Rating: 5, Feedback: "great"}
	b := QueuedFeedback{Timestamp: ts.Add(time.Second), Rating: 2}
	c := QueuedFeedback{Timestamp: ts.Add(2 * time.Second), Rating: 4, Feedback: "ok"}

	out := RemoveFeedback([]QueuedFeedback{a, b, c}, []QueuedFeedback{a, c})
	require.Len(t, out, 1)
	assert.True(t, out[0].Equal(b))
}

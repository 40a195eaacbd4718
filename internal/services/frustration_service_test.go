package services

import (
	"appero/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrustration_RegisterIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.RegisterFrustration("crash", 2, "Sorry about that")
	f.engine.LogFrustration("crash")
	f.engine.RegisterFrustration("crash", 10, "other")

	fr, ok := f.engine.Frustration("crash")
	require.True(t, ok)
	assert.Equal(t, 2, fr.Threshold)
	assert.Equal(t, 1, fr.Events)
	assert.Equal(t, "Sorry about that", fr.UserPrompt)
}

func TestFrustration_RegisterRejectsInvalid(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.RegisterFrustration("", 2, "")
	f.engine.RegisterFrustration("zero", 0, "")

	_, ok := f.engine.Frustration("zero")
	assert.False(t, ok)
	assert.Equal(t, 2, f.logger.Count("warn"))
}

func TestFrustration_ThresholdAndPrompt(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.RegisterFrustration("payment", 3, "")

	assert.False(t, f.engine.LogFrustration("payment"))
	assert.False(t, f.engine.LogFrustration("payment"))
	assert.False(t, f.engine.IsThresholdCrossed("payment"))

	assert.True(t, f.engine.LogFrustration("payment"))
	assert.True(t, f.engine.IsThresholdCrossed("payment"))
	assert.True(t, f.engine.FrustrationNeedsPrompt("payment"))

	f.engine.MarkFrustrationPrompted("payment")
	assert.True(t, f.engine.IsFrustrationPrompted("payment"))
	assert.False(t, f.engine.FrustrationNeedsPrompt("payment"))
	assert.False(t, f.engine.LogFrustration("payment"))
}

func TestFrustration_Deferral(t *testing.T) {
	f := newEngineFixture(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.engine.SetClock(func() time.Time { return now })

	f.engine.RegisterFrustration("search", 1, "")
	f.engine.LogFrustration("search")
	f.engine.DeferFrustrationPrompt("search")

	assert.True(t, f.engine.IsFrustrationDeferred("search"))
	assert.False(t, f.engine.FrustrationNeedsPrompt("search"))

	fr, _ := f.engine.Frustration("search")
	require.NotNil(t, fr.NextPromptDate)
	assert.Equal(t, now.Add(models.FrustrationDeferral), *fr.NextPromptDate)

	f.engine.SetClock(func() time.Time { return now.Add(models.FrustrationDeferral) })
	assert.False(t, f.engine.IsFrustrationDeferred("search"))
	assert.True(t, f.engine.FrustrationNeedsPrompt("search"))
}

func TestFrustration_UnknownIdentifier(t *testing.T) {
	f := newEngineFixture(t)
	saves := f.store.Saves

	assert.False(t, f.engine.LogFrustration("nope"))
	f.engine.MarkFrustrationPrompted("nope")
	f.engine.DeferFrustrationPrompt("nope")

	assert.False(t, f.engine.IsThresholdCrossed("nope"))
	assert.False(t, f.engine.IsFrustrationPrompted("nope"))
	assert.False(t, f.engine.IsFrustrationDeferred("nope"))
	assert.False(t, f.engine.FrustrationNeedsPrompt("nope"))
	assert.Equal(t, saves, f.store.Saves)
}

func TestFrustration_NamespacedPerUser(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.RegisterFrustration("crash", 1, "")
	f.engine.LogFrustration("crash")

	f.engine.SetUserID("user-2")
	assert.False(t, f.engine.IsThresholdCrossed("crash"))
	f.engine.RegisterFrustration("crash", 5, "")
	f.engine.ResetAllFrustrations()
	_, ok := f.engine.Frustration("crash")
	assert.False(t, ok)

	f.engine.SetUserID("user-1")
	assert.True(t, f.engine.IsThresholdCrossed("crash"))
}

func TestFrustration_Persisted(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.RegisterFrustration("crash", 1, "")
	f.engine.LogFrustration("crash")

	saved := f.store.Saved()
	require.Contains(t, saved.Frustrations, "user-1")
	assert.Equal(t, 1, saved.Frustrations["user-1"]["crash"].Events)
}

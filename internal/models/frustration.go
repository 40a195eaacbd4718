package models

import "time"

// FrustrationDeferral is how long a deferred frustration prompt stays quiet.
const FrustrationDeferral = 30 * 24 * time.Hour

// Frustration counts occurrences of a named local event against a threshold.
type Frustration struct {
	Identifier     string     `json:"identifier"`
	Threshold      int        `json:"threshold"`
	Events         int        `json:"events"`
	Prompted       bool       `json:"prompted"`
	UserPrompt     string     `json:"user_prompt,omitempty"`
	NextPromptDate *time.Time `json:"next_prompt_date,omitempty"`
}

func NewFrustration(identifier string, threshold int, userPrompt string) *Frustration {
	return &Frustration{
		Identifier: identifier,
		Threshold:  threshold,
		UserPrompt: userPrompt,
	}
}

func (f *Frustration) ThresholdCrossed() bool {
	return f.Events >= f.Threshold
}

func (f *Frustration) Deferred(now time.Time) bool {
	return f.NextPromptDate != nil && now.Before(*f.NextPromptDate)
}

func (f *Frustration) NeedsPrompt(now time.Time) bool {
	return f.ThresholdCrossed() && !f.Prompted && !f.Deferred(now)
}

func (f *Frustration) DeferFrom(now time.Time) {
	next := now.Add(FrustrationDeferral).UTC()
	f.NextPromptDate = &next
}

func (f *Frustration) Clone() *Frustration {
	if f == nil {
		return nil
	}
	out := *f
	if f.NextPromptDate != nil {
		d := *f.NextPromptDate
		out.NextPromptDate = &d
	}
	return &out
}

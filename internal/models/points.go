package models

// DefaultRatingThreshold is the score at which a user qualifies for the
// rating prompt when no threshold was set.
const DefaultRatingThreshold = 10

// ExperiencePoints is the local score of one user. Logged experiences add
// their rating value, custom points may be negative.
type ExperiencePoints struct {
	Value    int  `json:"value"`
	Prompted bool `json:"prompted"`
}

// ShouldPrompt reports whether the score reached threshold and the user was
// not asked yet.
func (p *ExperiencePoints) ShouldPrompt(threshold int) bool {
	return p != nil && !p.Prompted && p.Value >= threshold
}

// EffectiveThreshold maps an unset threshold to DefaultRatingThreshold.
func EffectiveThreshold(threshold int) int {
	if threshold <= 0 {
		return DefaultRatingThreshold
	}
	return threshold
}

package models

import "time"

const StateVersion = 1

// FeedbackUIStrings is server supplied copy for the feedback prompt.
type FeedbackUIStrings struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Prompt   string `json:"prompt"`
}

func (s FeedbackUIStrings) IsZero() bool {
	return s == FeedbackUIStrings{}
}

// ApperoState is the aggregate owned by the sync engine. FeedbackPromptShouldDisplay
// is a latch: responses may set it, only a prompt dismissal clears it.
type ApperoState struct {
	UnsentExperiences           []Experience      `json:"unsent_experiences"`
	UnsentFeedback              []QueuedFeedback  `json:"unsent_feedback"`
	FeedbackPromptShouldDisplay bool              `json:"feedback_prompt_should_display"`
	FeedbackUIStrings           FeedbackUIStrings `json:"feedback_ui_strings"`
	LastPromptDate              *time.Time        `json:"last_prompt_date,omitempty"`
	FlowType                    FlowType          `json:"flow_type"`
}

func NewApperoState() ApperoState {
	return ApperoState{
		UnsentExperiences: []Experience{},
		UnsentFeedback:    []QueuedFeedback{},
		FlowType:          FlowNeutral,
	}
}

func (s ApperoState) Clone() ApperoState {
	out := s
	out.UnsentExperiences = append(make([]Experience, 0, len(s.UnsentExperiences)), s.UnsentExperiences...)
	out.UnsentFeedback = append(make([]QueuedFeedback, 0, len(s.UnsentFeedback)), s.UnsentFeedback...)
	if s.LastPromptDate != nil {
		d := *s.LastPromptDate
		out.LastPromptDate = &d
	}
	return out
}

// ApplyResponse folds a delivery response into the aggregate. It reports
// whether the prompt flag changed.
func (s *ApperoState) ApplyResponse(resp *ExperienceResponse) bool {
	if resp == nil {
		return false
	}
	if resp.FeedbackUI != nil && !resp.FeedbackUI.IsZero() {
		s.FeedbackUIStrings = *resp.FeedbackUI
	}
	if !resp.ShouldShowFeedback {
		return false
	}
	s.FlowType = ParseWireFlowType(resp.FlowType)
	changed := !s.FeedbackPromptShouldDisplay
	s.FeedbackPromptShouldDisplay = true
	return changed
}

// PersistedState is the single document written to disk per installation.
// Frustrations and Points are keyed by user id.
type PersistedState struct {
	Version         int                                `json:"version"`
	UserID          string                             `json:"user_id,omitempty"`
	State           ApperoState                        `json:"state"`
	Frustrations    map[string]map[string]*Frustration `json:"frustrations"`
	Points          map[string]*ExperiencePoints       `json:"points"`
	RatingThreshold int                                `json:"rating_threshold,omitempty"`
}

func NewPersistedState() *PersistedState {
	return &PersistedState{
		Version:      StateVersion,
		State:        NewApperoState(),
		Frustrations: make(map[string]map[string]*Frustration),
		Points:       make(map[string]*ExperiencePoints),
	}
}

// Normalize fills in anything an older or partial document left out.
func (p *PersistedState) Normalize() {
	if p.Version == 0 {
		p.Version = StateVersion
	}
	if p.State.UnsentExperiences == nil {
		p.State.UnsentExperiences = []Experience{}
	}
	if p.State.UnsentFeedback == nil {
		p.State.UnsentFeedback = []QueuedFeedback{}
	}
	if p.State.FlowType == "" {
		p.State.FlowType = FlowNeutral
	}
	if p.Frustrations == nil {
		p.Frustrations = make(map[string]map[string]*Frustration)
	}
	if p.Points == nil {
		p.Points = make(map[string]*ExperiencePoints)
	}
}

func (p *PersistedState) Clone() *PersistedState {
	out := &PersistedState{
		Version:         p.Version,
		UserID:          p.UserID,
		State:           p.State.Clone(),
		Frustrations:    make(map[string]map[string]*Frustration, len(p.Frustrations)),
		Points:          make(map[string]*ExperiencePoints, len(p.Points)),
		RatingThreshold: p.RatingThreshold,
	}
	for user, pts := range p.Points {
		cp := *pts
		out.Points[user] = &cp
	}
	for user, set := range p.Frustrations {
		cp := make(map[string]*Frustration, len(set))
		for id, f := range set {
			cp[id] = f.Clone()
		}
		out.Frustrations[user] = cp
	}
	return out
}

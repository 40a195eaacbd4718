package models

import "time"

// ExperienceRequest is the body of POST /experiences.
type ExperienceRequest struct {
	UserID       string    `json:"user_id"`
	Value        int       `json:"value"`
	Context      string    `json:"context,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	Source       string    `json:"source,omitempty"`
	BuildVersion string    `json:"build_version,omitempty"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"`
	Feedback     string    `json:"feedback,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	Source       string    `json:"source,omitempty"`
	BuildVersion string    `json:"build_version,omitempty"`
}

// ExperienceResponse is returned on a 2xx from either endpoint.
type ExperienceResponse struct {
	ShouldShowFeedback bool               `json:"should_show_feedback"`
	FlowType           string             `json:"flow_type"`
	FeedbackUI         *FeedbackUIStrings `json:"feedback_ui,omitempty"`
}

type APIErrorDetails struct {
	UserID []string `json:"user_id,omitempty"`
	Value  []string `json:"value,omitempty"`
}

// APIErrorResponse is the structured body sent with 401 and 422.
type APIErrorResponse struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details APIErrorDetails `json:"details"`
}

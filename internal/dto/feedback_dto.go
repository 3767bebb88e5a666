package dto

import "time"

type SentimentRequest struct {
	Sentiment string `json:"sentiment" form:"sentiment"`
}

type SubmitFeedbackRequest struct {
	Sentiment string `json:"sentiment" form:"sentiment"`
	Text      string `json:"text" form:"text"`
}

type NoticeDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Tone    string `json:"tone"` // error, warning, info
}

// FeedbackViewDTO is everything the storefront needs to render the current
// step of the feedback form.
type FeedbackViewDTO struct {
	State          string     `json:"state"`
	Token          string     `json:"token,omitempty"`
	CustomerName   string     `json:"customer_name,omitempty"`
	Vehicle        string     `json:"vehicle,omitempty"`
	Greeting       string     `json:"greeting,omitempty"`
	Sentiment      string     `json:"sentiment,omitempty"`
	Prompt         string     `json:"prompt,omitempty"`
	Text           string     `json:"text,omitempty"`
	Confirmation   string     `json:"confirmation,omitempty"`
	RedirectURL    string     `json:"redirect_url,omitempty"`
	ManagerContact string     `json:"manager_contact,omitempty"`
	Notice         *NoticeDTO `json:"notice,omitempty"`
}

type FollowUpDTO struct {
	ID                string     `json:"id"`
	CustomerName      string     `json:"customer_name"`
	CustomerPhone     string     `json:"customer_phone"`
	Vehicle           string     `json:"vehicle"`
	Sentiment         string     `json:"sentiment"`
	Text              string     `json:"text"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	AlertTime         *time.Time `json:"alert_time,omitempty"`
	AlertDispatchedAt *time.Time `json:"alert_dispatched_at,omitempty"`
}

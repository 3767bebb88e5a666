package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusGoogleRedirected = "google_redirected"
	StatusNeedsFollowup    = "needs_followup"
)

// SoldVehicle is one completed sale eligible for feedback collection.
// Records are created by the sale-completion process; this service only
// applies the single terminal feedback update and alert bookkeeping.
type SoldVehicle struct {
	ID                  string     `gorm:"type:varchar(128);primaryKey" json:"id"`
	FeedbackToken       string     `gorm:"type:varchar(128);index" json:"feedback_token"`
	CustomerName        string     `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone       string     `gorm:"type:varchar(50)" json:"customer_phone"`
	Year                int        `json:"year"`
	Make                string     `gorm:"type:varchar(100)" json:"make"`
	Model               string     `gorm:"type:varchar(100)" json:"model"`
	FeedbackSubmitted   bool       `gorm:"not null;default:false" json:"feedback_submitted"`
	FeedbackSentiment   string     `gorm:"type:varchar(20)" json:"feedback_sentiment,omitempty"`
	FeedbackText        string     `gorm:"type:text" json:"feedback_text,omitempty"`
	FeedbackSubmittedAt *time.Time `json:"feedback_submitted_at,omitempty"`
	Status              string     `gorm:"type:varchar(50)" json:"status"` // "", google_redirected, needs_followup
	ManagerAlert        bool       `gorm:"not null;default:false" json:"manager_alert"`
	AlertTime           *time.Time `json:"alert_time,omitempty"`
	AlertDispatchedAt   *time.Time `json:"alert_dispatched_at,omitempty"`
	AlertAttempts       int        `gorm:"not null;default:0" json:"alert_attempts"`
	NextAlertAt         *time.Time `gorm:"index" json:"next_alert_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (v *SoldVehicle) TableName() string {
	return "sold_vehicles"
}

func (v *SoldVehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VehicleLabel renders "2021 Honda Civic", skipping missing parts.
func (v *SoldVehicle) VehicleLabel() string {
	label := ""
	if v.Year > 0 {
		label = strconv.Itoa(v.Year)
	}
	for _, part := range []string{v.Make, v.Model} {
		if part == "" {
			continue
		}
		if label != "" {
			label += " "
		}
		label += part
	}
	return label
}

// FeedbackOutcome is the terminal field set written once per token.
type FeedbackOutcome struct {
	Sentiment    string
	Text         string
	SubmittedAt  time.Time
	Status       string
	ManagerAlert bool
	AlertTime    *time.Time
}

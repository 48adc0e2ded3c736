package domain

import "time"

// EmailStatus enumerates the lifecycle states of a drafted outreach email.
type EmailStatus string

const (
	EmailPendingReview EmailStatus = "pending-review"
	EmailApproved      EmailStatus = "approved"
	EmailRejected      EmailStatus = "rejected"
	EmailSent          EmailStatus = "sent"
	EmailSendFailed    EmailStatus = "send-failed"
)

// Valid reports whether s is a known email status.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailPendingReview, EmailApproved, EmailRejected, EmailSent, EmailSendFailed:
		return true
	}
	return false
}

// Email is a workflow-generated outreach draft tied to exactly one lead.
// Created only by the generation callback; mutated by review and send paths.
type Email struct {
	ID          string         `json:"id" db:"id"`
	LeadID      string         `json:"lead_id" db:"lead_id"`
	Subject     string         `json:"subject" db:"subject"`
	Body        string         `json:"body" db:"body"`
	Status      EmailStatus    `json:"status" db:"status"`
	GeneratedAt time.Time      `json:"generated_at" db:"generated_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	SentAt      *time.Time     `json:"sent_at,omitempty" db:"sent_at"`
	Provider    string         `json:"provider,omitempty" db:"provider"`
	MessageID   string         `json:"message_id,omitempty" db:"message_id"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`

	// Lead is populated by read-side joins; nil on write paths.
	Lead *Lead `json:"lead,omitempty" db:"-"`
}

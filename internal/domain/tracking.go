package domain

import "time"

// EngagementTracking is the per-sent-email engagement record. Exactly one row
// exists per sent email, created at send time with zeroed counters. Engagement
// events are correlated to the row by provider message id by an external
// collaborator; this system only creates and reads the row.
type EngagementTracking struct {
	ID           string     `json:"id" db:"id"`
	EmailID      string     `json:"email_id" db:"email_id"`
	LeadID       string     `json:"lead_id" db:"lead_id"`
	MessageID    string     `json:"message_id" db:"message_id"`
	Opened       bool       `json:"opened" db:"opened"`
	OpenedAt     *time.Time `json:"opened_at,omitempty" db:"opened_at"`
	Clicks       int        `json:"clicks" db:"clicks"`
	Replied      bool       `json:"replied" db:"replied"`
	RepliedAt    *time.Time `json:"replied_at,omitempty" db:"replied_at"`
	ReplyContent string     `json:"reply_content,omitempty" db:"reply_content"`
	Bounced      *bool      `json:"bounced,omitempty" db:"bounced"`
	MarkedSpam   *bool      `json:"marked_spam,omitempty" db:"marked_spam"`
}

package email

import (
	"context"
	"time"

	"github.com/ignite/outreach-monitor/internal/domain"
)

// Repository defines the data access contract for outreach emails. All
// dual-entity methods (CreateDraft, Approve, MarkSent) must run in a single
// transaction so the email and its lead never drift apart. The lead side of
// each of those methods is guarded by the lifecycle table: when the lead is
// not in a source status for the event, the lead row is left untouched and
// the email side still commits.
type Repository interface {
	// List returns emails matching the filter, ordered by generated_at DESC.
	// Leads are not joined here; the service attaches them.
	List(ctx context.Context, f Filter) ([]domain.Email, error)

	// Get returns a single email. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Email, error)

	// ListByIDs returns the emails whose ids resolve, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Email, error)

	// CreateDraft inserts a pending-review email and advances its lead to
	// email-generated when the lead is in a source status for draft creation.
	// Returns ErrLeadNotFound when the lead doesn't exist.
	CreateDraft(ctx context.Context, e *domain.Email) error

	// UpdateContent replaces subject and body. Allowed only while the email
	// is still editable; otherwise ErrInvalidTransition.
	UpdateContent(ctx context.Context, id, subject, body string) error

	// Approve moves the email to approved, stamps approved_at, and advances
	// the lead when eligible. ErrInvalidTransition when the email's current
	// status does not allow approval.
	Approve(ctx context.Context, id string, at time.Time) error

	// Reject moves the email to rejected. The lead stays where it is so the
	// draft can be edited and re-approved.
	Reject(ctx context.Context, id string) error

	// MarkSent moves an approved email to sent, stamps sent_at, records the
	// provider and message id, advances the lead, and creates exactly one
	// zeroed engagement tracking row. ErrInvalidTransition unless the email
	// is approved.
	MarkSent(ctx context.Context, id, provider, messageID string, at time.Time) error

	// MarkSendFailed moves an approved email to send-failed.
	MarkSendFailed(ctx context.Context, id string) error

	// GetTracking returns the engagement tracking row for an email.
	// Returns ErrNotFound when no row exists.
	GetTracking(ctx context.Context, emailID string) (*domain.EngagementTracking, error)
}

// Filter controls the optional list filters.
type Filter struct {
	Status domain.EmailStatus
	LeadID string
}

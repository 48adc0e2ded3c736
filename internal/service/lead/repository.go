package lead

import (
	"context"

	"github.com/ignite/outreach-monitor/internal/domain"
)

// Repository defines the data access contract for leads.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns leads matching the filter, ordered by uploaded_at DESC.
	List(ctx context.Context, f Filter) ([]domain.Lead, error)

	// Get returns a single lead. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Lead, error)

	// ListByIDs returns the leads whose ids resolve, in no particular order.
	// Missing ids are silently absent from the result.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Lead, error)

	// Insert adds a new lead. Returns ErrDuplicate when a lead with the same
	// (email, service type) pair already exists.
	Insert(ctx context.Context, l *domain.Lead) error

	// UpdateStatus sets the lead's status unconditionally. Transition
	// validation happens in the service layer before this is called.
	UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error

	// Delete removes a lead and cascades to its emails and tracking rows.
	// Returns ErrNotFound if the lead doesn't exist.
	Delete(ctx context.Context, id string) error
}

// Filter controls the optional list filters.
type Filter struct {
	ServiceType domain.ServiceType
	Status      domain.LeadStatus
}

package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// Service implements lead business logic. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a lead service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns leads matching the filter, newest upload first.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Lead, error) {
	if f.ServiceType != "" && !f.ServiceType.Valid() {
		return nil, ErrInvalidService
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, f)
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return s.repo.Get(ctx, id)
}

// ListByIDs returns the leads whose ids resolve; missing ids are dropped.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.ListByIDs(ctx, ids)
}

// UploadRow is one lead row from a CSV import.
type UploadRow struct {
	Email       string         `json:"email"`
	CompanyName string         `json:"company_name"`
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	FullName    string         `json:"full_name,omitempty"`
	Website     string         `json:"website,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UploadResult reports the outcome of a bulk upload. The operation never
// aborts wholesale: every row lands in exactly one of the three buckets.
type UploadResult struct {
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// BulkUpload inserts rows one at a time. A row whose (email, service type)
// pair already exists counts as a duplicate; any other per-row failure is
// captured in Errors with the offending email.
func (s *Service) BulkUpload(ctx context.Context, serviceType domain.ServiceType, rows []UploadRow, batchID string) (*UploadResult, error) {
	if !serviceType.Valid() {
		return nil, ErrInvalidService
	}
	if batchID == "" {
		batchID = uuid.New().String()
	}

	result := &UploadResult{Errors: []string{}}
	now := time.Now().UTC()

	for _, row := range rows {
		if row.Email == "" || row.CompanyName == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row for %q: email and company name are required", row.Email))
			continue
		}

		l := &domain.Lead{
			ID:            uuid.New().String(),
			Email:         row.Email,
			CompanyName:   row.CompanyName,
			FirstName:     row.FirstName,
			LastName:      row.LastName,
			FullName:      row.FullName,
			Website:       row.Website,
			ServiceType:   serviceType,
			Status:        domain.LeadNew,
			Metadata:      row.Metadata,
			UploadedAt:    now,
			UploadBatchID: batchID,
		}

		err := s.repo.Insert(ctx, l)
		switch {
		case err == nil:
			result.Inserted++
		case errors.Is(err, ErrDuplicate):
			result.Duplicates++
		default:
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to insert %s: %v", row.Email, err))
		}
	}

	logger.Info("lead upload complete",
		"batch_id", batchID,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors))
	return result, nil
}

// UpdateStatus moves a lead to the requested status via a direct user action.
// Undefined transitions are rejected with ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.Status == status {
		return nil
	}
	if !domain.LeadStatusReachable(l.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// ApplyEvent fires a lifecycle event against a lead. Unlike UpdateStatus this
// is the side-effect path driven by the email store and engine callbacks: an
// undefined transition is a logged no-op, never an error, so a late callback
// cannot fail because a human already moved the lead.
func (s *Service) ApplyEvent(ctx context.Context, id string, event domain.LeadEvent) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	next, ok := domain.NextLeadStatus(l.Status, event)
	if !ok {
		logger.Warn("lead event ignored for current status",
			"lead_id", id, "event", string(event), "status", string(l.Status))
		return nil
	}
	return s.repo.UpdateStatus(ctx, id, next)
}

// Delete removes a single lead, cascading to its emails and tracking rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// BulkDelete removes leads one at a time. Ids that no longer resolve are
// skipped; the count of actually deleted leads is returned. There is no
// isolation across the batch.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := s.repo.Delete(ctx, id)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrNotFound):
			// already gone, fine
		default:
			return deleted, fmt.Errorf("delete lead %s: %w", id, err)
		}
	}
	return deleted, nil
}

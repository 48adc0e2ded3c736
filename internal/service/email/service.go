package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// LeadReader is the slice of the lead service the email service needs for
// read-side joins.
type LeadReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Lead, error)
}

// Renderer resolves merge tags in a template against a lead.
type Renderer interface {
	Render(tmpl string, l *domain.Lead) (string, error)
}

// Service implements email review business logic.
type Service struct {
	repo     Repository
	leads    LeadReader
	renderer Renderer
}

// NewService creates an email service.
func NewService(repo Repository, leads LeadReader, renderer Renderer) *Service {
	return &Service{repo: repo, leads: leads, renderer: renderer}
}

// List returns emails matching the filter with their leads attached. The
// lead join is a single batched lookup, not one query per email.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Email, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	emails, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.attachLeads(ctx, emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// Get returns a single email with its lead attached.
func (s *Service) Get(ctx context.Context, id string) (*domain.Email, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []domain.Email{*e}
	if err := s.attachLeads(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// ListByIDs returns the emails whose ids resolve, with leads attached.
// Missing ids are dropped.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]domain.Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	emails, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.attachLeads(ctx, emails); err != nil {
		return nil, err
	}
	return emails, nil
}

func (s *Service) attachLeads(ctx context.Context, emails []domain.Email) error {
	if len(emails) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(emails))
	ids := make([]string, 0, len(emails))
	for _, e := range emails {
		if !seen[e.LeadID] {
			seen[e.LeadID] = true
			ids = append(ids, e.LeadID)
		}
	}
	leads, err := s.leads.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load leads for emails: %w", err)
	}
	byID := make(map[string]*domain.Lead, len(leads))
	for i := range leads {
		byID[leads[i].ID] = &leads[i]
	}
	for i := range emails {
		emails[i].Lead = byID[emails[i].LeadID]
	}
	return nil
}

// CreateDraft stores a workflow-generated draft in pending-review and, in the
// same transaction, moves the lead to email-generated when eligible.
func (s *Service) CreateDraft(ctx context.Context, leadID, subject, body string) (*domain.Email, error) {
	e := &domain.Email{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		Subject:     subject,
		Body:        body,
		Status:      domain.EmailPendingReview,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDraft(ctx, e); err != nil {
		return nil, err
	}
	logger.Info("draft created", "email_id", e.ID, "lead_id", leadID)
	return e, nil
}

// UpdateContent replaces a draft's subject and body while it is still
// editable.
func (s *Service) UpdateContent(ctx context.Context, id, subject, body string) error {
	if subject == "" && body == "" {
		return nil
	}
	return s.repo.UpdateContent(ctx, id, subject, body)
}

// Approve marks an email approved and advances its lead. Approval is allowed
// from pending-review and from rejected, so a reviewer can change their mind
// after editing.
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.repo.Approve(ctx, id, time.Now().UTC())
}

// Reject marks an email rejected. Allowed from pending-review and from
// approved, pulling a draft back before dispatch fires.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.repo.Reject(ctx, id)
}

// BulkApproveResult reports the outcome of a bulk approval.
type BulkApproveResult struct {
	Approved int      `json:"approved"`
	Skipped  []string `json:"skipped"`
}

// BulkApprove approves emails one at a time. Ids that no longer resolve or
// whose emails are not in an approvable status are skipped rather than
// failing the batch.
func (s *Service) BulkApprove(ctx context.Context, ids []string) (*BulkApproveResult, error) {
	result := &BulkApproveResult{Skipped: []string{}}
	now := time.Now().UTC()
	for _, id := range ids {
		err := s.repo.Approve(ctx, id, now)
		switch {
		case err == nil:
			result.Approved++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
			result.Skipped = append(result.Skipped, id)
		default:
			return result, fmt.Errorf("approve email %s: %w", id, err)
		}
	}
	logger.Info("bulk approve complete",
		"approved", result.Approved, "skipped", len(result.Skipped))
	return result, nil
}

// MarkSent records a successful dispatch: email to sent, lead advanced, and
// a zeroed engagement tracking row created, all in one transaction.
func (s *Service) MarkSent(ctx context.Context, id, provider, messageID string) error {
	return s.repo.MarkSent(ctx, id, provider, messageID, time.Now().UTC())
}

// MarkSendFailed records a failed dispatch attempt.
func (s *Service) MarkSendFailed(ctx context.Context, id string) error {
	return s.repo.MarkSendFailed(ctx, id)
}

// Preview holds an email's content with merge tags resolved against its lead.
type Preview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RenderPreview resolves the email's merge tags against its lead. Tags that
// the lead has no value for render as empty rather than erroring, so a
// partially-filled lead still previews.
func (s *Service) RenderPreview(ctx context.Context, id string) (*Preview, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Lead == nil {
		return nil, ErrLeadNotFound
	}

	subject, err := s.renderer.Render(e.Subject, e.Lead)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	body, err := s.renderer.Render(e.Body, e.Lead)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	return &Preview{Subject: subject, Body: body}, nil
}

// GetTracking returns the engagement tracking row for an email.
func (s *Service) GetTracking(ctx context.Context, emailID string) (*domain.EngagementTracking, error) {
	return s.repo.GetTracking(ctx, emailID)
}

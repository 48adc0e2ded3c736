package email_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/service/email"
)

// memRepo is an in-memory email repository that mirrors the transactional
// guarantees of the postgres implementation: dual-entity methods mutate the
// email and its lead under one lock, and the lead side is apply-or-skip.
type memRepo struct {
	mu       sync.Mutex
	emails   map[string]*domain.Email
	leads    map[string]*domain.Lead
	tracking map[string]*domain.EngagementTracking // keyed by email id
}

func newMemRepo() *memRepo {
	return &memRepo{
		emails:   make(map[string]*domain.Email),
		leads:    make(map[string]*domain.Lead),
		tracking: make(map[string]*domain.EngagementTracking),
	}
}

func (m *memRepo) addLead(status domain.LeadStatus) *domain.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &domain.Lead{
		ID:          uuid.New().String(),
		Email:       "jane@acme.com",
		CompanyName: "Acme",
		FirstName:   "Jane",
		ServiceType: domain.ServiceAI,
		Status:      status,
	}
	m.leads[l.ID] = l
	return l
}

func (m *memRepo) List(_ context.Context, f email.Filter) ([]domain.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Email
	for _, e := range m.emails {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.LeadID != "" && e.LeadID != f.LeadID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return nil, email.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Email
	for _, id := range ids {
		if e, ok := m.emails[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memRepo) CreateDraft(_ context.Context, e *domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[e.LeadID]
	if !ok {
		return email.ErrLeadNotFound
	}
	cp := *e
	m.emails[cp.ID] = &cp
	if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventDraftCreated); ok {
		l.Status = next
	}
	return nil
}

func (m *memRepo) UpdateContent(_ context.Context, id, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailEditAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	if subject != "" {
		e.Subject = subject
	}
	if body != "" {
		e.Body = body
	}
	return nil
}

func (m *memRepo) Approve(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailApproveAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailApproved
	e.ApprovedAt = &at
	if l, ok := m.leads[e.LeadID]; ok {
		if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventApproved); ok {
			l.Status = next
		}
	}
	return nil
}

func (m *memRepo) Reject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailRejectAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailRejected
	return nil
}

func (m *memRepo) MarkSent(_ context.Context, id, provider, messageID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailMarkSentAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailSent
	e.SentAt = &at
	e.Provider = provider
	e.MessageID = messageID
	if l, ok := m.leads[e.LeadID]; ok {
		if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventSent); ok {
			l.Status = next
		}
	}
	m.tracking[id] = &domain.EngagementTracking{
		ID:        uuid.New().String(),
		EmailID:   id,
		LeadID:    e.LeadID,
		MessageID: messageID,
	}
	return nil
}

func (m *memRepo) MarkSendFailed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailMarkSentAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailSendFailed
	return nil
}

func (m *memRepo) GetTracking(_ context.Context, emailID string) (*domain.EngagementTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.tracking[emailID]
	if !ok {
		return nil, email.ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

// leadReader serves the read-side join from the same in-memory lead set.
type leadReader struct{ repo *memRepo }

func (r leadReader) ListByIDs(_ context.Context, ids []string) ([]domain.Lead, error) {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()
	var out []domain.Lead
	for _, id := range ids {
		if l, ok := r.repo.leads[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

// fakeRenderer substitutes {{first_name}} only, enough to exercise preview
// plumbing without dragging the real template engine in.
type fakeRenderer struct{}

func (fakeRenderer) Render(tmpl string, l *domain.Lead) (string, error) {
	return strings.ReplaceAll(tmpl, "{{first_name}}", l.FirstName), nil
}

func newService(repo *memRepo) *email.Service {
	return email.NewService(repo, leadReader{repo}, fakeRenderer{})
}

func TestCreateDraftAdvancesLead(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)

	e, err := svc.CreateDraft(context.Background(), l.ID, "Hi {{first_name}}", "body")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if e.Status != domain.EmailPendingReview {
		t.Fatalf("expected pending-review, got %s", e.Status)
	}
	if repo.leads[l.ID].Status != domain.LeadEmailGenerated {
		t.Fatalf("lead should advance to email-generated, got %s", repo.leads[l.ID].Status)
	}
}

func TestCreateDraftUnknownLead(t *testing.T) {
	svc := newService(newMemRepo())
	_, err := svc.CreateDraft(context.Background(), "nope", "s", "b")
	if err != email.ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestApproveDualTransition(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "s", "b")

	if err := svc.Approve(context.Background(), e.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := svc.Get(context.Background(), e.ID)
	if got.Status != domain.EmailApproved || got.ApprovedAt == nil {
		t.Fatalf("expected approved with timestamp, got %+v", got)
	}
	if repo.leads[l.ID].Status != domain.LeadApproved {
		t.Fatalf("lead should be approved, got %s", repo.leads[l.ID].Status)
	}
}

func TestApproveAfterReject(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "s", "b")

	if err := svc.Reject(context.Background(), e.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := svc.Approve(context.Background(), e.ID); err != nil {
		t.Fatalf("approve after reject should be allowed: %v", err)
	}
}

func TestApproveSentEmailFails(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "s", "b")
	_ = svc.Approve(context.Background(), e.ID)
	_ = svc.MarkSent(context.Background(), e.ID, "n8n", "msg-1")

	if err := svc.Approve(context.Background(), e.ID); err != email.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBulkApproveSkipsMissingAndIneligible(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l1 := repo.addLead(domain.LeadNew)
	l2 := repo.addLead(domain.LeadNew)
	e1, _ := svc.CreateDraft(context.Background(), l1.ID, "s", "b")
	e2, _ := svc.CreateDraft(context.Background(), l2.ID, "s", "b")
	_ = svc.Approve(context.Background(), e2.ID)
	_ = svc.MarkSent(context.Background(), e2.ID, "n8n", "msg-2")

	res, err := svc.BulkApprove(context.Background(), []string{e1.ID, e2.ID, "nonexistent"})
	if err != nil {
		t.Fatalf("bulk approve: %v", err)
	}
	if res.Approved != 1 || len(res.Skipped) != 2 {
		t.Fatalf("expected 1 approved and 2 skipped, got %+v", res)
	}
}

func TestMarkSentCreatesTrackingRow(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "s", "b")
	_ = svc.Approve(context.Background(), e.ID)

	if err := svc.MarkSent(context.Background(), e.ID, "n8n", "msg-9"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	tr, err := svc.GetTracking(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("get tracking: %v", err)
	}
	if tr.MessageID != "msg-9" || tr.Opened || tr.Replied || tr.Clicks != 0 {
		t.Fatalf("tracking row should start zeroed, got %+v", tr)
	}
	if repo.leads[l.ID].Status != domain.LeadSent {
		t.Fatalf("lead should be sent, got %s", repo.leads[l.ID].Status)
	}
}

func TestMarkSentRequiresApproval(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "s", "b")

	if err := svc.MarkSent(context.Background(), e.ID, "n8n", "msg-1"); err != email.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for pending draft, got %v", err)
	}
}

func TestListAttachesLeads(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	_, _ = svc.CreateDraft(context.Background(), l.ID, "s", "b")

	out, err := svc.List(context.Background(), email.Filter{Status: domain.EmailPendingReview})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Lead == nil || out[0].Lead.ID != l.ID {
		t.Fatalf("expected one email with its lead attached, got %+v", out)
	}
}

func TestRenderPreview(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	l := repo.addLead(domain.LeadNew)
	e, _ := svc.CreateDraft(context.Background(), l.ID, "Hi {{first_name}}", "Hello {{first_name}}, quick note")

	p, err := svc.RenderPreview(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.Subject != "Hi Jane" || !strings.HasPrefix(p.Body, "Hello Jane") {
		t.Fatalf("merge tags not resolved: %+v", p)
	}
}

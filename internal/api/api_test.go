package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-monitor/internal/api"
	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/orchestrator"
	"github.com/ignite/outreach-monitor/internal/render"
	"github.com/ignite/outreach-monitor/internal/service/email"
	"github.com/ignite/outreach-monitor/internal/service/lead"
	"github.com/ignite/outreach-monitor/internal/service/metrics"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

// store is a shared in-memory backing for all repository fakes so that
// dual-entity semantics (draft creation advancing the lead) behave like the
// real Postgres layer.
type store struct {
	mu       sync.Mutex
	leads    map[string]*domain.Lead
	emails   map[string]*domain.Email
	tracking map[string]*domain.EngagementTracking
	settings map[string]any
}

func newStore() *store {
	return &store{
		leads:    make(map[string]*domain.Lead),
		emails:   make(map[string]*domain.Email),
		tracking: make(map[string]*domain.EngagementTracking),
		settings: make(map[string]any),
	}
}

func (s *store) addLead(status domain.LeadStatus) *domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &domain.Lead{
		ID:          uuid.New().String(),
		Email:       "jane@acme.com",
		CompanyName: "Acme",
		FirstName:   "Jane",
		ServiceType: domain.ServiceAI,
		Status:      status,
		UploadedAt:  time.Now().UTC(),
	}
	s.leads[l.ID] = l
	return l
}

// --- lead.Repository ---

type leadRepo struct{ s *store }

func (r leadRepo) List(_ context.Context, f lead.Filter) ([]domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.s.leads {
		if f.ServiceType != "" && l.ServiceType != f.ServiceType {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r leadRepo) Get(_ context.Context, id string) (*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return nil, lead.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r leadRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Lead
	for _, id := range ids {
		if l, ok := r.s.leads[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r leadRepo) Insert(_ context.Context, l *domain.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.leads {
		if existing.Email == l.Email && existing.ServiceType == l.ServiceType {
			return lead.ErrDuplicate
		}
	}
	cp := *l
	r.s.leads[cp.ID] = &cp
	return nil
}

func (r leadRepo) UpdateStatus(_ context.Context, id string, status domain.LeadStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return lead.ErrNotFound
	}
	l.Status = status
	return nil
}

func (r leadRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leads[id]; !ok {
		return lead.ErrNotFound
	}
	delete(r.s.leads, id)
	return nil
}

// --- email.Repository ---

type emailRepo struct{ s *store }

func (r emailRepo) List(_ context.Context, f email.Filter) ([]domain.Email, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Email
	for _, e := range r.s.emails {
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

func (r emailRepo) Get(_ context.Context, id string) (*domain.Email, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
	if !ok {
		return nil, email.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r emailRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Email, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Email
	for _, id := range ids {
		if e, ok := r.s.emails[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r emailRepo) CreateDraft(_ context.Context, e *domain.Email) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[e.LeadID]
	if !ok {
		return email.ErrLeadNotFound
	}
	cp := *e
	r.s.emails[cp.ID] = &cp
	if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventDraftCreated); ok {
		l.Status = next
	}
	return nil
}

func (r emailRepo) UpdateContent(_ context.Context, id, subject, body string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
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

func (r emailRepo) Approve(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailApproveAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailApproved
	e.ApprovedAt = &at
	if l, ok := r.s.leads[e.LeadID]; ok {
		if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventApproved); ok {
			l.Status = next
		}
	}
	return nil
}

func (r emailRepo) Reject(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	if !domain.EmailRejectAllowed(e.Status) {
		return email.ErrInvalidTransition
	}
	e.Status = domain.EmailRejected
	return nil
}

func (r emailRepo) MarkSent(_ context.Context, id, provider, messageID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
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
	if l, ok := r.s.leads[e.LeadID]; ok {
		if next, ok := domain.NextLeadStatus(l.Status, domain.LeadEventSent); ok {
			l.Status = next
		}
	}
	r.s.tracking[id] = &domain.EngagementTracking{
		ID: uuid.New().String(), EmailID: id, LeadID: e.LeadID, MessageID: messageID,
	}
	return nil
}

func (r emailRepo) MarkSendFailed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.emails[id]
	if !ok {
		return email.ErrNotFound
	}
	e.Status = domain.EmailSendFailed
	return nil
}

func (r emailRepo) GetTracking(_ context.Context, emailID string) (*domain.EngagementTracking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tracking[emailID]
	if !ok {
		return nil, email.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// --- setting.Repository ---

type settingRepo struct{ s *store }

func (r settingRepo) Get(_ context.Context, key string) (*domain.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.settings[key]
	if !ok {
		return nil, setting.ErrNotFound
	}
	return &domain.Setting{Key: key, Value: v}, nil
}

func (r settingRepo) Set(_ context.Context, st *domain.Setting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[st.Key] = st.Value
	return nil
}

func (r settingRepo) List(_ context.Context) ([]domain.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Setting
	for k, v := range r.s.settings {
		out = append(out, domain.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (r settingRepo) Delete(_ context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.settings[key]; !ok {
		return setting.ErrNotFound
	}
	delete(r.s.settings, key)
	return nil
}

// --- metrics.Reader ---

type countsReader struct{ s *store }

func (r countsReader) StatusCounts(_ context.Context, st domain.ServiceType) (map[domain.LeadStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[domain.LeadStatus]int)
	for _, l := range r.s.leads {
		if st != "" && l.ServiceType != st {
			continue
		}
		out[l.Status]++
	}
	return out, nil
}

func (r countsReader) SentEmailCount(_ context.Context, st domain.ServiceType) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.emails {
		if e.Status != domain.EmailSent {
			continue
		}
		if st != "" {
			l, ok := r.s.leads[e.LeadID]
			if !ok || l.ServiceType != st {
				continue
			}
		}
		n++
	}
	return n, nil
}

// --- harness ---

type harness struct {
	store  *store
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := newStore()
	leadSvc := lead.NewService(leadRepo{s})
	emailSvc := email.NewService(emailRepo{s}, leadSvc, render.NewEngine())
	settingSvc := setting.NewService(settingRepo{s})
	metricsSvc := metrics.NewService(countsReader{s})
	orch := orchestrator.NewService(leadSvc, emailSvc, settingSvc, 5*time.Second)
	deduper := orchestrator.NewDeduper(rdb, time.Hour)

	h := api.NewHandlers(leadSvc, emailSvc, metricsSvc, settingSvc, orch, deduper)
	return &harness{store: s, router: api.SetupRoutes(h, nil, nil)}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// --- tests ---

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestWebhookEmailGeneratedMissingFieldsNoWrite(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)

	rec := h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "hi"}) // body missing
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(h.store.emails) != 0 {
		t.Fatal("invalid callback must not write")
	}
	if h.store.leads[l.ID].Status != domain.LeadNew {
		t.Fatal("invalid callback must not move the lead")
	}
}

func TestWebhookEmailGeneratedCreatesDraft(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)

	rec := h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "Hi {{first_name}}", "body": "b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(h.store.emails) != 1 {
		t.Fatalf("expected one draft, got %d", len(h.store.emails))
	}
	if h.store.leads[l.ID].Status != domain.LeadEmailGenerated {
		t.Fatalf("lead should advance, got %s", h.store.leads[l.ID].Status)
	}
}

func TestWebhookEmailGeneratedDuplicateDelivery(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)
	payload := map[string]any{"leadId": l.ID, "subject": "s", "body": "b"}

	first := h.do(t, "POST", "/webhook/email-generated", payload)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery: %d", first.Code)
	}
	second := h.do(t, "POST", "/webhook/email-generated", payload)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate delivery should still be 200, got %d", second.Code)
	}
	body := decodeBody(t, second)
	if body["duplicate"] != true {
		t.Fatalf("expected duplicate flag, got %+v", body)
	}
	if len(h.store.emails) != 1 {
		t.Fatalf("duplicate delivery must not write twice, have %d emails", len(h.store.emails))
	}
}

func TestWebhookEmailGeneratedRetryAfterFailure(t *testing.T) {
	h := newHarness(t)
	id := uuid.New().String()
	payload := map[string]any{"leadId": id, "subject": "s", "body": "b"}

	// The engine's callback can race the lead becoming visible.
	first := h.do(t, "POST", "/webhook/email-generated", payload)
	if first.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the lead exists, got %d", first.Code)
	}

	h.store.mu.Lock()
	h.store.leads[id] = &domain.Lead{
		ID: id, Email: "jane@acme.com", CompanyName: "Acme",
		ServiceType: domain.ServiceAI, Status: domain.LeadNew,
	}
	h.store.mu.Unlock()

	// The identical retry must not be swallowed as a duplicate of the
	// failed delivery.
	retry := h.do(t, "POST", "/webhook/email-generated", payload)
	if retry.Code != http.StatusOK {
		t.Fatalf("retry after failure: %d %s", retry.Code, retry.Body.String())
	}
	if body := decodeBody(t, retry); body["duplicate"] == true {
		t.Fatalf("retry after failure must apply, not dedup: %+v", body)
	}
	if len(h.store.emails) != 1 {
		t.Fatalf("expected the retried draft to be created, have %d emails", len(h.store.emails))
	}
	if h.store.leads[id].Status != domain.LeadEmailGenerated {
		t.Fatalf("lead should advance on the retry, got %s", h.store.leads[id].Status)
	}
}

func TestWebhookEmailSentRetryAfterFailure(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)
	h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "s", "body": "b"})
	var emailID string
	for id := range h.store.emails {
		emailID = id
	}
	payload := map[string]any{"emailId": emailID, "messageId": "msg-1"}

	// Confirmation for a not-yet-approved email is rejected.
	first := h.do(t, "POST", "/webhook/email-sent", payload)
	if first.Code != http.StatusConflict {
		t.Fatalf("expected 409 before approval, got %d", first.Code)
	}

	h.do(t, "POST", "/api/emails/"+emailID+"/approve", nil)

	retry := h.do(t, "POST", "/webhook/email-sent", payload)
	if retry.Code != http.StatusOK {
		t.Fatalf("retry after failure: %d %s", retry.Code, retry.Body.String())
	}
	if body := decodeBody(t, retry); body["duplicate"] == true {
		t.Fatalf("retry after failure must apply, not dedup: %+v", body)
	}
	if h.store.emails[emailID].Status != domain.EmailSent {
		t.Fatalf("email should be sent after the retry, got %s", h.store.emails[emailID].Status)
	}
	if len(h.store.tracking) != 1 {
		t.Fatalf("expected one tracking row, got %d", len(h.store.tracking))
	}
}

func TestWebhookEmailGeneratedUnknownLead(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": "ghost", "subject": "s", "body": "b"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWebhookEmailGeneratedFailureMovesLead(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)

	rec := h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "success": false, "error": "model refused"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if h.store.leads[l.ID].Status != domain.LeadGenerationFailed {
		t.Fatalf("lead should be generation-failed, got %s", h.store.leads[l.ID].Status)
	}
}

func TestWebhookEmailSentFlow(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)

	h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "s", "body": "b"})
	var emailID string
	for id := range h.store.emails {
		emailID = id
	}
	h.do(t, "POST", "/api/emails/"+emailID+"/approve", nil)

	rec := h.do(t, "POST", "/webhook/email-sent",
		map[string]any{"emailId": emailID, "messageId": "msg-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if h.store.emails[emailID].Status != domain.EmailSent {
		t.Fatalf("email should be sent, got %s", h.store.emails[emailID].Status)
	}
	if h.store.leads[l.ID].Status != domain.LeadSent {
		t.Fatalf("lead should be sent, got %s", h.store.leads[l.ID].Status)
	}
	if len(h.store.tracking) != 1 {
		t.Fatalf("expected one tracking row, got %d", len(h.store.tracking))
	}

	// duplicate confirmation: acknowledged, no second tracking row
	dup := h.do(t, "POST", "/webhook/email-sent",
		map[string]any{"emailId": emailID, "messageId": "msg-1"})
	if dup.Code != http.StatusOK || decodeBody(t, dup)["duplicate"] != true {
		t.Fatalf("duplicate confirmation should be acknowledged: %d %s", dup.Code, dup.Body.String())
	}
	if len(h.store.tracking) != 1 {
		t.Fatal("duplicate confirmation must not create another tracking row")
	}
}

func TestLeadsListAndFilter(t *testing.T) {
	h := newHarness(t)
	h.store.addLead(domain.LeadNew)

	rec := h.do(t, "GET", "/api/leads/?service_type=ai", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 1 {
		t.Fatalf("expected 1 lead, got %+v", body)
	}

	rec = h.do(t, "GET", "/api/leads/?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter should 400, got %d", rec.Code)
	}
}

func TestLeadUploadMultipart(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("service_type", "ai")
	fw, _ := mw.CreateFormFile("file", "leads.csv")
	fw.Write([]byte("email,company\na@acme.com,Acme\na@acme.com,Acme\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/leads/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["inserted"].(float64) != 1 || body["duplicates"].(float64) != 1 {
		t.Fatalf("expected {1,1}, got %+v", body)
	}
}

func TestTriggerGenerateNotConfigured(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)

	rec := h.do(t, "POST", "/api/outreach/generate", map[string]any{"leadIds": []string{l.ID}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing webhook url should 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if !strings.Contains(body["error"].(string), "not configured") {
		t.Fatalf("error should mention configuration: %+v", body)
	}
}

func TestMetricsFunnelEndpoint(t *testing.T) {
	h := newHarness(t)
	h.store.addLead(domain.LeadNew)
	h.store.addLead(domain.LeadNew)

	rec := h.do(t, "GET", "/api/metrics/funnel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["total_leads"].(float64) != 2 {
		t.Fatalf("expected 2 leads, got %+v", body)
	}
	if body["open_rate"].(float64) != 0 {
		t.Fatalf("open rate should be 0 with nothing sent: %+v", body)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "PUT", "/api/settings/", map[string]any{
		"key":   domain.SettingGenerateWebhookURL,
		"value": "https://n8n.example.com/hook",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put: %d", rec.Code)
	}

	rec = h.do(t, "GET", "/api/settings/", nil)
	body := decodeBody(t, rec)
	settings := body["settings"].([]any)
	if len(settings) != 1 {
		t.Fatalf("expected 1 setting, got %+v", settings)
	}

	rec = h.do(t, "DELETE", "/api/settings/"+domain.SettingGenerateWebhookURL, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
}

func TestEmailReviewEndpoints(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)
	h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "Hi {{first_name}}", "body": "Hello {{first_name}}"})
	var emailID string
	for id := range h.store.emails {
		emailID = id
	}

	rec := h.do(t, "PATCH", "/api/emails/"+emailID, map[string]any{"subject": "Hi there"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d", rec.Code)
	}
	if h.store.emails[emailID].Subject != "Hi there" {
		t.Fatalf("subject not updated: %+v", h.store.emails[emailID])
	}

	rec = h.do(t, "GET", "/api/emails/"+emailID+"/preview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["body"] != "Hello Jane" {
		t.Fatalf("merge tags not rendered: %+v", body)
	}
	if vars, ok := body["variables"].([]any); !ok || len(vars) == 0 {
		t.Fatalf("preview should list the available merge tags: %+v", body)
	}

	rec = h.do(t, "POST", "/api/emails/"+emailID+"/reject", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: %d", rec.Code)
	}

	// reject again: no longer rejectable, conflict
	rec = h.do(t, "POST", "/api/emails/"+emailID+"/reject", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double reject should 409, got %d", rec.Code)
	}
}

func TestBulkApproveEndpointSkipsMissing(t *testing.T) {
	h := newHarness(t)
	l := h.store.addLead(domain.LeadNew)
	h.do(t, "POST", "/webhook/email-generated",
		map[string]any{"leadId": l.ID, "subject": "s", "body": "b"})
	var emailID string
	for id := range h.store.emails {
		emailID = id
	}

	rec := h.do(t, "POST", "/api/emails/bulk-approve",
		map[string]any{"ids": []string{emailID, "ghost"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk approve: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["approved"].(float64) != 1 {
		t.Fatalf("expected 1 approved, got %+v", body)
	}
	if len(body["skipped"].([]any)) != 1 {
		t.Fatalf("expected 1 skipped, got %+v", body)
	}
}

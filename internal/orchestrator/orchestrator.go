package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/render"
)

// Sentinel errors for trigger operations.
var (
	ErrNoLeads  = errors.New("no resolvable leads to generate for")
	ErrNoEmails = errors.New("no approved emails to send")
	ErrEngine   = errors.New("workflow engine rejected the trigger")
)

// LeadSource resolves lead ids for generation triggers.
type LeadSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Lead, error)
}

// EmailSource resolves email ids, leads attached, for send triggers.
type EmailSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Email, error)
}

// Settings supplies the engine webhook URLs and the from address. The URL
// getters fail with setting.ErrNotConfigured before any state is touched.
type Settings interface {
	GenerateWebhookURL(ctx context.Context) (string, error)
	SendWebhookURL(ctx context.Context) (string, error)
	FromAddress(ctx context.Context) (string, error)
}

// Service triggers engine workflows.
type Service struct {
	leads    LeadSource
	emails   EmailSource
	settings Settings
	renderer *render.Engine
	client   *http.Client
}

// NewService creates an orchestrator. timeout bounds each webhook POST.
func NewService(leads LeadSource, emails EmailSource, settings Settings, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		leads:    leads,
		emails:   emails,
		settings: settings,
		renderer: render.NewEngine(),
		client:   &http.Client{Timeout: timeout},
	}
}

// TriggerResult reports how many of the requested ids were actually handed
// to the engine.
type TriggerResult struct {
	Requested  int `json:"requested"`
	Dispatched int `json:"dispatched"`
}

type generatePayload struct {
	WebhookType string        `json:"webhookType"`
	Leads       []leadPayload `json:"leads"`
}

type leadPayload struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	CompanyName string         `json:"companyName"`
	FirstName   string         `json:"firstName,omitempty"`
	LastName    string         `json:"lastName,omitempty"`
	FullName    string         `json:"fullName,omitempty"`
	Website     string         `json:"website,omitempty"`
	ServiceType string         `json:"serviceType"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type sendPayload struct {
	WebhookType string         `json:"webhookType"`
	FromAddress string         `json:"fromAddress"`
	Emails      []emailPayload `json:"emails"`
}

type emailPayload struct {
	ID      string `json:"id"`
	LeadID  string `json:"leadId"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TriggerGeneration asks the engine to draft outreach emails for the given
// leads. Ids that no longer resolve are dropped; the engine reports drafts
// back one at a time through the generation callback.
func (s *Service) TriggerGeneration(ctx context.Context, leadIDs []string) (*TriggerResult, error) {
	url, err := s.settings.GenerateWebhookURL(ctx)
	if err != nil {
		return nil, err
	}

	leads, err := s.leads.ListByIDs(ctx, leadIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve leads: %w", err)
	}
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}

	payload := generatePayload{WebhookType: "generate_emails"}
	for _, l := range leads {
		payload.Leads = append(payload.Leads, leadPayload{
			ID:          l.ID,
			Email:       l.Email,
			CompanyName: l.CompanyName,
			FirstName:   l.FirstName,
			LastName:    l.LastName,
			FullName:    l.FullName,
			Website:     l.Website,
			ServiceType: string(l.ServiceType),
			Metadata:    l.Metadata,
		})
	}

	if err := s.post(ctx, url, payload); err != nil {
		return nil, err
	}
	logger.Info("generation triggered",
		"requested", len(leadIDs), "dispatched", len(leads))
	return &TriggerResult{Requested: len(leadIDs), Dispatched: len(leads)}, nil
}

// TriggerSending asks the engine to dispatch the given emails. Only approved
// emails with a resolvable lead are handed over; everything else is dropped
// from the batch. The engine confirms each send through the sent callback,
// which is when the emails actually move to sent.
func (s *Service) TriggerSending(ctx context.Context, emailIDs []string) (*TriggerResult, error) {
	url, err := s.settings.SendWebhookURL(ctx)
	if err != nil {
		return nil, err
	}
	from, err := s.settings.FromAddress(ctx)
	if err != nil {
		return nil, err
	}

	emails, err := s.emails.ListByIDs(ctx, emailIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve emails: %w", err)
	}

	payload := sendPayload{WebhookType: "send_emails", FromAddress: from}
	for _, e := range emails {
		if !domain.EmailMarkSentAllowed(e.Status) || e.Lead == nil {
			continue
		}
		payload.Emails = append(payload.Emails, emailPayload{
			ID:      e.ID,
			LeadID:  e.LeadID,
			To:      e.Lead.Email,
			Subject: s.renderMergeTags(e.Subject, e.Lead, e.ID),
			Body:    s.renderMergeTags(e.Body, e.Lead, e.ID),
		})
	}
	if len(payload.Emails) == 0 {
		return nil, ErrNoEmails
	}

	if err := s.post(ctx, url, payload); err != nil {
		return nil, err
	}
	logger.Info("sending triggered",
		"requested", len(emailIDs), "dispatched", len(payload.Emails))
	return &TriggerResult{Requested: len(emailIDs), Dispatched: len(payload.Emails)}, nil
}

// renderMergeTags resolves any merge tags left in reviewed content. A broken
// template must not strand an approved email, so it falls through to the
// stored text.
func (s *Service) renderMergeTags(tmpl string, l *domain.Lead, emailID string) string {
	out, err := s.renderer.Render(tmpl, l)
	if err != nil {
		logger.Warn("merge tag render failed, sending raw content",
			"email_id", emailID, "error", err.Error())
		return tmpl
	}
	return out
}

// post fires the webhook exactly once. The engine owns retries and queueing;
// a failure here surfaces to the operator instead of being retried blindly.
func (s *Service) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call workflow engine: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrEngine, resp.StatusCode)
	}
	return nil
}

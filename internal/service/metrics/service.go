package metrics

import (
	"context"

	"github.com/ignite/outreach-monitor/internal/domain"
)

// Reader supplies raw lead status counts. Implementations live in
// repository/postgres.
type Reader interface {
	// StatusCounts returns the number of leads per status, optionally
	// filtered by service type (empty means all services).
	StatusCounts(ctx context.Context, serviceType domain.ServiceType) (map[domain.LeadStatus]int, error)
	// SentEmailCount returns the number of dispatched emails, optionally
	// filtered by the lead's service type.
	SentEmailCount(ctx context.Context, serviceType domain.ServiceType) (int, error)
}

// Funnel is a cumulative view of the outreach pipeline: a lead that reached
// "replied" is still counted in every earlier stage it passed through. Sent
// counts dispatched emails, not leads, so a lead contacted twice shows both
// sends. Rates are percentages (0-100).
type Funnel struct {
	TotalLeads       int     `json:"total_leads"`
	EmailsGenerated  int     `json:"emails_generated"`
	Approved         int     `json:"approved"`
	Sent             int     `json:"sent"`
	Opened           int     `json:"opened"`
	Replied          int     `json:"replied"`
	GenerationFailed int     `json:"generation_failed"`
	OpenRate         float64 `json:"open_rate"`
	ReplyRate        float64 `json:"reply_rate"`
	ConversionRate   float64 `json:"conversion_rate"`
}

// Service computes dashboard metrics.
type Service struct {
	reader Reader
}

// NewService creates a metrics service.
func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

// Funnel returns the cumulative funnel for one service type, or for all
// leads when serviceType is empty.
func (s *Service) Funnel(ctx context.Context, serviceType domain.ServiceType) (*Funnel, error) {
	if serviceType != "" && !serviceType.Valid() {
		return nil, ErrInvalidService
	}
	counts, err := s.reader.StatusCounts(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	sent, err := s.reader.SentEmailCount(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	return fromCounts(counts, sent), nil
}

// Breakdown returns one funnel per service type.
func (s *Service) Breakdown(ctx context.Context) (map[domain.ServiceType]*Funnel, error) {
	out := make(map[domain.ServiceType]*Funnel, 2)
	for _, st := range []domain.ServiceType{domain.ServiceAI, domain.ServiceWebDesign} {
		f, err := s.Funnel(ctx, st)
		if err != nil {
			return nil, err
		}
		out[st] = f
	}
	return out, nil
}

func fromCounts(counts map[domain.LeadStatus]int, sentEmails int) *Funnel {
	f := &Funnel{Sent: sentEmails}
	for status, n := range counts {
		f.TotalLeads += n
		switch status {
		case domain.LeadGenerationFailed:
			f.GenerationFailed += n
		case domain.LeadEmailGenerated:
			f.EmailsGenerated += n
		case domain.LeadApproved:
			f.EmailsGenerated += n
			f.Approved += n
		case domain.LeadSent:
			f.EmailsGenerated += n
			f.Approved += n
		case domain.LeadOpened:
			f.EmailsGenerated += n
			f.Approved += n
			f.Opened += n
		case domain.LeadReplied:
			// A reply can arrive without a tracked open, so replied leads
			// are not folded into the opened count.
			f.EmailsGenerated += n
			f.Approved += n
			f.Replied += n
		}
	}
	if f.Sent > 0 {
		f.OpenRate = float64(f.Opened) / float64(f.Sent) * 100
		f.ReplyRate = float64(f.Replied) / float64(f.Sent) * 100
	}
	if f.TotalLeads > 0 {
		f.ConversionRate = float64(f.Replied) / float64(f.TotalLeads) * 100
	}
	return f
}

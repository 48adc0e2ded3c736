package domain

import "time"

// ServiceType enumerates the two outreach campaign categories.
type ServiceType string

const (
	ServiceAI        ServiceType = "ai"
	ServiceWebDesign ServiceType = "web-design"
)

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	return s == ServiceAI || s == ServiceWebDesign
}

// LeadStatus enumerates the lifecycle states of a lead.
type LeadStatus string

const (
	LeadNew              LeadStatus = "new"
	LeadEmailGenerated   LeadStatus = "email-generated"
	LeadApproved         LeadStatus = "approved"
	LeadSent             LeadStatus = "sent"
	LeadOpened           LeadStatus = "opened"
	LeadReplied          LeadStatus = "replied"
	LeadGenerationFailed LeadStatus = "generation-failed"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadEmailGenerated, LeadApproved, LeadSent,
		LeadOpened, LeadReplied, LeadGenerationFailed:
		return true
	}
	return false
}

// Lead represents a prospective customer contact record. It is the aggregate
// root of the outreach lifecycle: emails and tracking rows exist only in
// relation to a lead.
type Lead struct {
	ID              string         `json:"id" db:"id"`
	Email           string         `json:"email" db:"email"`
	CompanyName     string         `json:"company_name" db:"company_name"`
	FirstName       string         `json:"first_name,omitempty" db:"first_name"`
	LastName        string         `json:"last_name,omitempty" db:"last_name"`
	FullName        string         `json:"full_name,omitempty" db:"full_name"`
	Website         string         `json:"website,omitempty" db:"website"`
	ServiceType     ServiceType    `json:"service_type" db:"service_type"`
	Status          LeadStatus     `json:"status" db:"status"`
	Metadata        map[string]any `json:"metadata,omitempty" db:"metadata"`
	UploadedAt      time.Time      `json:"uploaded_at" db:"uploaded_at"`
	LastContactedAt *time.Time     `json:"last_contacted_at,omitempty" db:"last_contacted_at"`
	UploadBatchID   string         `json:"upload_batch_id,omitempty" db:"upload_batch_id"`
}

// DisplayName returns the best available human name for the lead.
func (l *Lead) DisplayName() string {
	if l.FullName != "" {
		return l.FullName
	}
	if l.FirstName != "" {
		return l.FirstName
	}
	return l.CompanyName
}

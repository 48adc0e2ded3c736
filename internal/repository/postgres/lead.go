package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/service/lead"
)

// LeadRepo implements lead.Repository and metrics.Reader against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

const leadColumns = `id, email, company_name, COALESCE(first_name,''), COALESCE(last_name,''),
	       COALESCE(full_name,''), COALESCE(website,''), service_type, status,
	       metadata, uploaded_at, last_contacted_at, COALESCE(upload_batch_id,'')`

func scanLead(row interface{ Scan(...any) error }) (*domain.Lead, error) {
	l := &domain.Lead{}
	var meta []byte
	err := row.Scan(
		&l.ID, &l.Email, &l.CompanyName, &l.FirstName, &l.LastName,
		&l.FullName, &l.Website, &l.ServiceType, &l.Status,
		&meta, &l.UploadedAt, &l.LastContactedAt, &l.UploadBatchID,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &l.Metadata); err != nil {
			return nil, fmt.Errorf("decode lead metadata: %w", err)
		}
	}
	return l, nil
}

func (r *LeadRepo) List(ctx context.Context, f lead.Filter) ([]domain.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.ServiceType != "" {
		q += fmt.Sprintf(" AND service_type = $%d", idx)
		args = append(args, f.ServiceType)
		idx++
	}
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += " ORDER BY uploaded_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) Get(ctx context.Context, id string) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list leads by ids: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) Insert(ctx context.Context, l *domain.Lead) error {
	var meta []byte
	if len(l.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(l.Metadata)
		if err != nil {
			return fmt.Errorf("encode lead metadata: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads
			(id, email, company_name, first_name, last_name, full_name, website,
			 service_type, status, metadata, uploaded_at, upload_batch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, l.ID, l.Email, l.CompanyName, l.FirstName, l.LastName, l.FullName,
		l.Website, l.ServiceType, l.Status, meta, l.UploadedAt, l.UploadBatchID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return lead.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	// emails and tracking rows go with the lead via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}

// StatusCounts implements metrics.Reader.
func (r *LeadRepo) StatusCounts(ctx context.Context, serviceType domain.ServiceType) (map[domain.LeadStatus]int, error) {
	q := `SELECT status, COUNT(*) FROM leads`
	args := []interface{}{}
	if serviceType != "" {
		q += ` WHERE service_type = $1`
		args = append(args, serviceType)
	}
	q += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("count leads by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.LeadStatus]int)
	for rows.Next() {
		var status domain.LeadStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

// SentEmailCount implements metrics.Reader. Dispatches are counted from the
// emails table so a lead contacted more than once contributes every send.
func (r *LeadRepo) SentEmailCount(ctx context.Context, serviceType domain.ServiceType) (int, error) {
	q := `SELECT COUNT(*) FROM emails e JOIN leads l ON l.id = e.lead_id WHERE e.status = $1`
	args := []interface{}{domain.EmailSent}
	if serviceType != "" {
		q += ` AND l.service_type = $2`
		args = append(args, serviceType)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sent emails: %w", err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/service/email"
)

// EmailRepo implements email.Repository against PostgreSQL. Methods that
// touch both an email and its lead run inside one transaction: the email row
// is locked first, its status gate checked, and the lead side applied only
// when the lifecycle table defines the transition for the lead's current
// status.
type EmailRepo struct{ db *sql.DB }

// NewEmailRepo creates a Postgres-backed email repository.
func NewEmailRepo(db *sql.DB) *EmailRepo { return &EmailRepo{db: db} }

const emailColumns = `id, lead_id, subject, body, status, generated_at, approved_at,
	       sent_at, COALESCE(provider,''), COALESCE(message_id,''), metadata`

func scanEmail(row interface{ Scan(...any) error }) (*domain.Email, error) {
	e := &domain.Email{}
	var meta []byte
	err := row.Scan(
		&e.ID, &e.LeadID, &e.Subject, &e.Body, &e.Status, &e.GeneratedAt,
		&e.ApprovedAt, &e.SentAt, &e.Provider, &e.MessageID, &meta,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode email metadata: %w", err)
		}
	}
	return e, nil
}

func (r *EmailRepo) List(ctx context.Context, f email.Filter) ([]domain.Email, error) {
	q := `SELECT ` + emailColumns + ` FROM emails WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.LeadID != "" {
		q += fmt.Sprintf(" AND lead_id = $%d", idx)
		args = append(args, f.LeadID)
		idx++
	}
	q += " ORDER BY generated_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	var out []domain.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EmailRepo) Get(ctx context.Context, id string) (*domain.Email, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE id = $1`, id)
	e, err := scanEmail(row)
	if err == sql.ErrNoRows {
		return nil, email.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return e, nil
}

func (r *EmailRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list emails by ids: %w", err)
	}
	defer rows.Close()

	var out []domain.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EmailRepo) CreateDraft(ctx context.Context, e *domain.Email) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create draft: %w", err)
	}
	defer tx.Rollback()

	var leadStatus domain.LeadStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM leads WHERE id = $1 FOR UPDATE`, e.LeadID).Scan(&leadStatus)
	if err == sql.ErrNoRows {
		return email.ErrLeadNotFound
	}
	if err != nil {
		return fmt.Errorf("lock lead for draft: %w", err)
	}

	var meta []byte
	if len(e.Metadata) > 0 {
		meta, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode email metadata: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO emails (id, lead_id, subject, body, status, generated_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.LeadID, e.Subject, e.Body, e.Status, e.GeneratedAt, meta)
	if err != nil {
		return fmt.Errorf("insert email: %w", err)
	}

	if err := advanceLead(ctx, tx, e.LeadID, leadStatus, domain.LeadEventDraftCreated); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EmailRepo) UpdateContent(ctx context.Context, id, subject, body string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update content: %w", err)
	}
	defer tx.Rollback()

	status, _, err := lockEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if !domain.EmailEditAllowed(status) {
		return fmt.Errorf("%w: edit in status %s", email.ErrInvalidTransition, status)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE emails
		SET subject = CASE WHEN $2 = '' THEN subject ELSE $2 END,
		    body    = CASE WHEN $3 = '' THEN body ELSE $3 END
		WHERE id = $1
	`, id, subject, body)
	if err != nil {
		return fmt.Errorf("update email content: %w", err)
	}
	return tx.Commit()
}

func (r *EmailRepo) Approve(ctx context.Context, id string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback()

	status, leadID, err := lockEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if !domain.EmailApproveAllowed(status) {
		return fmt.Errorf("%w: approve in status %s", email.ErrInvalidTransition, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE emails SET status = $2, approved_at = $3 WHERE id = $1`,
		id, domain.EmailApproved, at)
	if err != nil {
		return fmt.Errorf("approve email: %w", err)
	}

	if err := advanceLockedLead(ctx, tx, leadID, domain.LeadEventApproved); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EmailRepo) Reject(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject: %w", err)
	}
	defer tx.Rollback()

	status, _, err := lockEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if !domain.EmailRejectAllowed(status) {
		return fmt.Errorf("%w: reject in status %s", email.ErrInvalidTransition, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE emails SET status = $2 WHERE id = $1`, id, domain.EmailRejected)
	if err != nil {
		return fmt.Errorf("reject email: %w", err)
	}
	return tx.Commit()
}

func (r *EmailRepo) MarkSent(ctx context.Context, id, provider, messageID string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark sent: %w", err)
	}
	defer tx.Rollback()

	status, leadID, err := lockEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if !domain.EmailMarkSentAllowed(status) {
		return fmt.Errorf("%w: mark sent in status %s", email.ErrInvalidTransition, status)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE emails SET status = $2, sent_at = $3, provider = $4, message_id = $5
		WHERE id = $1
	`, id, domain.EmailSent, at, provider, messageID)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_tracking (id, email_id, lead_id, message_id, opened, clicks, replied)
		VALUES ($1, $2, $3, $4, FALSE, 0, FALSE)
	`, uuid.New().String(), id, leadID, messageID)
	if err != nil {
		return fmt.Errorf("create tracking row: %w", err)
	}

	if err := advanceLockedLead(ctx, tx, leadID, domain.LeadEventSent); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET last_contacted_at = $2 WHERE id = $1`, leadID, at)
	if err != nil {
		return fmt.Errorf("stamp last contacted: %w", err)
	}
	return tx.Commit()
}

func (r *EmailRepo) MarkSendFailed(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark send failed: %w", err)
	}
	defer tx.Rollback()

	status, _, err := lockEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if !domain.EmailMarkSentAllowed(status) {
		return fmt.Errorf("%w: mark send failed in status %s", email.ErrInvalidTransition, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE emails SET status = $2 WHERE id = $1`, id, domain.EmailSendFailed)
	if err != nil {
		return fmt.Errorf("mark email send failed: %w", err)
	}
	return tx.Commit()
}

func (r *EmailRepo) GetTracking(ctx context.Context, emailID string) (*domain.EngagementTracking, error) {
	t := &domain.EngagementTracking{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email_id, lead_id, COALESCE(message_id,''), opened, opened_at,
		       clicks, replied, replied_at, COALESCE(reply_content,''), bounced, marked_spam
		FROM email_tracking
		WHERE email_id = $1
	`, emailID).Scan(
		&t.ID, &t.EmailID, &t.LeadID, &t.MessageID, &t.Opened, &t.OpenedAt,
		&t.Clicks, &t.Replied, &t.RepliedAt, &t.ReplyContent, &t.Bounced, &t.MarkedSpam,
	)
	if err == sql.ErrNoRows {
		return nil, email.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking: %w", err)
	}
	return t, nil
}

// lockEmail locks an email row and returns its status and lead id.
func lockEmail(ctx context.Context, tx *sql.Tx, id string) (domain.EmailStatus, string, error) {
	var status domain.EmailStatus
	var leadID string
	err := tx.QueryRowContext(ctx,
		`SELECT status, lead_id FROM emails WHERE id = $1 FOR UPDATE`, id).
		Scan(&status, &leadID)
	if err == sql.ErrNoRows {
		return "", "", email.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("lock email: %w", err)
	}
	return status, leadID, nil
}

// advanceLockedLead locks the lead row, then applies the event if defined.
func advanceLockedLead(ctx context.Context, tx *sql.Tx, leadID string, event domain.LeadEvent) error {
	var status domain.LeadStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM leads WHERE id = $1 FOR UPDATE`, leadID).Scan(&status)
	if err == sql.ErrNoRows {
		// lead deleted out from under the email; the email side still commits
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock lead: %w", err)
	}
	return advanceLead(ctx, tx, leadID, status, event)
}

// advanceLead applies a lifecycle event to an already-locked lead. Undefined
// transitions are a no-op so a late callback never poisons the transaction.
func advanceLead(ctx context.Context, tx *sql.Tx, leadID string, current domain.LeadStatus, event domain.LeadEvent) error {
	next, ok := domain.NextLeadStatus(current, event)
	if !ok {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE leads SET status = $2 WHERE id = $1`, leadID, next)
	if err != nil {
		return fmt.Errorf("advance lead: %w", err)
	}
	return nil
}

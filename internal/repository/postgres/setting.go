package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/outreach-monitor/internal/domain"
	"github.com/ignite/outreach-monitor/internal/service/setting"
)

// SettingRepo implements setting.Repository against PostgreSQL. Values are
// stored as jsonb so callers can keep arbitrary shapes.
type SettingRepo struct{ db *sql.DB }

// NewSettingRepo creates a Postgres-backed setting repository.
func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{db: db} }

func (r *SettingRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, setting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}

	s := &domain.Setting{Key: key}
	if err := json.Unmarshal(raw, &s.Value); err != nil {
		return nil, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return s, nil
}

func (r *SettingRepo) Set(ctx context.Context, s *domain.Setting) error {
	raw, err := json.Marshal(s.Value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", s.Key, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.Key, raw)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func (r *SettingRepo) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if n == 0 {
		return setting.ErrNotFound
	}
	return nil
}

func (r *SettingRepo) List(ctx context.Context) ([]domain.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []domain.Setting
	for rows.Next() {
		var s domain.Setting
		var raw []byte
		if err := rows.Scan(&s.Key, &raw); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Value); err != nil {
			return nil, fmt.Errorf("decode setting %s: %w", s.Key, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

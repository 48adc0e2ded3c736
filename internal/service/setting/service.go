package setting

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/outreach-monitor/internal/domain"
)

// Sentinel errors for the setting service layer.
var (
	ErrNotFound      = errors.New("setting not found")
	ErrNotConfigured = errors.New("webhook url not configured")
)

// Repository defines the data access contract for settings.
type Repository interface {
	// Get returns a setting by key. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, key string) (*domain.Setting, error)

	// Set upserts a setting.
	Set(ctx context.Context, s *domain.Setting) error

	// List returns all settings.
	List(ctx context.Context) ([]domain.Setting, error)

	// Delete removes a setting. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, key string) error
}

// Service exposes typed access over the key/value settings store.
type Service struct {
	repo Repository
}

// NewService creates a setting service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all settings.
func (s *Service) List(ctx context.Context) ([]domain.Setting, error) {
	return s.repo.List(ctx)
}

// Set upserts one setting.
func (s *Service) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("setting key is required")
	}
	return s.repo.Set(ctx, &domain.Setting{Key: key, Value: value})
}

// Delete removes one setting.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// GenerateWebhookURL returns the engine's draft-generation webhook URL.
// Returns ErrNotConfigured when the setting is missing or empty, so callers
// can fail fast before touching any lead or email state.
func (s *Service) GenerateWebhookURL(ctx context.Context) (string, error) {
	return s.webhookURL(ctx, domain.SettingGenerateWebhookURL)
}

// SendWebhookURL returns the engine's dispatch webhook URL.
func (s *Service) SendWebhookURL(ctx context.Context) (string, error) {
	return s.webhookURL(ctx, domain.SettingSendWebhookURL)
}

func (s *Service) webhookURL(ctx context.Context, key string) (string, error) {
	st, err := s.repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, key)
	}
	if err != nil {
		return "", err
	}
	url, ok := st.Value.(string)
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, key)
	}
	return url, nil
}

// FromAddress returns the configured outbound from address, falling back to
// the default when none is set.
func (s *Service) FromAddress(ctx context.Context) (string, error) {
	st, err := s.repo.Get(ctx, domain.SettingFromAddress)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultFromAddress, nil
	}
	if err != nil {
		return "", err
	}
	if addr, ok := st.Value.(string); ok && addr != "" {
		return addr, nil
	}
	return domain.DefaultFromAddress, nil
}

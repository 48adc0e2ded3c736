package domain

// Well-known settings keys consumed by the orchestrator.
const (
	SettingGenerateWebhookURL = "n8n_webhook_generate_url"
	SettingSendWebhookURL     = "n8n_webhook_send_url"
	SettingFromAddress        = "from_email_address"
)

// DefaultFromAddress is used when from_email_address is not configured.
const DefaultFromAddress = "you@agency.com"

// Setting is a flat key to arbitrary-JSON-value mapping.
type Setting struct {
	Key   string `json:"key" db:"key"`
	Value any    `json:"value" db:"value"`
}

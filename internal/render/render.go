// Package render resolves merge tags in outreach drafts using the Liquid
// template language.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/outreach-monitor/internal/domain"
)

// Engine renders Liquid templates against lead data, with a parse cache so
// repeated previews of the same draft don't re-parse.
type Engine struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewEngine creates a render engine with the merge-tag filters registered.
func NewEngine() *Engine {
	e := &Engine{engine: liquid.NewEngine()}

	// Fallback filter: {{ first_name | default: "there" }}
	e.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	e.engine.RegisterFilter("capitalize", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	})

	return e
}

// Render resolves the template against the lead. Missing variables render as
// empty strings, so a partially-filled lead still produces output.
func (e *Engine) Render(tmpl string, l *domain.Lead) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	t, err := e.parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	out, err := t.RenderString(bindings(l))
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// Vars lists the merge tags available to drafts.
func Vars() []string {
	return []string{
		"email", "company_name", "first_name", "last_name",
		"full_name", "name", "website", "service_type",
	}
}

func (e *Engine) parse(tmpl string) (*liquid.Template, error) {
	if cached, ok := e.cache.Load(tmpl); ok {
		return cached.(*liquid.Template), nil
	}
	t, err := e.engine.ParseString(tmpl)
	if err != nil {
		return nil, err
	}
	e.cache.Store(tmpl, t)
	return t, nil
}

func bindings(l *domain.Lead) map[string]interface{} {
	b := map[string]interface{}{
		"email":        l.Email,
		"company_name": l.CompanyName,
		"first_name":   l.FirstName,
		"last_name":    l.LastName,
		"full_name":    l.FullName,
		"name":         l.DisplayName(),
		"website":      l.Website,
		"service_type": string(l.ServiceType),
	}
	for k, v := range l.Metadata {
		if _, taken := b[k]; !taken {
			b[k] = v
		}
	}
	return b
}

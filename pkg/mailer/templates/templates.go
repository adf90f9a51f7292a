// Package templates holds the embedded email templates. Each email is three
// files: <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const ConfirmSignup = "confirm_signup"

var ErrUnknownTemplate = errors.New("unknown email template")

// EmailData defines standard fields for email templates.
type EmailData struct {
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Type     string `json:"Type"`
	AppName  string `json:"AppName"`

	ConfirmURL    string    `json:"ConfirmURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// ToMap flattens d into the map carried by EmailJob.Data.
func ToMap(d EmailData) map[string]any {
	m := map[string]any{}
	b, err := json.Marshal(d)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(b, &m)
	return m
}

// fallback supports {{ .Value | default "x" }}.
func fallback(def, value any) any {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.IsZero() {
		return def
	}
	return value
}

var funcs = map[string]any{
	"upper":   strings.ToUpper,
	"default": fallback,
}

type set struct {
	text *texttpl.Template
	html *htmpl.Template
}

var (
	loadOnce sync.Once
	loaded   set
	loadErr  error
)

func load() (set, error) {
	loadOnce.Do(func() {
		t, err := texttpl.New("").Funcs(funcs).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl")
		if err != nil {
			loadErr = fmt.Errorf("parse text templates: %w", err)
			return
		}
		h, err := htmpl.New("").Funcs(funcs).ParseFS(FS, "*.html.tmpl")
		if err != nil {
			loadErr = fmt.Errorf("parse html templates: %w", err)
			return
		}
		loaded = set{text: t, html: h}
	})
	return loaded, loadErr
}

func execText(t *texttpl.Template, name string, data any) (string, error) {
	tpl := t.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

func execHTML(t *htmpl.Template, name string, data any) (string, error) {
	tpl := t.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

// Render produces the subject, text and html bodies of the named email.
func Render(name string, data any) (subject, text, html string, err error) {
	s, err := load()
	if err != nil {
		return "", "", "", err
	}
	if subject, err = execText(s.text, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execText(s.text, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execHTML(s.html, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}

package mailer

import (
	"context"
	"net/http"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type MailgunOptions struct {
	Domain string
	APIKey string
	From   string
	// APIBase overrides the region endpoint, e.g. mg.APIBaseEU.
	APIBase string
	Timeout time.Duration
}

// Mailgun sends through one long-lived Mailgun client.
type Mailgun struct {
	client  *mg.MailgunImpl
	from    string
	timeout time.Duration
}

func NewMailgun(o MailgunOptions) *Mailgun {
	c := mg.NewMailgun(o.Domain, o.APIKey)
	if o.APIBase != "" {
		c.SetAPIBase(o.APIBase)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.SetClient(&http.Client{Timeout: timeout})
	return &Mailgun{client: c, from: o.From, timeout: timeout}
}

// Send posts one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(ctx, msg)
	return err
}

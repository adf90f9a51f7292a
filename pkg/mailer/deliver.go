package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

// ErrBadJob marks jobs that can never be delivered; retrying them is pointless.
var ErrBadJob = errors.New("bad email job")

// IsPermanent reports whether err came from the job itself rather than the transport.
func IsPermanent(err error) bool { return errors.Is(err, ErrBadJob) }

// Deliver renders job when it names a template and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	to := strings.TrimSpace(job.To)
	if to == "" {
		if v, ok := job.Data["Email"].(string); ok {
			to = strings.TrimSpace(v)
		}
	}
	if to == "" {
		return fmt.Errorf("%w: no recipient", ErrBadJob)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = tpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrBadJob)
	}
	return s.Send(ctx, to, subject, text, html)
}

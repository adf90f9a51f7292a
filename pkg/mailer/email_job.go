package mailer

// EmailJob is the queue payload consumed by the email worker. A job either
// names a Template rendered with Data, or carries Subject and Text/HTML as is.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func TemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, Template: template, Data: data}
}

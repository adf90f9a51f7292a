package templates

import "time"

// NewConfirmSignupData builds the payload for the signup confirmation email.
func NewConfirmSignupData(appName, username, email, confirmURL string, expiresAt time.Time) map[string]any {
	utc := expiresAt.UTC()
	return ToMap(EmailData{
		Username:      username,
		Email:         email,
		Type:          ConfirmSignup,
		AppName:       appName,
		ConfirmURL:    confirmURL,
		ExpiresAt:     utc,
		ExpiresAtText: utc.Format("02 January 2006, 15:04 MST"),
	})
}

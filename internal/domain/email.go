package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ConnectionEmailData holds data for the new-connection notification.
type ConnectionEmailData struct {
	Email         string
	FirstName     string
	FromFirstName string
	FromLastName  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendConnectionNotice(ctx context.Context, data *ConnectionEmailData) error
}

package services

import (
	"context"
	"fmt"
	"log"

	"campusevents/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendConnectionNotice tells a user that someone connected with them, using the "connection" template.
func (s *emailService) SendConnectionNotice(ctx context.Context, data *domain.ConnectionEmailData) error {
	if data == nil {
		return fmt.Errorf("connection email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("connection", data)
	if err != nil {
		return fmt.Errorf("failed to render connection template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send connection email: %w", err)
	}
	log.Printf("[EMAIL] Connection notice sent to %s", data.Email)
	return nil
}

package services

import (
	"context"
	"testing"

	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html, text})
	return nil
}

type fakeRenderer struct {
	rendered []string
	err      error
}

func (r *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if r.err != nil {
		return "", "", "", r.err
	}
	r.rendered = append(r.rendered, name)
	return "subject", "<p>html</p>", "text", nil
}

func TestEmailService_SendConnectionNotice(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendConnectionNotice(context.Background(), &domain.ConnectionEmailData{Email: "b@uni.edu", FirstName: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, []string{"connection"}, renderer.rendered)
	assert.Equal(t, []sentMail{{"b@uni.edu", "subject", "<p>html</p>", "text"}}, mailer.sent)
}

func TestEmailService_SendConnectionNotice_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      *domain.ConnectionEmailData
		renderErr error
		sendErr   error
	}{
		{name: "nil data"},
		{name: "render fails", data: &domain.ConnectionEmailData{Email: "b@uni.edu"}, renderErr: errBoom},
		{name: "send fails", data: &domain.ConnectionEmailData{Email: "b@uni.edu"}, sendErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{err: tt.sendErr}
			svc := NewEmailService(mailer, &fakeRenderer{err: tt.renderErr})

			err := svc.SendConnectionNotice(context.Background(), tt.data)
			assert.Error(t, err)
			assert.Empty(t, mailer.sent)
		})
	}
}

package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationMessageHeaders(t *testing.T) {
	m := VerificationMessage("noreply@ratemy.dev", "ada@example.com", "Ada", "https://ratemy.dev/verify/abc")

	assert.Equal(t, []string{"noreply@ratemy.dev"}, m.GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{verificationSubject}, m.GetHeader("Subject"))
}

func TestVerificationMessageEscapesName(t *testing.T) {
	m := VerificationMessage("a@b.c", "x@y.z", "<script>", "https://ratemy.dev/verify/abc")

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestNewWithoutHostOnlyLogs(t *testing.T) {
	s := New(config.SMTPConfig{})
	_, ok := s.(logOnly)
	require.True(t, ok)
	assert.NoError(t, s.SendVerification(context.Background(), "ada@example.com", "Ada", "link"))
}

func TestNewWithHostUsesSMTP(t *testing.T) {
	s := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	smtp, ok := s.(*SMTP)
	require.True(t, ok)
	assert.Equal(t, "noreply@example.com", smtp.from)
}

func TestSendVerificationHonoursCancelledContext(t *testing.T) {
	s := New(config.SMTPConfig{Host: "smtp.invalid", Port: 25})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SendVerification(ctx, "a@b.c", "A", "link"), context.Canceled)
}

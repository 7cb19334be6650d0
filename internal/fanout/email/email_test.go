package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/platform/config"
)

func TestCompose(t *testing.T) {
	raw, err := Compose("no-reply@sankalp.local", Message{
		To:      "asha@example.org",
		Subject: "Your question has been answered",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
	}, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "To: asha@example.org\r\n")
	assert.Contains(t, s, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, s, "text/plain; charset=utf-8")
	assert.Contains(t, s, "<p>Hello</p>")
	assert.Less(t, strings.Index(s, "text/plain"), strings.Index(s, "text/html"), "plain part comes first")
}

func TestSMTPSender(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.org", Port: 2525, From: "no-reply@sankalp.local"})

	var gotAddr string
	var gotTo []string
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		gotAddr, gotTo = addr, to
		return nil
	}
	require.NoError(t, s.Send(context.Background(), Message{To: "meera@example.org", Subject: "s"}))
	assert.Equal(t, "smtp.example.org:2525", gotAddr)
	assert.Equal(t, []string{"meera@example.org"}, gotTo)

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	err := s.Send(context.Background(), Message{To: "meera@example.org"})
	assert.ErrorContains(t, err, "relay down")
}

package services

import (
	"net/smtp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"veryus/internal/config"
)

func TestMailServiceDisabledWithoutSettings(t *testing.T) {
	s := NewMailService(config.MailConfig{Host: "smtp.example.com"}, zerolog.Nop())
	assert.False(t, s.Enabled)

	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil }
	s.SendPasswordResetEmail("a@veryus.kr", "a", "123456", 30)
	assert.False(t, called)
}

func TestSendPasswordResetEmail(t *testing.T) {
	cfg := config.MailConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "noreply@veryus.kr"}
	s := NewMailService(cfg, zerolog.Nop())
	assert.True(t, s.Enabled)

	sent := make(chan []byte, 1)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Equal(t, "noreply@veryus.kr", from)
		assert.Equal(t, []string{"a@veryus.kr"}, to)
		sent <- msg
		return nil
	}

	s.SendPasswordResetEmail("a@veryus.kr", "Ari", "123456", 30)

	select {
	case msg := <-sent:
		assert.Contains(t, string(msg), "Subject: [VERYUS] Password reset code")
		assert.Contains(t, string(msg), "<strong>123456</strong>")
		assert.Contains(t, string(msg), "Hello Ari")
	case <-time.After(time.Second):
		t.Fatal("mail not sent")
	}
}

package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"veryus/internal/config"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hello {{.Nickname}},</p>
<p>Your VERYUS password reset code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not ask for it, ignore this mail.</p>`))

type MailService struct {
	cfg     config.MailConfig
	log     zerolog.Logger
	Enabled bool

	// send is smtp.SendMail outside tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.MailConfig, log zerolog.Logger) *MailService {
	s := &MailService{
		cfg:     cfg,
		log:     log.With().Str("component", "mail").Logger(),
		Enabled: cfg.Enabled(),
		send:    smtp.SendMail,
	}
	if !s.Enabled {
		s.log.Warn().Msg("mail service disabled: missing SMTP settings")
	}
	return s
}

func (s *MailService) message(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: VERYUS <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
		if err := s.send(addr, auth, s.cfg.From, to, s.message(to, subject, body)); err != nil {
			s.log.Error().Err(err).Strs("to", to).Msg("send mail failed")
			return
		}
		s.log.Info().Strs("to", to).Str("subject", subject).Msg("mail sent")
	}()
}

// SendPasswordResetEmail mails a reset code valid for minutes.
func (s *MailService) SendPasswordResetEmail(email, nickname, code string, minutes int) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, map[string]any{
		"Nickname": nickname,
		"Code":     code,
		"Minutes":  minutes,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("render reset mail")
		return
	}
	s.sendAsync([]string{email}, "[VERYUS] Password reset code", buf.String())
}

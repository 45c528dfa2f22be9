package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/logger"
	"gopkg.in/gomail.v2"
)

// OTPMessage is a one-time passcode bound for a user.
type OTPMessage struct {
	Email       string
	PhoneNumber string
	FullName    string
	Code        string
	ExpiresIn   string
}

// Sender delivers passcodes out of band. Codes never go into HTTP responses.
type Sender interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

func NewSender(cfg config.NotifyConfig, logg *logger.Logger) Sender {
	if strings.EqualFold(cfg.Channel, "email") {
		return NewEmailSender(cfg)
	}
	return NewLogSender(logg)
}

// LogSender writes the code to the structured log. Development only.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) SendOTP(ctx context.Context, msg OTPMessage) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"phone": msg.PhoneNumber,
		"otp":   msg.Code,
	})
	s.logg.Info(ctx, "notify.otp")
	return nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	from   string
	dialer dialer
}

func NewEmailSender(cfg config.NotifyConfig) *EmailSender {
	return &EmailSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *EmailSender) SendOTP(_ context.Context, msg OTPMessage) error {
	if msg.Email == "" {
		return fmt.Errorf("send otp: recipient has no email")
	}
	body, err := renderOTPBody(msg)
	if err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.Email)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

var otpBodyTpl = template.Must(template.New("otp").Parse(`<p>Hi {{.Name}},</p>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.ExpiresIn}}.</p>`))

func renderOTPBody(msg OTPMessage) (string, error) {
	name := msg.FullName
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	err := otpBodyTpl.Execute(&buf, struct{ Name, Code, ExpiresIn string }{name, msg.Code, msg.ExpiresIn})
	if err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}

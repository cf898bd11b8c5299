package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/sahilrms/lab-master/internal/config"
)

// Service sends patient-facing notifications. Delivery failures are the
// caller's concern only insofar as logging; lab operations never fail
// because an email bounced.
type Service interface {
	SendTestCompleted(ctx context.Context, to string, testType string, result string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type service struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	logger *zerolog.Logger
}

func NewService(cfg config.SMTPConfig, logger *zerolog.Logger) Service {
	return &service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

func (s *service) SendTestCompleted(ctx context.Context, to string, testType string, result string) error {
	subject := fmt.Sprintf("Your %s results are ready", testType)
	body := fmt.Sprintf(
		"Hello,\n\nYour %s has been completed. Result summary:\n\n%s\n\nPlease contact the laboratory for the full report.",
		testType, result,
	)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *service) SendCustom(_ context.Context, to string, subject string, content string) error {
	if !s.cfg.Enabled {
		s.logger.Debug().Str("to", to).Str("subject", subject).Msg("smtp disabled, skipping email")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

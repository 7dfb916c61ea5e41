// Package services отправляет HTML-письма через SMTP-транспорт.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/lib/smtp"
)

// SenderService отправляет письма по одному соединению на письмо.
type SenderService struct {
	transport smtp.Dialer
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.Dialer, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendHTML отправляет одно HTML-письмо получателю to.
func (s *SenderService) SendHTML(ctx context.Context, to, subject, html string) error {
	const op = "sender.SendHTML"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sendEmail(to, subject, html); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func buildMessage(from, to, subject, html string, now time.Time) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n")
}

func (s *SenderService) sendEmail(to, subject, html string) error {
	from := s.transport.Sender()
	msg := buildMessage(from, to, subject, html, time.Now())

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		_ = wc.Close()
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Warn("failed to quit SMTP client", sl.Err(err))
	}

	s.log.Debug("email sent", slog.String("to", to))
	return nil
}

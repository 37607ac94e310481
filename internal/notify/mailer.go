package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hr-data-api/internal/config"
)

// Mail - готовое к отправке письмо
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer отправляет письма
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// NewMailer выбирает SMTP, если задан хост, иначе пишет письма в лог
func NewMailer(cfg config.MailConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer отправляет письма через net/smtp
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer создаёт SMTP-отправитель
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{mail.To}, buildMessage(m.from, mail)); err != nil {
		return fmt.Errorf("send mail to %s: %w", mail.To, err)
	}
	return nil
}

func buildMessage(from string, mail Mail) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + mail.To + "\r\n")
	b.WriteString("Subject: " + mail.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(mail.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer пишет письма в лог вместо отправки
type LogMailer struct {
	logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, mail Mail) error {
	m.logger.Info("mail",
		slog.String("to", mail.To),
		slog.String("subject", mail.Subject),
		slog.String("body", mail.Body),
	)
	return nil
}

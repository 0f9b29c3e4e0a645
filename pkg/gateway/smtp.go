package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends html mail through a submission server with PLAIN auth.
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
	logger   *zap.Logger
}

func NewSMTPMailer(cfg common.SMTPConfig) *SMTPMailer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		host:     cfg.Host,
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
		logger:   common.GetLoggerWith(common.LoggerNameGateway, zap.String("provider", "smtp")),
	}
}

func (m *SMTPMailer) buildMessage(id, to, subject, html string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", id, m.host)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return b.Bytes()
}

// SendEmail returns the generated Message-ID. net/smtp has no context support, so ctx is only
// checked before the dial.
func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, html string) (string, error) {
	if m.host == "" {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	msg := m.buildMessage(id, to, subject, html, time.Now())
	if err := m.sendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return "", fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	m.logger.Info("Email sent", zap.String("message_id", id), zap.String("to", to))
	return id, nil
}

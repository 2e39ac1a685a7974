package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/skillcompass/skillcompass/pkg/config"
)

// EmailChannel delivers notifications over SMTP
type EmailChannel struct {
	config config.EmailConfig
	logger *zap.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates an SMTP-backed email channel.
func NewEmailChannel(cfg config.EmailConfig, logger *zap.Logger) *EmailChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailChannel{
		config: cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Configured reports whether an SMTP host is set.
func (c *EmailChannel) Configured() bool {
	return c.config.SMTPHost != ""
}

func (c *EmailChannel) Type() string {
	return "email"
}

// Send delivers the message to the recipient address.
func (c *EmailChannel) Send(ctx context.Context, recipient string, message Message) error {
	if !c.Configured() {
		return fmt.Errorf("SMTP host is not configured")
	}
	if recipient == "" {
		return fmt.Errorf("recipient address is empty")
	}

	var auth smtp.Auth
	if c.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", c.config.SMTPUsername, c.config.SMTPPassword, c.config.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", c.config.SMTPHost, c.config.SMTPPort)
	raw := buildRawEmail(c.config.From, recipient, message)

	if err := c.send(addr, auth, c.config.From, []string{recipient}, raw); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	c.logger.Debug("email sent",
		zap.String("to", recipient),
		zap.String("smtp_host", c.config.SMTPHost))
	return nil
}

func buildRawEmail(from, to string, message Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", message.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(message.Body)
	return []byte(b.String())
}

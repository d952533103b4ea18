package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"supwatch/internal/config"
	"supwatch/internal/logger"
	"supwatch/internal/models"
)

// sendFunc matches smtp.SendMail, injected for testing.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier delivers scan reports by email. It consumes the engine's
// result map; when every supplier came back empty there is nothing to
// report and no mail is sent.
type Notifier struct {
	cfg    config.EmailConfig
	send   sendFunc
	now    func() time.Time
	logger *logger.Logger
}

// NewNotifier creates an SMTP-backed notifier.
func NewNotifier(cfg config.EmailConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		send:   smtp.SendMail,
		now:    time.Now,
		logger: log,
	}
}

// NewNotifierWithDeps creates a notifier with an injected send function
// and clock, useful for testing.
func NewNotifierWithDeps(cfg config.EmailConfig, send sendFunc, now func() time.Time, log *logger.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		send:   send,
		now:    now,
		logger: log,
	}
}

// Send mails the report for one scan. Sending nothing when no supplier
// produced content is part of the contract, not an error.
func (n *Notifier) Send(results models.ScanResult) error {
	if !results.HasContent() {
		n.logger.Info("no new content to report, skipping email")

		return nil
	}

	n.logger.Info("sending scan report",
		"to", n.cfg.ToEmail,
		"server", n.cfg.SMTPServer,
	)

	msg := n.buildMessage(results)
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPServer, n.cfg.SMTPPort)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPServer)
	}

	if err := n.send(addr, auth, n.cfg.FromEmail, []string{n.cfg.ToEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email notification: %w", err)
	}

	n.logger.Info("email notification sent")

	return nil
}

func (n *Notifier) buildMessage(results models.ScanResult) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", n.cfg.ToEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", RenderSubject(n.now()))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(RenderBody(results))

	return []byte(b.String())
}

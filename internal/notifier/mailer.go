package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/wneessen/go-mail"

	"github.com/capmon/capmon/internal/config"
	"github.com/capmon/capmon/pkg/models"
)

const alertSubject = "Mediacom Data Usage Warning"

// Mailer sends usage alerts over SMTPS to a single configured address,
// which is both sender and recipient.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a mailer from the SMTP settings
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Notify sends a plain-text alert carrying both observations
func (m *Mailer) Notify(ctx context.Context, current, previous models.Observation) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Address); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(m.cfg.Address); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(alertSubject)
	msg.SetBodyString(mail.TypeTextPlain, FormatAlert(current, previous))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.GetPort()),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}

	return nil
}

// FormatAlert renders the plain-text alert body with both observations
func FormatAlert(current, previous models.Observation) string {
	var b strings.Builder
	b.WriteString("New data usage reported by Mediacom.\n\n")
	b.WriteString("Current usage:\n")
	writeObservation(&b, current)
	b.WriteString("\nPrevious usage:\n")
	writeObservation(&b, previous)
	return b.String()
}

func writeObservation(b *strings.Builder, o models.Observation) {
	if o.IsZero() {
		b.WriteString("  (no prior data)\n")
		return
	}

	fmt.Fprintf(b, "  As of:     %s\n", o.ObservedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "  Total:     %s GB\n", humanize.Commaf(o.TotalGB))
	fmt.Fprintf(b, "  Upload:    %s GB\n", humanize.Commaf(o.UploadGB))
	fmt.Fprintf(b, "  Download:  %s GB\n", humanize.Commaf(o.DownloadGB))
	if o.AllowanceGB > 0 {
		fmt.Fprintf(b, "  Allowance: %s GB (%s GB expected to date)\n",
			humanize.Commaf(o.AllowanceGB), humanize.Commaf(o.AllowanceToDate))
	}
	if !o.PeriodStart.IsZero() {
		fmt.Fprintf(b, "  Billing period: %s - %s\n",
			o.PeriodStart.Format("2006-01-02"), o.PeriodEnd.Format("2006-01-02"))
	}
}

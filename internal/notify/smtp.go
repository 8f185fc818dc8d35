package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	mail "github.com/wneessen/go-mail"
)

// SMTPConfig holds connection settings for direct mail submission.
// Port 465 with SSL is the battle-tested combination against PaaS request
// timeouts: implicit TLS avoids the slow STARTTLS negotiation path.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL selects implicit TLS (port 465). When false the client uses
	// STARTTLS on the configured port.
	SSL bool
	// Timeout bounds dial and IO on the SMTP connection.
	Timeout time.Duration
}

// SMTPTransport delivers receipts over SMTP using a fresh connection per
// send. Volume is a handful of receipts per day; connection reuse is not
// worth keeping an idle session alive through provider idle-kills.
type SMTPTransport struct {
	cfg SMTPConfig
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPTransport{cfg: cfg}
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return errors.Wrap(err, "set sender")
	}
	recipients := []string{msg.Recipient}
	if msg.OperatorCopy != "" && msg.OperatorCopy != msg.Recipient {
		recipients = append(recipients, msg.OperatorCopy)
	}
	if err := m.To(recipients...); err != nil {
		return errors.Wrap(err, "set recipients")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.Username),
		mail.WithPassword(t.cfg.Password),
	}
	if t.cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	c, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrapf(err, "send via %s:%d", t.cfg.Host, t.cfg.Port)
	}
	return nil
}

package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/bakkerme/trendwatch/internal/outputs/email"
	mail "github.com/wneessen/go-mail"
)

// TLSMode determines how the SMTP client should negotiate TLS.
type TLSMode string

const (
	// TLSModeAuto uses port-based defaults (implicit TLS on 465, STARTTLS otherwise).
	TLSModeAuto TLSMode = "auto"
	// TLSModeDisabled forces cleartext SMTP.
	TLSModeDisabled TLSMode = "disabled"
	// TLSModeStartTLS requires STARTTLS on the SMTP connection.
	TLSModeStartTLS TLSMode = "starttls"
	// TLSModeImplicit uses implicit TLS (SMTPS), typically on port 465.
	TLSModeImplicit TLSMode = "implicit"
)

type Sender struct {
	host               string
	port               int
	username           string
	password           string
	tlsMode            string
	insecureSkipVerify bool
}

// NewSender creates an SMTP sender with explicit TLS mode support.
// The tlsMode value is optional; if empty, port-based defaults apply.
func NewSender(host string, port int, username, password string, tlsMode string, insecureSkipVerify bool) *Sender {
	return &Sender{
		host:               host,
		port:               port,
		username:           username,
		password:           password,
		tlsMode:            tlsMode,
		insecureSkipVerify: insecureSkipVerify,
	}
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if message.From == "" {
		message.From = s.username
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m := mail.NewMsg()
	if err := m.From(message.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", message.From, err)
	}
	if err := m.ToFromString(message.To); err != nil {
		return fmt.Errorf("invalid to address(es) %q: %w", message.To, err)
	}
	m.Subject(message.Subject)
	m.SetBodyString(mail.TypeTextHTML, message.Body)
	if err := m.EnvelopeFrom(message.From); err != nil {
		return fmt.Errorf("invalid envelope from address %q: %w", message.From, err)
	}

	mode, err := s.resolveTLSMode()
	if err != nil {
		return err
	}

	clientOpts := []mail.Option{
		mail.WithPort(s.port),
		// Allow self-signed or otherwise invalid TLS certs when explicitly configured.
		mail.WithTLSConfig(&tls.Config{
			ServerName:         s.host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: s.insecureSkipVerify,
		}),
	}

	switch mode {
	case TLSModeDisabled:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	case TLSModeStartTLS:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case TLSModeImplicit:
		clientOpts = append(clientOpts, mail.WithSSL())
	default:
		return fmt.Errorf("unsupported smtp tls mode %q", mode)
	}

	if s.username != "" {
		clientOpts = append(
			clientOpts,
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	client, err := mail.NewClient(s.host, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// resolveTLSMode returns the configured TLS behavior, falling back to port defaults.
func (s *Sender) resolveTLSMode() (TLSMode, error) {
	mode, err := parseTLSMode(s.tlsMode)
	if err != nil {
		return "", err
	}
	if mode == TLSModeAuto {
		if s.port == 465 {
			return TLSModeImplicit, nil
		}
		return TLSModeStartTLS, nil
	}
	return mode, nil
}

// parseTLSMode normalizes the TLS mode string and validates supported values.
func parseTLSMode(mode string) (TLSMode, error) {
	normalized := strings.TrimSpace(strings.ToLower(mode))
	if normalized == "" || normalized == string(TLSModeAuto) {
		return TLSModeAuto, nil
	}
	switch normalized {
	case "disabled", "off", "none":
		return TLSModeDisabled, nil
	case "starttls", "start_tls":
		return TLSModeStartTLS, nil
	case "implicit", "smtptls", "smtp_tls":
		return TLSModeImplicit, nil
	default:
		return "", fmt.Errorf("invalid smtp tls mode %q (expected: auto, disabled/off/none, starttls/start_tls, implicit/smtptls/smtp_tls)", mode)
	}
}

func ValidateConfig(host string, port int) error {
	if host == "" {
		return fmt.Errorf("smtp host is required")
	}
	if port <= 0 {
		return fmt.Errorf("smtp port must be positive")
	}
	return nil
}

// Package mail entrega los correos encolados por la aplicación (lo usa el worker).
package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/pkg/config"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var (
	_ ports.Mailer = (*SMTPMailer)(nil)
	_ ports.Mailer = (*LogMailer)(nil)
)

// ErrNoRecipients el mensaje no tiene destinatarios.
var ErrNoRecipients = errors.New("correo sin destinatarios")

// SMTPMailer envía por SMTP con gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New devuelve un SMTPMailer si hay credenciales; si no, un LogMailer que solo registra.
func New(cfg config.EmailConfig, log *logger.Logger) ports.Mailer {
	if !cfg.Enabled() {
		log.Warn().Msg("EMAIL_HOST/EMAIL_USER no configurados: los correos solo se registran")
		return &LogMailer{log: log}
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   from,
	}
}

// Send arma el mensaje y lo entrega. gomail no acepta contexto: se respeta una cancelación previa.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := Compose(m.from, msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// Compose construye el mensaje HTML.
func Compose(from string, msg ports.EmailMessage) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", gm.FormatAddress(from, "Apothecary"))
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)
	return gm, nil
}

// LogMailer registra el correo en lugar de enviarlo (desarrollo y entornos sin SMTP).
type LogMailer struct {
	log *logger.Logger
}

func (m *LogMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	m.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("correo (no enviado: SMTP deshabilitado)")
	return nil
}

package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"campus-events-backend/config"
	"campus-events-backend/models"

	"github.com/domodwyer/mailyak/v3"
	"github.com/rs/zerolog/log"
)

// SMTPMailer envoie les emails via SMTP
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
}

// NewSMTPMailer crée un mailer SMTP
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		auth:     auth,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// Send envoie une enveloppe (HTML + texte brut)
func (m *SMTPMailer) Send(ctx context.Context, envelope models.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := mailyak.New(m.addr, m.auth)
	mail.To(envelope.To)
	mail.From(m.from)
	mail.FromName(m.fromName)
	mail.Subject(envelope.Subject)
	mail.HTML().Set(envelope.HTML)
	mail.Plain().Set(envelope.Text)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("envoi SMTP à %s: %w", envelope.To, err)
	}
	return nil
}

// LogMailer journalise les emails au lieu de les envoyer (SMTP non configuré)
type LogMailer struct{}

// NewLogMailer crée un mailer de développement
func NewLogMailer() *LogMailer {
	log.Warn().Msg("⚠️  SMTP non configuré, les emails seront seulement journalisés")
	return &LogMailer{}
}

// Send journalise l'enveloppe
func (m *LogMailer) Send(_ context.Context, envelope models.Envelope) error {
	log.Info().Str("to", envelope.To).Str("subject", envelope.Subject).Msg("📧 Email (non envoyé)")
	return nil
}

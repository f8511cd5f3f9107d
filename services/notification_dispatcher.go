package services

import (
	"context"
	"fmt"

	"campus-events-backend/models"
	"campus-events-backend/monitoring"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationDispatcher envoie les reçus et les avis d'échec de paiement.
// Les erreurs sont journalisées et jamais remontées aux appelants.
type NotificationDispatcher struct {
	registrations RegistrationStore
	users         UserFinder
	events        EventFinder
	mailer        Mailer
	currency      string
	frontendURL   string
}

// NewNotificationDispatcher crée le dispatcher
func NewNotificationDispatcher(registrations RegistrationStore, users UserFinder, events EventFinder, mailer Mailer, currency, frontendURL string) *NotificationDispatcher {
	return &NotificationDispatcher{
		registrations: registrations,
		users:         users,
		events:        events,
		mailer:        mailer,
		currency:      currency,
		frontendURL:   frontendURL,
	}
}

// Handle exécute une tâche de la file de notifications
func (d *NotificationDispatcher) Handle(ctx context.Context, task models.NotificationTask) error {
	id, err := primitive.ObjectIDFromHex(task.RegistrationID)
	if err != nil {
		return fmt.Errorf("identifiant d'inscription invalide %q: %w", task.RegistrationID, err)
	}
	reg, err := d.registrations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if reg == nil {
		log.Warn().Str("registration_id", task.RegistrationID).Str("kind", task.Kind).Msg("⚠️  Inscription supprimée avant l'envoi de la notification")
		return nil
	}

	switch task.Kind {
	case models.TaskReceipt:
		d.SendReceipt(ctx, reg)
	case models.TaskResendReceipt:
		d.ResendReceipt(ctx, reg)
	case models.TaskFailureNotice:
		reason := task.Reason
		if reason == "" {
			reason = reg.FailureReason
		}
		d.SendFailureNotice(ctx, reg, reason)
	default:
		return fmt.Errorf("type de tâche inconnu: %s", task.Kind)
	}
	return nil
}

// SendReceipt envoie le reçu une seule fois : sans effet si le paiement n'est pas finalisé
// ou si email_sent est déjà positionné.
func (d *NotificationDispatcher) SendReceipt(ctx context.Context, reg *models.Registration) {
	if reg.PaymentStatus != models.PaymentCompleted || reg.EmailSent {
		return
	}
	reg.EmailSent = d.dispatchOnce(ctx, reg, models.TaskReceipt, models.FlagEmailSent, "")
}

// ResendReceipt renvoie le reçu sans tenir compte de email_sent (demande explicite)
func (d *NotificationDispatcher) ResendReceipt(ctx context.Context, reg *models.Registration) {
	if reg.PaymentStatus != models.PaymentCompleted {
		return
	}
	if d.send(ctx, reg, models.TaskReceipt, "") == 0 {
		return
	}
	if err := d.registrations.MarkEmailSent(ctx, reg.ID); err != nil {
		log.Error().Err(err).Str("registration_id", reg.ID.Hex()).Msg("❌ Impossible d'enregistrer l'envoi du reçu")
		return
	}
	reg.EmailSent = true
}

// SendFailureNotice prévient les participants de l'échec du paiement, une seule fois
func (d *NotificationDispatcher) SendFailureNotice(ctx context.Context, reg *models.Registration, reason string) {
	if reg.FailureEmailSent {
		return
	}
	reg.FailureEmailSent = d.dispatchOnce(ctx, reg, models.TaskFailureNotice, models.FlagFailureEmailSent, reason)
}

// dispatchOnce réclame le drapeau avant l'envoi pour qu'un seul appelant concurrent envoie.
// Le drapeau est relâché si aucun destinataire n'a reçu l'email, pour que le balayage réessaie.
// Retourne l'état final du drapeau.
func (d *NotificationDispatcher) dispatchOnce(ctx context.Context, reg *models.Registration, kind, flag, reason string) bool {
	logger := log.With().Str("registration_id", reg.ID.Hex()).Str("kind", kind).Logger()

	claimed, err := d.registrations.ClaimNotification(ctx, reg.ID, flag)
	if err != nil {
		logger.Error().Err(err).Msg("❌ Impossible de réserver l'envoi")
		return false
	}
	if !claimed {
		logger.Debug().Msg("Notification déjà envoyée")
		return true
	}

	if d.send(ctx, reg, kind, reason) > 0 {
		return true
	}
	if err := d.registrations.ReleaseNotification(ctx, reg.ID, flag); err != nil {
		logger.Error().Err(err).Msg("❌ Impossible de relâcher le drapeau de notification")
		return true
	}
	return false
}

// send envoie l'email à chaque destinataire et retourne le nombre d'envois réussis
func (d *NotificationDispatcher) send(ctx context.Context, reg *models.Registration, kind, reason string) int {
	logger := log.With().Str("registration_id", reg.ID.Hex()).Str("kind", kind).Logger()

	to := d.Recipients(ctx, reg)
	if len(to) == 0 {
		logger.Warn().Msg("⚠️  Aucun destinataire pour la notification")
		return 0
	}

	eventName := reg.EventID.Hex()
	if event, err := d.events.FindByID(ctx, reg.EventID); err != nil {
		logger.Warn().Err(err).Msg("⚠️  Événement introuvable pour le modèle d'email")
	} else if event != nil {
		eventName = event.Name
	}

	data := newEmailData(reg, eventName, d.currency, d.frontendURL)
	if reason != "" {
		data.Reason = reason
	}
	subject, html, text, err := render(kind, data)
	if err != nil {
		logger.Error().Err(err).Msg("❌ Rendu de l'email impossible")
		return 0
	}

	sent := 0
	for _, email := range to {
		err := d.mailer.Send(ctx, models.Envelope{To: email, Subject: subject, HTML: html, Text: text})
		monitoring.TrackEmail(kind, err == nil)
		if err != nil {
			logger.Error().Err(err).Str("to", email).Msg("❌ Échec d'envoi de l'email")
			continue
		}
		sent++
	}

	logger.Info().Int("sent", sent).Int("recipients", len(to)).Msg("📧 Notification envoyée")
	return sent
}

// Recipients retourne le propriétaire et les membres de l'équipe, sans doublon ni email vide
func (d *NotificationDispatcher) Recipients(ctx context.Context, reg *models.Registration) []string {
	owner := ""
	user, err := d.users.FindByID(ctx, reg.UserID)
	if err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID.Hex()).Msg("⚠️  Propriétaire de l'inscription introuvable")
	} else if user != nil {
		owner = user.Email
	}
	return recipients(owner, reg.TeamMembers)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"campus-events-backend/models"
	"campus-events-backend/monitoring"

	"github.com/rs/zerolog/log"
)

// PaymentReconciler applique les transitions de paiement et déclenche les notifications
type PaymentReconciler struct {
	registrations RegistrationStore
	gateway       PaymentGateway
	queue         NotificationQueue
	dedup         EventDeduplicator
}

// NewPaymentReconciler crée le réconciliateur. dedup peut être nil.
func NewPaymentReconciler(registrations RegistrationStore, gateway PaymentGateway, queue NotificationQueue, dedup EventDeduplicator) *PaymentReconciler {
	return &PaymentReconciler{
		registrations: registrations,
		gateway:       gateway,
		queue:         queue,
		dedup:         dedup,
	}
}

// HandleWebhook vérifie puis traite un appel webhook du processeur.
// Seule une signature invalide est retournée comme ErrInvalidSignature ; les types inconnus sont ignorés.
func (p *PaymentReconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := p.gateway.ParseWebhook(payload, signature)
	if err != nil {
		monitoring.TrackWebhook("unknown", "invalid")
		return err
	}

	logger := log.With().Str("webhook_id", event.ID).Str("type", event.Type).Str("intent_id", event.IntentID).Logger()

	var paymentEvent models.PaymentEvent
	switch event.Type {
	case models.WebhookPaymentSucceeded:
		paymentEvent = models.PaymentSucceeded
	case models.WebhookPaymentFailed:
		paymentEvent = models.PaymentRejected
	default:
		monitoring.TrackWebhook(event.Type, "ignored")
		return nil
	}

	if p.dedup != nil && event.ID != "" {
		fresh, err := p.dedup.Claim(ctx, event.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("⚠️  Déduplication indisponible, traitement normal")
		} else if !fresh {
			logger.Info().Msg("Webhook déjà traité, ignoré")
			monitoring.TrackWebhook(event.Type, "duplicate")
			return nil
		}
	}

	if err := p.reconcile(ctx, event, paymentEvent); err != nil {
		if p.dedup != nil && event.ID != "" {
			p.dedup.Release(ctx, event.ID)
		}
		monitoring.TrackWebhook(event.Type, "error")
		return err
	}

	monitoring.TrackWebhook(event.Type, "processed")
	return nil
}

func (p *PaymentReconciler) reconcile(ctx context.Context, event *models.WebhookEvent, paymentEvent models.PaymentEvent) error {
	reg, err := p.registrations.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil {
		return fmt.Errorf("recherche de l'inscription pour l'intention %s: %w", event.IntentID, err)
	}
	if reg == nil {
		log.Warn().Str("intent_id", event.IntentID).Msg("⚠️  Aucune inscription pour cette intention de paiement")
		return nil
	}

	_, err = p.Apply(ctx, reg, paymentEvent, event.ChargeID, event.FailureMessage)
	if errors.Is(err, ErrInvalidTransition) {
		// completed -> failed ou failed -> completed : l'état terminal est conservé
		log.Warn().
			Str("registration_id", reg.ID.Hex()).
			Str("status", string(reg.PaymentStatus)).
			Str("event", string(paymentEvent)).
			Msg("⚠️  Transition refusée, inscription déjà dans un état terminal")
		return nil
	}
	return err
}

// Apply fait passer l'inscription par la machine à états et met en file la notification correspondante.
// changed vaut false pour un rejeu ; la notification est tout de même proposée, son drapeau fait foi.
func (p *PaymentReconciler) Apply(ctx context.Context, reg *models.Registration, event models.PaymentEvent, paymentID, reason string) (bool, error) {
	from := reg.PaymentStatus
	to, changed, err := models.Transition(from, event)
	if err != nil {
		return false, err
	}

	if changed {
		updated, err := p.registrations.UpdatePaymentStatus(ctx, reg.ID, from, to, paymentID, reason)
		if err != nil {
			return false, err
		}
		if !updated {
			// Un autre appelant a changé le statut entre la lecture et l'écriture
			current, err := p.registrations.FindByID(ctx, reg.ID)
			if err != nil {
				return false, err
			}
			if current == nil {
				return false, ErrRegistrationNotFound
			}
			*reg = *current
			if _, _, err := models.Transition(reg.PaymentStatus, event); err != nil {
				return false, err
			}
			changed = false
		} else {
			reg.PaymentStatus = to
			if paymentID != "" {
				reg.PaymentID = paymentID
			}
			if reason != "" {
				reg.FailureReason = reason
			}
			monitoring.TrackTransition(string(from), string(to))
			log.Info().
				Str("registration_id", reg.ID.Hex()).
				Str("from", string(from)).
				Str("to", string(to)).
				Msg("✓ Statut de paiement mis à jour")
		}
	}

	task := models.NotificationTask{Kind: models.TaskReceipt, RegistrationID: reg.ID.Hex()}
	if reg.PaymentStatus == models.PaymentFailed {
		task = models.NotificationTask{Kind: models.TaskFailureNotice, RegistrationID: reg.ID.Hex(), Reason: reg.FailureReason}
	}
	if err := p.queue.Enqueue(ctx, task); err != nil {
		log.Error().Err(err).Str("registration_id", reg.ID.Hex()).Msg("❌ Mise en file de la notification impossible")
	}

	return changed, nil
}

// Refresh interroge le processeur pour une inscription encore en attente et
// la finalise si le paiement a réussi sans que le webhook soit arrivé.
func (p *PaymentReconciler) Refresh(ctx context.Context, reg *models.Registration) (*models.PaymentIntent, error) {
	if reg.PaymentStatus != models.PaymentPending || reg.PaymentIntentID == "" {
		return nil, nil
	}

	intent, err := p.gateway.RetrieveIntent(ctx, reg.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("lecture de l'intention %s: %w", reg.PaymentIntentID, err)
	}

	if intent.Status == models.IntentStatusSucceeded {
		log.Info().Str("registration_id", reg.ID.Hex()).Msg("Paiement confirmé par le processeur, webhook manquant")
		if _, err := p.Apply(ctx, reg, models.PaymentSucceeded, intent.ChargeID, ""); err != nil {
			return intent, err
		}
	}
	return intent, nil
}

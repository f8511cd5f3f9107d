package services

import (
	"context"
	"time"

	"campus-events-backend/models"
	"campus-events-backend/monitoring"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	staleSweepSpec = "@every 5m"
	sweepBatchSize = 100
)

// Housekeeping regroupe les balayages périodiques des inscriptions
type Housekeeping struct {
	registrations RegistrationStore
	gateway       PaymentGateway
	payments      *PaymentReconciler
	dispatcher    *NotificationDispatcher
	pendingTTL    time.Duration
	autoNotify    bool
	interval      time.Duration
	cron          *cron.Cron
	now           func() time.Time
}

// NewHousekeeping crée les balayages. Le balayage des reçus ne tourne que si autoNotify est actif.
func NewHousekeeping(registrations RegistrationStore, gateway PaymentGateway, payments *PaymentReconciler,
	dispatcher *NotificationDispatcher, pendingTTL time.Duration, autoNotify bool, interval time.Duration) *Housekeeping {
	return &Housekeeping{
		registrations: registrations,
		gateway:       gateway,
		payments:      payments,
		dispatcher:    dispatcher,
		pendingTTL:    pendingTTL,
		autoNotify:    autoNotify,
		interval:      interval,
		cron:          cron.New(),
		now:           time.Now,
	}
}

// Start démarre le cron
func (h *Housekeeping) Start() error {
	if _, err := h.cron.AddFunc(staleSweepSpec, func() { h.SweepStalePending(context.Background()) }); err != nil {
		return err
	}
	if h.autoNotify {
		if _, err := h.cron.AddFunc("@every "+h.interval.String(), func() { h.SweepReceipts(context.Background()) }); err != nil {
			return err
		}
	}
	h.cron.Start()
	log.Info().Dur("pending_ttl", h.pendingTTL).Bool("auto_notify", h.autoNotify).Dur("interval", h.interval).
		Msg("✓ Cron de maintenance démarré")
	return nil
}

// Stop arrête le cron et attend la fin des balayages en cours
func (h *Housekeeping) Stop() {
	<-h.cron.Stop().Done()
}

// RunOnce exécute les deux balayages une fois (commande sweep)
func (h *Housekeeping) RunOnce(ctx context.Context) (deleted, receipts int) {
	deleted = h.SweepStalePending(ctx)
	receipts = h.SweepReceipts(ctx)
	return deleted, receipts
}

// SweepStalePending supprime les inscriptions en attente plus anciennes que le TTL.
// Une intention déjà payée est réconciliée au lieu d'être supprimée.
func (h *Housekeeping) SweepStalePending(ctx context.Context) int {
	cutoff := h.now().Add(-h.pendingTTL)
	stale, err := h.registrations.FindStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("❌ Recherche des inscriptions expirées impossible")
		return 0
	}

	deleted := 0
	for i := range stale {
		reg := &stale[i]
		logger := log.With().Str("registration_id", reg.ID.Hex()).Logger()

		if reg.PaymentIntentID != "" {
			if _, err := h.payments.Refresh(ctx, reg); err != nil {
				logger.Warn().Err(err).Msg("⚠️  Vérification de l'intention impossible, suppression reportée")
				continue
			}
			if reg.PaymentStatus != models.PaymentPending {
				continue
			}
		}

		ok, err := h.registrations.DeletePending(ctx, reg.ID)
		if err != nil {
			logger.Error().Err(err).Msg("❌ Suppression de l'inscription expirée impossible")
			continue
		}
		if !ok {
			continue
		}
		deleted++

		if reg.PaymentIntentID != "" {
			if err := h.gateway.CancelIntent(ctx, reg.PaymentIntentID); err != nil {
				logger.Warn().Err(err).Msg("⚠️  Annulation de l'intention impossible")
			}
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("🧹 Inscriptions en attente expirées supprimées")
	}
	monitoring.TrackSweep("stale_pending", deleted)
	return deleted
}

// SweepReceipts envoie les reçus manquants des inscriptions finalisées.
// SendReceipt respecte email_sent, un reçu déjà envoyé ne repart jamais.
func (h *Housekeeping) SweepReceipts(ctx context.Context) int {
	pending, err := h.registrations.FindCompletedWithoutReceipt(ctx, sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("❌ Recherche des reçus manquants impossible")
		return 0
	}

	sent := 0
	for i := range pending {
		reg := &pending[i]
		h.dispatcher.SendReceipt(ctx, reg)
		if reg.EmailSent {
			sent++
		}
	}

	if sent > 0 {
		log.Info().Int("sent", sent).Msg("📧 Reçus manquants envoyés")
	}
	monitoring.TrackSweep("receipts", sent)
	return sent
}

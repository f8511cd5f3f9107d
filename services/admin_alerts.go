package services

import (
	"context"
	"time"

	"campus-events-backend/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenStore lit et nettoie les tokens FCM
type TokenStore interface {
	FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// AdminAlerts pousse une notification sur les appareils des administrateurs
type AdminAlerts struct {
	users  UserFinder
	tokens TokenStore
	fcm    *FCMService
}

// NewAdminAlerts crée le notificateur d'administrateurs
func NewAdminAlerts(users UserFinder, tokens TokenStore, fcm *FCMService) *AdminAlerts {
	return &AdminAlerts{users: users, tokens: tokens, fcm: fcm}
}

// NotifyAdmins envoie la notification sans jamais échouer ; les tokens refusés sont supprimés
func (a *AdminAlerts) NotifyAdmins(ctx context.Context, title, body string, data map[string]string) {
	if !a.fcm.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	admins, err := a.users.FindAdmins(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ Recherche des administrateurs impossible")
		return
	}
	ids := adminIDs(admins)
	if len(ids) == 0 {
		return
	}

	tokens, err := a.tokens.FindByUserIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("❌ Récupération des tokens FCM impossible")
		return
	}
	if len(tokens) == 0 {
		log.Debug().Msg("Aucun token FCM administrateur")
		return
	}

	_, _, failedTokens := a.fcm.SendToAll(ctx, tokens, title, body, data)
	if len(failedTokens) > 0 {
		if err := a.tokens.DeleteTokens(ctx, failedTokens); err != nil {
			log.Warn().Err(err).Msg("⚠️  Nettoyage des tokens invalides impossible")
		}
	}
}

func adminIDs(users []models.User) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		if u.IsAdmin() {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

package handlers

import (
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
)

// FCMHandler enregistre les appareils qui reçoivent les alertes admin
type FCMHandler struct {
	tokenRepo *database.FCMTokenRepository
}

// NewFCMHandler crée une nouvelle instance de FCMHandler
func NewFCMHandler(tokenRepo *database.FCMTokenRepository) *FCMHandler {
	return &FCMHandler{tokenRepo: tokenRepo}
}

// Subscribe rattache un token FCM à l'utilisateur connecté
func (h *FCMHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.FCMSubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token := &models.FCMToken{
		UserID:    userID,
		Token:     req.FCMToken,
		Device:    req.Device,
		UserAgent: req.UserAgent,
	}
	if token.UserAgent == "" {
		token.UserAgent = r.UserAgent()
	}

	if err := h.tokenRepo.Upsert(r.Context(), token); err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de l'enregistrement du token FCM")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Info().Str("user_id", userID.Hex()).Str("device", token.Device).Msg("✓ Token FCM enregistré")
	utils.RespondSuccess(w, "Abonnement FCM réussi", nil)
}

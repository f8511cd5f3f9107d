package handlers

import (
	"errors"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackHandler recueille les avis des participants
type FeedbackHandler struct {
	feedbackRepo     *database.FeedbackRepository
	registrationRepo *database.RegistrationRepository
}

// NewFeedbackHandler crée une nouvelle instance de FeedbackHandler
func NewFeedbackHandler(feedbackRepo *database.FeedbackRepository, registrationRepo *database.RegistrationRepository) *FeedbackHandler {
	return &FeedbackHandler{feedbackRepo: feedbackRepo, registrationRepo: registrationRepo}
}

// Create enregistre un avis. Seul un participant dont l'inscription est payée peut noter l'événement.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidEventID)
		return
	}

	reg, err := h.registrationRepo.FindByEventAndUser(r.Context(), eventID, userID)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la vérification de l'inscription")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if reg == nil || reg.PaymentStatus != models.PaymentCompleted {
		utils.RespondError(w, http.StatusForbidden, constants.ErrFeedbackNotAllowed)
		return
	}

	feedback := &models.Feedback{
		EventID: eventID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.feedbackRepo.Create(r.Context(), feedback); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, constants.ErrFeedbackAlreadyExists)
			return
		}
		log.Error().Err(err).Msg("❌ Erreur lors de l'enregistrement de l'avis")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Info().Str("event_id", eventID.Hex()).Int("rating", req.Rating).Msg("✓ Avis enregistré")
	utils.RespondJSON(w, http.StatusCreated, feedback)
}

package handlers

import (
	"net/http"
	"strings"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
)

// UserHandler gère le profil de l'utilisateur connecté
type UserHandler struct {
	userRepo *database.UserRepository
}

// NewUserHandler crée une nouvelle instance de UserHandler
func NewUserHandler(userRepo *database.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GetMe retourne le profil
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la récupération du profil")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if user == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrUserNotFound)
		return
	}

	utils.RespondJSON(w, http.StatusOK, user)
}

// UpdateMe met à jour les champs fournis du profil. Email et rôle ne sont pas modifiables.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		if *req.Phone != "" {
			if err := utils.ValidatePhone(*req.Phone); err != nil {
				utils.RespondErrorCode(w, http.StatusBadRequest, constants.CodeValidation, err.Error())
				return
			}
		}
		fields["phone"] = *req.Phone
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}
	if req.Year != nil {
		fields["year"] = *req.Year
	}
	if req.Department != nil {
		fields["department"] = strings.TrimSpace(*req.Department)
	}
	if len(fields) == 0 {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if err := h.userRepo.UpdateFields(r.Context(), userID, fields); err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la mise à jour du profil")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	h.GetMe(w, r)
}

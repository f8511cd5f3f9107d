package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/middleware"
	"campus-events-backend/models"
	"campus-events-backend/services"
	"campus-events-backend/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxJSONBody borne la taille des corps JSON acceptés
const maxJSONBody = 1 << 20

// ParseEventID extrait et valide event_id depuis les vars de l'URL.
func ParseEventID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	return ParseObjectIDVar(w, mux.Vars(r), "event_id", constants.ErrInvalidEventID)
}

// ParseObjectIDVar extrait et valide un ObjectID depuis les vars (clé configurable, msg d'erreur configurable).
func ParseObjectIDVar(w http.ResponseWriter, vars map[string]string, key, errMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(vars[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// decodeJSON décode puis valide le corps. Retourne false et écrit l'erreur si invalide.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
		return false
	}
	if err := utils.ValidateStruct(r.Context(), dst); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, constants.CodeValidation, err.Error())
		return false
	}
	return true
}

// currentUser retourne les claims et l'ID de l'utilisateur connecté
func currentUser(w http.ResponseWriter, r *http.Request) (*utils.Claims, primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return nil, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
		return nil, primitive.NilObjectID, false
	}
	return claims, userID, true
}

// currentActor construit l'acteur métier à partir du token
func currentActor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Admin: claims.Role == models.RoleAdmin}, true
}

// respondServiceError traduit les erreurs du service d'inscription en réponse HTTP
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var regErr *services.RegistrationError
	switch {
	case errors.As(err, &regErr):
		utils.RespondErrorCode(w, regErr.Status, regErr.Code, regErr.Message)
	case errors.Is(err, services.ErrRegistrationNotFound):
		utils.RespondError(w, http.StatusNotFound, constants.ErrRegistrationNotFound)
	case errors.Is(err, services.ErrAccessDenied):
		utils.RespondError(w, http.StatusForbidden, constants.ErrAccessDenied)
	case errors.Is(err, services.ErrInvalidSignature):
		utils.RespondError(w, http.StatusBadRequest, constants.ErrWebhookSignature)
	default:
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("❌ Erreur serveur")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
	}
}

package utils

import (
	"encoding/json"
	"net/http"

	"campus-events-backend/models"

	"github.com/rs/zerolog/log"
)

// RespondJSON envoie une réponse JSON
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}
	// Les en-têtes sont déjà partis, on ne peut plus que journaliser
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Int("status", statusCode).Msg("❌ Erreur lors de l'encodage JSON")
	}
}

// RespondError envoie une réponse d'erreur JSON
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// RespondErrorCode envoie une réponse d'erreur JSON avec un code métier
func RespondErrorCode(w http.ResponseWriter, statusCode int, code, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	})
}

// RespondSuccess envoie une réponse de succès JSON
func RespondSuccess(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

package handlers

import (
	"net/http"
	"strings"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventHandler gère les requêtes publiques pour les événements
type EventHandler struct {
	eventRepo *database.EventRepository
}

// NewEventHandler crée une nouvelle instance de EventHandler
func NewEventHandler(eventRepo *database.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

// GetPublicEvents retourne la liste publique des événements.
// Filtres : ?department=CSE, ?main=true, ?parent=<id>
func (h *EventHandler) GetPublicEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := database.EventFilter{
		Department: strings.TrimSpace(query.Get("department")),
		MainOnly:   query.Get("main") == "true",
	}
	if parent := query.Get("parent"); parent != "" {
		parentID, err := primitive.ObjectIDFromHex(parent)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidEventID)
			return
		}
		filter.ParentID = &parentID
	}

	events, err := h.eventRepo.Find(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la récupération des événements publics")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

// GetPublicEvent retourne les détails d'un événement
func (h *EventHandler) GetPublicEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	event, err := h.eventRepo.FindByID(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de la récupération de l'événement")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if event == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrEventNotFound)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"event":   event,
	})
}

// GetSubEvents retourne les sous-événements d'un événement principal
func (h *EventHandler) GetSubEvents(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	events, err := h.eventRepo.Find(r.Context(), database.EventFilter{ParentID: &eventID})
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de la récupération des sous-événements")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

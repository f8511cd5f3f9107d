package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/storage"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler gère les requêtes d'administration
type AdminHandler struct {
	userRepo         *database.UserRepository
	eventRepo        *database.EventRepository
	registrationRepo *database.RegistrationRepository
	feedbackRepo     *database.FeedbackRepository
	storage          storage.ObjectStorage
}

// NewAdminHandler crée une nouvelle instance de AdminHandler. store peut être nil.
func NewAdminHandler(userRepo *database.UserRepository, eventRepo *database.EventRepository,
	registrationRepo *database.RegistrationRepository, feedbackRepo *database.FeedbackRepository, store storage.ObjectStorage) *AdminHandler {
	return &AdminHandler{
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		feedbackRepo:     feedbackRepo,
		storage:          store,
	}
}

// GetStats retourne les compteurs globaux
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userRepo.CountAll(ctx)
	if err != nil {
		h.serverError(w, err, "comptage des utilisateurs")
		return
	}
	events, err := h.eventRepo.CountAll(ctx)
	if err != nil {
		h.serverError(w, err, "comptage des événements")
		return
	}
	byStatus, err := h.registrationRepo.CountByStatus(ctx, nil)
	if err != nil {
		h.serverError(w, err, "agrégation des inscriptions")
		return
	}

	var total int64
	var revenue float64
	for _, c := range byStatus {
		total += c.Count
		if c.Status == models.PaymentCompleted {
			revenue += c.Amount
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"total_users":         users,
		"total_events":        events,
		"total_registrations": total,
		"registrations":       byStatus,
		"revenue":             revenue,
	})
}

// GetUsers retourne la liste paginée des utilisateurs (?page=1&limit=50)
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	page = max(page, 1)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := h.userRepo.FindAll(r.Context(), (page-1)*limit, limit)
	if err != nil {
		h.serverError(w, err, "récupération des utilisateurs")
		return
	}
	total, err := h.userRepo.CountAll(r.Context())
	if err != nil {
		h.serverError(w, err, "comptage des utilisateurs")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// CreateEvent crée un événement principal ou un sous-événement
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateRegistrationDetails(req.RegistrationDetails); msg != "" {
		utils.RespondErrorCode(w, http.StatusBadRequest, constants.CodeValidation, msg)
		return
	}

	event := &models.Event{
		Name:                     strings.TrimSpace(req.Name),
		Description:              req.Description,
		Time:                     req.Time,
		Location:                 req.Location,
		IsMainEvent:              req.IsMainEvent,
		Department:               req.Department,
		EligibleDepartments:      req.EligibleDepartments,
		RegistrationDetails:      req.RegistrationDetails,
		BasicRegistrationEnabled: req.BasicRegistrationEnabled,
		BasicRegistrationAmount:  req.BasicRegistrationAmount,
	}
	if req.Date != nil && !req.Date.Time.IsZero() {
		d := req.Date.Time
		event.Date = &d
	}

	if req.ParentEvent != "" {
		if req.IsMainEvent {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrMainEventWithParent)
			return
		}
		parentID, ok := h.validParent(r.Context(), w, req.ParentEvent)
		if !ok {
			return
		}
		event.ParentEvent = &parentID
	}

	if err := h.eventRepo.Create(r.Context(), event); err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la création de l'événement")
		utils.RespondError(w, http.StatusInternalServerError, "Erreur lors de la création de l'événement")
		return
	}

	log.Info().Str("event_id", event.ID.Hex()).Str("name", event.Name).Msg("✓ Événement créé")
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Événement créé avec succès",
		"event":   event,
	})
}

// UpdateEvent met à jour les champs fournis d'un événement
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.eventRepo.FindByID(r.Context(), eventID)
	if err != nil {
		h.serverError(w, err, "récupération de l'événement")
		return
	}
	if existing == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrEventNotFound)
		return
	}

	update := bson.M{}
	if req.Name != nil {
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Date != nil {
		update["date"] = req.Date.Time
	}
	if req.Time != nil {
		update["time"] = *req.Time
	}
	if req.Location != nil {
		update["location"] = *req.Location
	}
	if req.Department != nil {
		update["department"] = *req.Department
	}
	if req.EligibleDepartments != nil {
		update["eligible_departments"] = req.EligibleDepartments
	}
	if req.RegistrationDetails != nil {
		if msg := validateRegistrationDetails(*req.RegistrationDetails); msg != "" {
			utils.RespondErrorCode(w, http.StatusBadRequest, constants.CodeValidation, msg)
			return
		}
		update["registration_details"] = *req.RegistrationDetails
	}
	if req.BasicRegistrationEnabled != nil {
		update["basic_registration_enabled"] = *req.BasicRegistrationEnabled
	}
	if req.BasicRegistrationAmount != nil {
		update["basic_registration_amount"] = *req.BasicRegistrationAmount
	}

	if len(update) == 0 {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if err := h.eventRepo.Update(r.Context(), eventID, update); err != nil {
		h.serverError(w, err, "mise à jour de l'événement")
		return
	}

	event, err := h.eventRepo.FindByID(r.Context(), eventID)
	if err != nil {
		h.serverError(w, err, "récupération de l'événement")
		return
	}

	log.Info().Str("event_id", eventID.Hex()).Msg("✓ Événement mis à jour")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Événement mis à jour avec succès",
		"event":   event,
	})
}

// DeleteEvent supprime un événement sans inscription ni sous-événement
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	event, err := h.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		h.serverError(w, err, "récupération de l'événement")
		return
	}
	if event == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrEventNotFound)
		return
	}

	registrations, err := h.registrationRepo.CountByEvent(ctx, eventID)
	if err != nil {
		h.serverError(w, err, "comptage des inscriptions")
		return
	}
	subEvents, err := h.eventRepo.CountSubEvents(ctx, eventID)
	if err != nil {
		h.serverError(w, err, "comptage des sous-événements")
		return
	}
	if registrations > 0 || subEvents > 0 {
		utils.RespondError(w, http.StatusConflict, constants.ErrEventHasRegistrations)
		return
	}

	if err := h.eventRepo.Delete(ctx, eventID); err != nil {
		h.serverError(w, err, "suppression de l'événement")
		return
	}

	if event.Poster != nil && h.storage != nil {
		if err := h.storage.Delete(ctx, event.Poster.Key); err != nil {
			log.Warn().Err(err).Str("key", event.Poster.Key).Msg("⚠️  Affiche non supprimée du stockage")
		}
	}

	log.Info().Str("event_id", eventID.Hex()).Msg("✓ Événement supprimé")
	utils.RespondSuccess(w, "Événement supprimé avec succès", nil)
}

// GetEventRegistrations liste les inscrits d'un événement (?status=completed) avec les compteurs par statut
func (h *AdminHandler) GetEventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	status := models.PaymentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	registrations, err := h.registrationRepo.FindByEventWithUsers(r.Context(), eventID, status)
	if err != nil {
		h.serverError(w, err, "récupération des inscrits")
		return
	}
	counts, err := h.registrationRepo.CountByStatus(r.Context(), &eventID)
	if err != nil {
		h.serverError(w, err, "agrégation des inscriptions")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": registrations,
		"total":         len(registrations),
		"counts":        counts,
	})
}

// GetEventFeedback retourne les avis d'un événement et la note moyenne
func (h *AdminHandler) GetEventFeedback(w http.ResponseWriter, r *http.Request) {
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	feedback, err := h.feedbackRepo.FindByEvent(r.Context(), eventID)
	if err != nil {
		h.serverError(w, err, "récupération des avis")
		return
	}
	summary, err := h.feedbackRepo.Summary(r.Context(), eventID)
	if err != nil {
		h.serverError(w, err, "agrégation des avis")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"summary":  summary,
	})
}

// validParent vérifie que le parent existe et est un événement principal
func (h *AdminHandler) validParent(ctx context.Context, w http.ResponseWriter, hex string) (primitive.ObjectID, bool) {
	parentID, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidParentEvent)
		return primitive.NilObjectID, false
	}
	parent, err := h.eventRepo.FindByID(ctx, parentID)
	if err != nil {
		h.serverError(w, err, "récupération de l'événement parent")
		return primitive.NilObjectID, false
	}
	if parent == nil || !parent.IsMainEvent {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidParentEvent)
		return primitive.NilObjectID, false
	}
	return parentID, true
}

func (h *AdminHandler) serverError(w http.ResponseWriter, err error, action string) {
	log.Error().Err(err).Str("action", action).Msg("❌ Erreur admin")
	utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
}

// validateRegistrationDetails retourne un message d'erreur si la configuration tarifaire est incohérente
func validateRegistrationDetails(d models.RegistrationDetails) string {
	if d.FeePerHead < 0 {
		return "fee_per_head doit être positif"
	}
	if !d.TeamParticipation {
		return ""
	}
	p := d.TeamSize
	switch p.Type {
	case models.TeamSizeIndividual:
	case models.TeamSizeFixed:
		if p.Value < 1 {
			return "team_size.value doit valoir au moins 1"
		}
	case models.TeamSizeRange:
		if p.Min < 1 || p.Max < p.Min {
			return "team_size doit vérifier 1 <= min <= max"
		}
	case models.TeamSizeAtMost:
		if p.Max < 1 {
			return "team_size.max doit valoir au moins 1"
		}
	case models.TeamSizeAtLeast:
		if p.Min < 1 {
			return "team_size.min doit valoir au moins 1"
		}
	default:
		return "team_size.type inconnu"
	}
	return ""
}

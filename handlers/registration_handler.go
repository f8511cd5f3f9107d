package handlers

import (
	"io"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/models"
	"campus-events-backend/services"
	"campus-events-backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxWebhookBody borne la taille d'un événement webhook
const maxWebhookBody = 64 << 10

// RegistrationHandler expose l'inscription aux événements et le webhook de paiement
type RegistrationHandler struct {
	registrations *services.RegistrationService
	payments      *services.PaymentReconciler
}

// NewRegistrationHandler crée une nouvelle instance de RegistrationHandler
func NewRegistrationHandler(registrations *services.RegistrationService, payments *services.PaymentReconciler) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, payments: payments}
}

// Register inscrit l'utilisateur connecté (POST /api/registrations/register)
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidEventID)
		return
	}

	resp, err := h.registrations.Register(r.Context(), userID, services.RegisterInput{
		EventID:     eventID,
		Department:  req.Department,
		Year:        req.Year,
		TeamName:    req.TeamName,
		TeamMembers: req.TeamMembers,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, resp)
}

// GetMine liste les inscriptions de l'utilisateur connecté
func (h *RegistrationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	regs, err := h.registrations.ListMine(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": regs,
		"total":         len(regs),
	})
}

func (h *RegistrationHandler) parseRequest(w http.ResponseWriter, r *http.Request) (services.Actor, primitive.ObjectID, bool) {
	actor, ok := currentActor(w, r)
	if !ok {
		return actor, primitive.NilObjectID, false
	}
	id, ok := ParseObjectIDVar(w, mux.Vars(r), "id", constants.ErrInvalidRegistrationID)
	return actor, id, ok
}

// Get retourne une inscription (propriétaire ou admin)
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.registrations.Get(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// Delete annule une inscription en attente de paiement
func (h *RegistrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	if err := h.registrations.Cancel(r.Context(), actor, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondSuccess(w, "Inscription annulée", nil)
}

// SendReceipt renvoie le reçu d'une inscription payée
func (h *RegistrationHandler) SendReceipt(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	if err := h.registrations.SendReceipt(r.Context(), actor, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondSuccess(w, "Reçu envoyé", nil)
}

// Webhook reçoit les événements du processeur de paiement. La signature porte sur le corps brut.
func (h *RegistrationHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get(constants.HeaderStripeSignature)); err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

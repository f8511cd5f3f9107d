package services

import (
	"errors"
	"fmt"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/models"
)

var (
	ErrRegistrationNotFound = errors.New("inscription introuvable")
	ErrAccessDenied         = errors.New("accès refusé")
	ErrInvalidSignature     = errors.New("signature webhook invalide")
	ErrInvalidTransition    = models.ErrInvalidTransition
)

// RegistrationError est un refus métier renvoyé tel quel au client
type RegistrationError struct {
	Code    string
	Message string
	Status  int
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(status int, code, message string) *RegistrationError {
	return &RegistrationError{Code: code, Message: message, Status: status}
}

func errForbiddenAdmin() error {
	return reject(http.StatusForbidden, constants.CodeForbiddenAdminRegistration,
		"Les administrateurs ne peuvent pas s'inscrire aux événements")
}

func errEventNotFound() error {
	return reject(http.StatusNotFound, constants.CodeEventNotFound, constants.ErrEventNotFound)
}

func errAlreadyRegistered() error {
	return reject(http.StatusConflict, constants.CodeAlreadyRegistered, "Vous êtes déjà inscrit à cet événement")
}

func errBasicRegistrationDisabled() error {
	return reject(http.StatusBadRequest, constants.CodeBasicRegistrationDisabled,
		"Les inscriptions à cet événement principal ne sont pas ouvertes")
}

func errBasicRegistrationRequired(parent string) error {
	return reject(http.StatusForbidden, constants.CodeBasicRegistrationRequired,
		fmt.Sprintf("Vous devez d'abord finaliser votre inscription à l'événement principal « %s »", parent))
}

func errDepartmentNotEligible(department string) error {
	return reject(http.StatusForbidden, constants.CodeDepartmentNotEligible,
		fmt.Sprintf("Le département %q n'est pas éligible pour cet événement", department))
}

func errTeamSize(message string) error {
	return reject(http.StatusBadRequest, constants.CodeTeamSizeInvalid, message)
}

func errCancelNotPending() error {
	return reject(http.StatusBadRequest, "", constants.ErrCancelNotPending)
}

func errPaymentCheckFailed() error {
	return reject(http.StatusServiceUnavailable, constants.CodePaymentCheckFailed, constants.ErrPaymentCheckFailed)
}

func errReceiptNotCompleted() error {
	return reject(http.StatusBadRequest, "", constants.ErrReceiptNotCompleted)
}

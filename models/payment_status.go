package models

import (
	"errors"
	"fmt"
)

// PaymentStatus est l'état de paiement d'une inscription
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentEvent déclenche une transition de PaymentStatus
type PaymentEvent string

const (
	PaymentSucceeded PaymentEvent = "succeeded" // webhook payment_intent.succeeded
	PaymentRejected  PaymentEvent = "failed"    // webhook payment_intent.payment_failed
	PaymentWaived    PaymentEvent = "waived"    // montant sous le seuil, inscription gratuite
)

// ErrInvalidTransition est retournée pour toute transition non autorisée
var ErrInvalidTransition = errors.New("transition de paiement invalide")

// Valid indique si le statut fait partie de l'énumération
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Terminal indique si plus aucune transition n'est possible
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// Transition calcule le nouvel état. changed vaut false quand l'événement rejoue l'état courant.
//
//	pending  + succeeded -> completed
//	pending  + waived    -> completed
//	pending  + failed    -> failed
//	completed + succeeded|waived -> completed (rejeu)
//	failed    + failed           -> failed    (rejeu)
func Transition(from PaymentStatus, event PaymentEvent) (to PaymentStatus, changed bool, err error) {
	switch from {
	case PaymentPending:
		switch event {
		case PaymentSucceeded, PaymentWaived:
			return PaymentCompleted, true, nil
		case PaymentRejected:
			return PaymentFailed, true, nil
		}
	case PaymentCompleted:
		if event == PaymentSucceeded || event == PaymentWaived {
			return PaymentCompleted, false, nil
		}
	case PaymentFailed:
		if event == PaymentRejected {
			return PaymentFailed, false, nil
		}
	}
	return from, false, fmt.Errorf("%w: %s + %s", ErrInvalidTransition, from, event)
}

// Apply applique la transition sur l'inscription
func (r *Registration) Apply(event PaymentEvent) (bool, error) {
	to, changed, err := Transition(r.PaymentStatus, event)
	if err != nil {
		return false, err
	}
	r.PaymentStatus = to
	return changed, nil
}

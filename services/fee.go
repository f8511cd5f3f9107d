package services

import (
	"campus-events-backend/models"

	"github.com/shopspring/decimal"
)

// ComputeTotalFee retourne le montant dû pour une inscription.
// Événement principal : montant de l'inscription de base. Sous-événement : fee_per_head,
// qui est le total de l'équipe et n'est jamais multiplié par le nombre de membres.
func ComputeTotalFee(event *models.Event) float64 {
	amount := decimal.NewFromFloat(event.RegistrationDetails.FeePerHead)
	if event.IsMainEvent {
		amount = decimal.NewFromFloat(event.BasicRegistrationAmount)
	}
	if amount.IsNegative() {
		return 0
	}
	return amount.Round(2).InexactFloat64()
}

// requiresPayment indique si le montant doit passer par le processeur de paiement
func requiresPayment(fee, minCharge float64) bool {
	return fee > 0 && decimal.NewFromFloat(fee).GreaterThanOrEqual(decimal.NewFromFloat(minCharge))
}

package models

// Types d'événements webhook du processeur de paiement
const (
	WebhookPaymentSucceeded = "payment_intent.succeeded"
	WebhookPaymentFailed    = "payment_intent.payment_failed"
)

// Statut d'intention côté processeur
const IntentStatusSucceeded = "succeeded"

// PaymentIntentRequest décrit l'intention de paiement à créer
type PaymentIntentRequest struct {
	Amount         float64 // En unité principale (roupies), converti en centimes par la passerelle
	Currency       string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentIntent est la vue réduite d'une intention de paiement
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	ChargeID     string
}

// WebhookEvent est un événement webhook dont la signature a été vérifiée
type WebhookEvent struct {
	ID             string
	Type           string
	IntentID       string
	ChargeID       string
	FailureMessage string
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus-events-backend/config"
	"campus-events-backend/models"
	"campus-events-backend/utils"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implémente PaymentGateway avec Stripe
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway crée la passerelle Stripe
func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{api: api, webhookSecret: cfg.WebhookSecret}
}

// CreateIntent crée une intention de paiement, montant converti en plus petite unité (paise)
func (g *StripeGateway) CreateIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(utils.ToMinorUnits(req.Amount)),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: création de l'intention: %w", err)
	}
	return toIntent(pi), nil
}

// RetrieveIntent lit une intention existante
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: lecture de l'intention %s: %w", intentID, err)
	}
	return toIntent(pi), nil
}

// CancelIntent annule une intention encore ouverte
func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("stripe: annulation de l'intention %s: %w", intentID, err)
	}
	return nil
}

// ParseWebhook vérifie l'en-tête Stripe-Signature et extrait l'intention concernée
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: secret webhook non configuré", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &models.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != models.WebhookPaymentSucceeded && out.Type != models.WebhookPaymentFailed {
		return out, nil
	}
	if event.Data == nil {
		return nil, errors.New("stripe: événement sans données")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: décodage de l'intention: %w", err)
	}
	out.IntentID = pi.ID
	if pi.LatestCharge != nil {
		out.ChargeID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	intent := &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
	if pi.LatestCharge != nil {
		intent.ChargeID = pi.LatestCharge.ID
	}
	return intent
}

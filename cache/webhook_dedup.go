package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const webhookKeyPrefix = "webhook:stripe:"

// WebhookDedup mémorise les identifiants d'événements webhook déjà traités
type WebhookDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookDedup crée le dédoublonneur ; ttl est la durée de rétention d'un identifiant
func NewWebhookDedup(client *redis.Client, ttl time.Duration) *WebhookDedup {
	return &WebhookDedup{client: client, ttl: ttl}
}

// Claim réserve l'identifiant. Retourne false s'il a déjà été vu.
func (d *WebhookDedup) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, webhookKeyPrefix+eventID, 1, d.ttl).Result()
}

// Release libère l'identifiant pour permettre une nouvelle livraison
func (d *WebhookDedup) Release(ctx context.Context, eventID string) {
	if err := d.client.Del(ctx, webhookKeyPrefix+eventID).Err(); err != nil {
		log.Warn().Err(err).Str("webhook_id", eventID).Msg("⚠️  Libération de l'événement webhook impossible")
	}
}

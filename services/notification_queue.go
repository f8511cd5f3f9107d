package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"campus-events-backend/config"
	"campus-events-backend/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// InlineQueue exécute chaque tâche immédiatement dans la goroutine de l'appelant
type InlineQueue struct {
	handler TaskHandler
}

// NewInlineQueue crée une file synchrone
func NewInlineQueue(handler TaskHandler) *InlineQueue {
	return &InlineQueue{handler: handler}
}

// Enqueue exécute la tâche. Les erreurs du handler sont journalisées, jamais retournées.
func (q *InlineQueue) Enqueue(ctx context.Context, task models.NotificationTask) error {
	if err := q.handler.Handle(ctx, task); err != nil {
		log.Error().Err(err).Str("kind", task.Kind).Str("registration_id", task.RegistrationID).Msg("❌ Tâche de notification en échec")
	}
	return nil
}

// RabbitQueue publie les tâches dans une file RabbitMQ durable
type RabbitQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
}

// NewRabbitQueue se connecte à RabbitMQ et déclare la file de notifications
func NewRabbitQueue(cfg config.RabbitMQConfig) (*RabbitQueue, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("RABBITMQ_URL est requis")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connexion RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ouverture du canal RabbitMQ: %w", err)
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("configuration du prefetch: %w", err)
		}
	}

	if _, err := ch.QueueDeclare(cfg.NotificationQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("déclaration de la file %s: %w", cfg.NotificationQueue, err)
	}

	log.Info().Str("queue", cfg.NotificationQueue).Msg("✓ File de notifications RabbitMQ prête")
	return &RabbitQueue{conn: conn, channel: ch, queue: cfg.NotificationQueue}, nil
}

// Enqueue publie la tâche en JSON, message persistant
func (q *RabbitQueue) Enqueue(ctx context.Context, task models.NotificationTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encodage de la tâche: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         task.Kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publication de la tâche %s: %w", task.Kind, err)
	}
	return nil
}

// Consume traite les tâches jusqu'à l'annulation du contexte.
// Une tâche en échec est remise en file une seule fois.
func (q *RabbitQueue) Consume(ctx context.Context, handler TaskHandler) error {
	deliveries, err := q.channel.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("abonnement à la file %s: %w", q.queue, err)
	}

	log.Info().Str("queue", q.queue).Msg("✓ Worker de notifications démarré")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("canal de livraison RabbitMQ fermé")
			}
			q.process(ctx, handler, delivery)
		}
	}
}

func (q *RabbitQueue) process(ctx context.Context, handler TaskHandler, delivery amqp.Delivery) {
	var task models.NotificationTask
	if err := json.Unmarshal(delivery.Body, &task); err != nil {
		log.Error().Err(err).Msg("❌ Tâche illisible, rejetée")
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler.Handle(ctx, task); err != nil {
		log.Error().Err(err).Str("kind", task.Kind).Str("registration_id", task.RegistrationID).
			Bool("redelivered", delivery.Redelivered).Msg("❌ Tâche de notification en échec")
		_ = delivery.Nack(false, !delivery.Redelivered)
		return
	}
	_ = delivery.Ack(false)
}

// Close ferme le canal et la connexion
func (q *RabbitQueue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

package services

import (
	"context"
	"time"

	"campus-events-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventFinder lit les événements
type EventFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
}

// UserFinder lit les utilisateurs
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
}

// RegistrationStore persiste les inscriptions. Implémenté par database.RegistrationRepository.
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error)
	FindByEventAndUser(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Registration, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Registration, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Registration, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int64) ([]models.Registration, error)
	FindCompletedWithoutReceipt(ctx context.Context, limit int64) ([]models.Registration, error)
	SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, paymentID, failureReason string) (bool, error)
	MarkEmailSent(ctx context.Context, id primitive.ObjectID) error
	ClaimNotification(ctx context.Context, id primitive.ObjectID, flag string) (bool, error)
	ReleaseNotification(ctx context.Context, id primitive.ObjectID, flag string) error
	DeletePending(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// PaymentGateway est le processeur de paiement externe
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
	// ParseWebhook vérifie la signature et décode l'événement. Retourne ErrInvalidSignature en cas d'échec.
	ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error)
}

// Mailer envoie un email
type Mailer interface {
	Send(ctx context.Context, envelope models.Envelope) error
}

// NotificationQueue reçoit les tâches de notification sortantes.
// La file en mémoire les exécute immédiatement, la file RabbitMQ les confie à un worker.
type NotificationQueue interface {
	Enqueue(ctx context.Context, task models.NotificationTask) error
}

// TaskHandler exécute une tâche de notification
type TaskHandler interface {
	Handle(ctx context.Context, task models.NotificationTask) error
}

// EventDeduplicator évite de retraiter un webhook déjà reçu
type EventDeduplicator interface {
	// Claim retourne false si l'événement a déjà été traité
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string)
}

// AdminNotifier prévient les administrateurs (push)
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, title, body string, data map[string]string)
}

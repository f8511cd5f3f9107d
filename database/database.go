package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Noms des collections
const (
	CollectionUsers         = "users"
	CollectionEvents        = "events"
	CollectionRegistrations = "registrations"
	CollectionFeedback      = "feedback"
	CollectionFCMTokens     = "fcm_tokens"
)

// ErrDuplicate est retournée quand un index unique est violé
var ErrDuplicate = errors.New("document déjà existant")

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Info().Str("database", dbName).Msg("✓ Connexion à MongoDB établie")

	if err = createIndexes(DB); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return nil
}

// Ping vérifie que la connexion MongoDB est active
func Ping() error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// collectionIndexes liste les index attendus par collection
func collectionIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionEvents: {
			{Keys: bson.D{{Key: "parent_event", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		CollectionRegistrations: {
			// Garde réelle contre les doubles inscriptions concurrentes
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "payment_intent_id", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "payment_status", Value: 1}, {Key: "registered_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollectionFeedback: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionFCMTokens: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
}

// createIndexes crée les index nécessaires
func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	for name, models := range collectionIndexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}

	log.Info().Msg("✓ Index MongoDB créés")
	return nil
}

// withTimeout borne la durée d'une opération base de données
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}

package database

import (
	"context"
	"fmt"
	"time"

	"campus-events-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackRepository gère les avis sur les événements
type FeedbackRepository struct {
	collection *mongo.Collection
}

// NewFeedbackRepository crée une nouvelle instance de FeedbackRepository
func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{
		collection: db.Collection(CollectionFeedback),
	}
}

// Create enregistre un avis. Retourne ErrDuplicate si l'utilisateur a déjà noté l'événement.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	feedback.ID = primitive.NewObjectID()
	feedback.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, feedback); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("erreur lors de l'enregistrement de l'avis: %w", err)
	}
	return nil
}

// FindByEvent retourne les avis d'un événement, les plus récents d'abord
func (r *FeedbackRepository) FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Feedback, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des avis: %w", err)
	}
	defer cursor.Close(ctx)

	feedback := []models.Feedback{}
	if err = cursor.All(ctx, &feedback); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des avis: %w", err)
	}
	return feedback, nil
}

// Summary calcule le nombre d'avis et la note moyenne d'un événement
func (r *FeedbackRepository) Summary(ctx context.Context, eventID primitive.ObjectID) (*models.FeedbackSummary, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{BSONMatch: bson.M{"event_id": eventID}},
		{BSONGroup: bson.M{
			"_id":     nil,
			"count":   bson.M{BSONSum: 1},
			"average": bson.M{BSONAvg: "$rating"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation des avis: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.FeedbackSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des avis: %w", err)
	}
	if len(results) == 0 {
		return &models.FeedbackSummary{}, nil
	}
	return &results[0], nil
}

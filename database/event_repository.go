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

// EventFilter restreint la liste des événements
type EventFilter struct {
	Department string
	MainOnly   bool
	ParentID   *primitive.ObjectID
}

// EventRepository gère les opérations sur les événements
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository crée une nouvelle instance de EventRepository
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection(CollectionEvents),
	}
}

// Create crée un nouvel événement
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	event.ID = primitive.NewObjectID()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.EligibleDepartments == nil {
		event.EligibleDepartments = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("erreur lors de la création de l'événement: %w", err)
	}

	return nil
}

// Find retourne les événements correspondant au filtre, triés par date
func (r *EventRepository) Find(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Department != "" {
		// Un département voit ses événements et les événements communs
		query["department"] = bson.M{"$in": []string{filter.Department, models.DepartmentCommon}}
	}
	if filter.MainOnly {
		query["is_main_event"] = true
	}
	if filter.ParentID != nil {
		query["parent_event"] = *filter.ParentID
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des événements: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des événements: %w", err)
	}

	return events, nil
}

// FindByID recherche un événement par ID
func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var event models.Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'événement: %w", err)
	}

	return &event, nil
}

// Update met à jour un événement
func (r *EventRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	update["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'événement: %w", err)
	}

	return nil
}

// UnsetPoster retire l'affiche d'un événement
func (r *EventRepository) UnsetPoster(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"poster": ""}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'affiche: %w", err)
	}
	return nil
}

// Delete supprime un événement
func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'événement: %w", err)
	}

	return nil
}

// CountSubEvents compte les sous-événements d'un événement principal
func (r *EventRepository) CountSubEvents(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"parent_event": parentID})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des sous-événements: %w", err)
	}
	return count, nil
}

// CountAll compte tous les événements
func (r *EventRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des événements: %w", err)
	}

	return count, nil
}

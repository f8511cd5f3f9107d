package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback représente l'avis d'un participant sur un événement
type Feedback struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventID   primitive.ObjectID `json:"event_id" bson:"event_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateFeedbackRequest représente la requête de dépôt d'un avis
type CreateFeedbackRequest struct {
	EventID string `json:"eventId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// FeedbackSummary agrège les avis d'un événement
type FeedbackSummary struct {
	Count         int64   `json:"count" bson:"count"`
	AverageRating float64 `json:"average_rating" bson:"average"`
}

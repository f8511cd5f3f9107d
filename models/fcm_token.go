package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FCMToken représente le token FCM d'un appareil (utilisé pour prévenir les admins)
type FCMToken struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Token     string             `json:"token" bson:"token"`
	Device    string             `json:"device,omitempty" bson:"device,omitempty"` // iOS, Android, Web
	UserAgent string             `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// FCMSubscribeRequest représente la requête d'abonnement FCM
type FCMSubscribeRequest struct {
	FCMToken  string `json:"fcm_token" validate:"required"`
	Device    string `json:"device,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types d'inscription
const (
	RegistrationInternal = "internal"
	RegistrationExternal = "external"
)

// Drapeaux d'idempotence des notifications (noms des champs BSON)
const (
	FlagEmailSent        = "email_sent"
	FlagFailureEmailSent = "failure_email_sent"
)

// TeamMember représente un membre d'équipe
type TeamMember struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Roster est la liste ordonnée des membres, le chef d'équipe est toujours Roster[0]
type Roster []TeamMember

// Leader retourne le chef d'équipe (nil si la liste est vide)
func (r Roster) Leader() *TeamMember {
	if len(r) == 0 {
		return nil
	}
	return &r[0]
}

// Emails retourne les emails non vides dans l'ordre du roster
func (r Roster) Emails() []string {
	emails := make([]string, 0, len(r))
	for _, m := range r {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	return emails
}

// Registration représente l'inscription d'un utilisateur (ou d'une équipe) à un événement
type Registration struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventID          primitive.ObjectID `json:"event_id" bson:"event_id"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id"`
	Department       string             `json:"department" bson:"department"`
	Year             string             `json:"year" bson:"year"`
	TeamName         string             `json:"team_name,omitempty" bson:"team_name,omitempty"`
	TeamMembers      Roster             `json:"team_members" bson:"team_members"`
	TotalFee         float64            `json:"total_fee" bson:"total_fee"`
	PaymentStatus    PaymentStatus      `json:"payment_status" bson:"payment_status"`
	PaymentIntentID  string             `json:"payment_intent_id,omitempty" bson:"payment_intent_id,omitempty"`
	PaymentID        string             `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	RegistrationType string             `json:"registration_type" bson:"registration_type"`
	RegisteredAt     time.Time          `json:"registered_at" bson:"registered_at"`
	EmailSent        bool               `json:"email_sent" bson:"email_sent"`
	FailureEmailSent bool               `json:"failure_email_sent" bson:"failure_email_sent"`
	FailureReason    string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	Certificate      *StoredObject      `json:"certificate,omitempty" bson:"certificate,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateRegistrationRequest représente la requête d'inscription à un événement
type CreateRegistrationRequest struct {
	EventID     string       `json:"eventId" validate:"required"`
	Department  string       `json:"department" validate:"required,max=100"`
	Year        string       `json:"year" validate:"max=20"`
	TeamName    string       `json:"teamName" validate:"max=100"`
	TeamMembers []TeamMember `json:"teamMembers" validate:"max=50"`
}

// RegistrationResponse est renvoyé au client après création ou consultation
type RegistrationResponse struct {
	Registration *Registration `json:"registration"`
	ClientSecret string        `json:"clientSecret,omitempty"`
}

// RegistrationStatusCount agrège les inscriptions par statut de paiement
type RegistrationStatusCount struct {
	Status PaymentStatus `json:"status" bson:"_id"`
	Count  int64         `json:"count" bson:"count"`
	Amount float64       `json:"amount" bson:"amount"`
}

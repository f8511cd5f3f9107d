package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DepartmentCommon désigne un événement ouvert à tous les départements
const DepartmentCommon = "Common"

// Politiques de taille d'équipe
const (
	TeamSizeIndividual = "individual"
	TeamSizeFixed      = "fixed"
	TeamSizeRange      = "range"
	TeamSizeAtMost     = "at_most"
	TeamSizeAtLeast    = "at_least"
)

// TeamSizePolicy décrit la contrainte sur le nombre de membres d'une équipe
type TeamSizePolicy struct {
	Type  string `json:"type" bson:"type"`
	Value int    `json:"value,omitempty" bson:"value,omitempty"` // fixed
	Min   int    `json:"min,omitempty" bson:"min,omitempty"`     // range, at_least
	Max   int    `json:"max,omitempty" bson:"max,omitempty"`     // range, at_most
}

// RegistrationDetails contient la configuration tarifaire d'un événement
type RegistrationDetails struct {
	FeePerHead        float64        `json:"fee_per_head" bson:"fee_per_head"` // Montant total par inscription (pas par membre)
	TeamParticipation bool           `json:"team_participation" bson:"team_participation"`
	TeamSize          TeamSizePolicy `json:"team_size" bson:"team_size"`
}

// StoredObject référence un fichier déposé dans le stockage objet
type StoredObject struct {
	URL        string    `json:"url" bson:"url"`
	Key        string    `json:"key" bson:"key"`         // Identifiant côté stockage (public_id Cloudinary, clé MinIO/GCS)
	Backend    string    `json:"backend" bson:"backend"` // cloudinary, minio, gcs
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// Event représente un événement dans le système
type Event struct {
	ID                       primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name                     string              `json:"name" bson:"name"`
	Description              string              `json:"description" bson:"description"`
	Date                     *time.Time          `json:"date,omitempty" bson:"date,omitempty"`
	Time                     string              `json:"time,omitempty" bson:"time,omitempty"`
	Location                 string              `json:"location,omitempty" bson:"location,omitempty"`
	IsMainEvent              bool                `json:"is_main_event" bson:"is_main_event"`
	ParentEvent              *primitive.ObjectID `json:"parent_event,omitempty" bson:"parent_event,omitempty"`
	Department               string              `json:"department" bson:"department"`
	EligibleDepartments      []string            `json:"eligible_departments" bson:"eligible_departments"`
	RegistrationDetails      RegistrationDetails `json:"registration_details" bson:"registration_details"`
	BasicRegistrationEnabled bool                `json:"basic_registration_enabled" bson:"basic_registration_enabled"`
	BasicRegistrationAmount  float64             `json:"basic_registration_amount" bson:"basic_registration_amount"`
	Poster                   *StoredObject       `json:"poster,omitempty" bson:"poster,omitempty"`
	CreatedAt                time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at" bson:"updated_at"`
}

// EffectiveTeamSize retourne la politique applicable (individual si l'événement n'accepte pas d'équipe)
func (e *Event) EffectiveTeamSize() TeamSizePolicy {
	if !e.RegistrationDetails.TeamParticipation {
		return TeamSizePolicy{Type: TeamSizeIndividual}
	}
	return e.RegistrationDetails.TeamSize
}

// IsDepartmentEligible indique si un département peut s'inscrire
func (e *Event) IsDepartmentEligible(department string) bool {
	if len(e.EligibleDepartments) == 0 || e.Department == DepartmentCommon {
		return true
	}
	for _, d := range e.EligibleDepartments {
		if d == DepartmentCommon || strings.EqualFold(d, department) {
			return true
		}
	}
	return false
}

// CreateEventRequest représente la requête de création d'événement
type CreateEventRequest struct {
	Name                     string              `json:"name" validate:"required,max=200"`
	Description              string              `json:"description"`
	Date                     *FlexibleTime       `json:"date,omitempty"`
	Time                     string              `json:"time,omitempty"`
	Location                 string              `json:"location,omitempty"`
	IsMainEvent              bool                `json:"is_main_event"`
	ParentEvent              string              `json:"parent_event,omitempty"`
	Department               string              `json:"department" validate:"required"`
	EligibleDepartments      []string            `json:"eligible_departments"`
	RegistrationDetails      RegistrationDetails `json:"registration_details"`
	BasicRegistrationEnabled bool                `json:"basic_registration_enabled"`
	BasicRegistrationAmount  float64             `json:"basic_registration_amount" validate:"gte=0"`
}

// UpdateEventRequest représente la requête de modification d'événement
type UpdateEventRequest struct {
	Name                     *string              `json:"name,omitempty"`
	Description              *string              `json:"description,omitempty"`
	Date                     *FlexibleTime        `json:"date,omitempty"`
	Time                     *string              `json:"time,omitempty"`
	Location                 *string              `json:"location,omitempty"`
	Department               *string              `json:"department,omitempty"`
	EligibleDepartments      []string             `json:"eligible_departments,omitempty"`
	RegistrationDetails      *RegistrationDetails `json:"registration_details,omitempty"`
	BasicRegistrationEnabled *bool                `json:"basic_registration_enabled,omitempty"`
	BasicRegistrationAmount  *float64             `json:"basic_registration_amount,omitempty" validate:"omitempty,gte=0"`
}

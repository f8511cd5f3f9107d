package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rôles utilisateur
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User représente un utilisateur dans le système
type User struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"` // Le "-" empêche la sérialisation du mot de passe
	Role       string             `json:"role" bson:"role"`
	Name       string             `json:"name,omitempty" bson:"name,omitempty"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Gender     string             `json:"gender,omitempty" bson:"gender,omitempty"`
	Year       string             `json:"year,omitempty" bson:"year,omitempty"`
	Department string             `json:"department,omitempty" bson:"department,omitempty"`
	OTP        string             `json:"-" bson:"otp,omitempty"` // Hash bcrypt du code à usage unique
	OTPExpires *time.Time         `json:"-" bson:"otp_expires,omitempty"`
	IsVerified bool               `json:"is_verified" bson:"is_verified"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsAdmin indique si l'utilisateur est administrateur
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RegisterRequest représente la requête d'inscription
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Gender     string `json:"gender" validate:"omitempty,max=20"`
	Year       string `json:"year" validate:"omitempty,max=20"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest représente la requête de vérification du code OTP
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ResendOTPRequest représente la demande d'un nouveau code OTP
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdateProfileRequest représente la mise à jour du profil
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Gender     *string `json:"gender,omitempty" validate:"omitempty,max=20"`
	Year       *string `json:"year,omitempty" validate:"omitempty,max=20"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=100"`
}

// AuthResponse représente la réponse d'authentification
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

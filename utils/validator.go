package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^(\+91|0)?[6-9]\d{9}$`)

var validate = newValidator()

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string
	Message string
}

// Error implémente l'interface error
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Utiliser le nom JSON des champs dans les messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String()) == nil
	})
	return v
}

// ValidateStruct valide une requête annotée avec des tags `validate`
func ValidateStruct(ctx context.Context, s interface{}) error {
	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}

	fe := vErrors[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "le champ est requis"
	case "email":
		msg = "format d'email invalide"
	case "min", "gte":
		msg = fmt.Sprintf("la valeur minimale est %s", fe.Param())
	case "max", "lte":
		msg = fmt.Sprintf("la valeur maximale est %s", fe.Param())
	case "len":
		msg = fmt.Sprintf("la longueur attendue est %s", fe.Param())
	case "numeric":
		msg = "seuls les chiffres sont acceptés"
	case "phone":
		msg = "format de téléphone invalide"
	default:
		msg = "valeur invalide"
	}
	return ValidationError{Field: fe.Field(), Message: msg}
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "l'email est requis"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}
	return nil
}

// ValidatePassword valide un mot de passe
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est requis"}
	}
	if len(password) < 6 {
		return ValidationError{Field: "password", Message: "le mot de passe doit contenir au moins 6 caractères"}
	}
	return nil
}

// ValidateRequired valide qu'un champ n'est pas vide
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
	}
	return nil
}

// ValidatePhone valide un numéro de mobile indien (10 chiffres, préfixe +91 ou 0 optionnel)
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	phone = strings.NewReplacer(" ", "", ".", "", "-", "").Replace(phone)

	if phone == "" {
		return ValidationError{Field: "phone", Message: "le numéro de téléphone est requis"}
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "phone", Message: "format de téléphone invalide"}
	}
	return nil
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// OTPLength est le nombre de chiffres d'un code de vérification
const OTPLength = 6

// HashPassword hache un mot de passe (ou un code OTP) avec bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("erreur lors du hachage: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPassword vérifie si un mot de passe correspond à son hash
func CheckPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateOTP génère un code numérique aléatoire de OTPLength chiffres
func GenerateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("erreur lors de la génération du code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

package utils

import (
	"testing"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("user123", "test@example.com", "user", "test-secret-key")
	if err != nil {
		t.Fatalf("GenerateToken() erreur = %v", err)
	}
	if token == "" {
		t.Error("GenerateToken() ne doit pas retourner une chaîne vide")
	}
}

func TestValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken("user456", "valid@example.com", "admin", secret)
	if err != nil {
		t.Fatalf("GenerateToken() erreur = %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken() erreur = %v", err)
	}
	if claims.UserID != "user456" {
		t.Errorf("UserID = %v, attendu user456", claims.UserID)
	}
	if claims.Email != "valid@example.com" {
		t.Errorf("Email = %v, attendu valid@example.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %v, attendu admin", claims.Role)
	}
}

func TestValidateTokenMauvaisSecret(t *testing.T) {
	token, _ := GenerateToken("u", "e@e.com", "user", "secret1")
	_, err := ValidateToken(token, "secret2")
	if err == nil {
		t.Error("ValidateToken() devrait échouer avec un mauvais secret")
	}
}

func TestValidateTokenInvalide(t *testing.T) {
	_, err := ValidateToken("invalid-token", "secret")
	if err == nil {
		t.Error("ValidateToken() devrait échouer avec un token invalide")
	}
}

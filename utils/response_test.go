package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campus-events-backend/models"
)

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, http.StatusBadRequest, "Champ invalide")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %v, attendu %v", rr.Code, http.StatusBadRequest)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %v", ct)
	}
	if !strings.Contains(rr.Body.String(), "Bad Request") {
		t.Errorf("Body devrait contenir 'Bad Request', got %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Champ invalide") {
		t.Errorf("Body devrait contenir 'Champ invalide', got %s", rr.Body.String())
	}
}

func TestRespondErrorCode(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondErrorCode(rr, http.StatusConflict, "ALREADY_REGISTERED", "Déjà inscrit")

	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("décodage: %v", err)
	}
	if rr.Code != http.StatusConflict || body.Code != "ALREADY_REGISTERED" || body.Message != "Déjà inscrit" {
		t.Errorf("réponse = %d %+v", rr.Code, body)
	}
}

func TestRespondSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondSuccess(rr, "Succès", map[string]string{"id": "123"})

	if rr.Code != http.StatusOK {
		t.Errorf("Code = %v, attendu 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Succès") {
		t.Errorf("Body devrait contenir 'Succès', got %s", body)
	}
	if !strings.Contains(body, "true") {
		t.Errorf("Body devrait contenir success true, got %s", body)
	}
}

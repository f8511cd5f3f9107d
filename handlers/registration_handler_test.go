package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/middleware"
	"campus-events-backend/models"
	"campus-events-backend/services"
	"campus-events-backend/testutil"
	"campus-events-backend/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type registrationEnv struct {
	router  *mux.Router
	events  *testutil.Events
	regs    *testutil.Registrations
	gateway *testutil.Gateway
	mailer  *testutil.Mailer
	student *models.User
	other   *models.User
}

func newRegistrationEnv(t *testing.T) *registrationEnv {
	t.Helper()

	env := &registrationEnv{
		events:  testutil.NewEvents(),
		regs:    testutil.NewRegistrations(),
		gateway: testutil.NewGateway(),
		mailer:  &testutil.Mailer{},
		student: &models.User{Name: "Asha Kumar", Email: "asha@college.edu"},
		other:   &models.User{Name: "Ravi", Email: "ravi@college.edu"},
	}
	users := testutil.NewUsers(env.student, env.other)
	cfg := &config.Config{
		MinChargeAmount:        50,
		CollegeEmailDomain:     "college.edu",
		PendingRegistrationTTL: 30 * time.Minute,
		Stripe:                 config.StripeConfig{Currency: "inr"},
	}

	dispatcher := services.NewNotificationDispatcher(env.regs, users, env.events, env.mailer, "inr", "http://localhost:3000")
	queue := services.NewInlineQueue(dispatcher)
	payments := services.NewPaymentReconciler(env.regs, env.gateway, queue, nil)
	svc := services.NewRegistrationService(cfg, env.events, users, env.regs, env.gateway, payments, queue, nil)
	h := NewRegistrationHandler(svc, payments)

	env.router = mux.NewRouter()
	env.router.HandleFunc("/api/registrations/webhook", h.Webhook).Methods("POST")
	env.router.HandleFunc("/api/registrations/register", h.Register).Methods("POST")
	env.router.HandleFunc("/api/registrations/me", h.GetMine).Methods("GET")
	env.router.HandleFunc("/api/registrations/{id}", h.Get).Methods("GET")
	env.router.HandleFunc("/api/registrations/{id}", h.Delete).Methods("DELETE")
	env.router.HandleFunc("/api/registrations/{id}/send-receipt", h.SendReceipt).Methods("POST")
	return env
}

func (env *registrationEnv) do(t *testing.T, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), &utils.Claims{
			UserID: user.ID.Hex(),
			Email:  user.Email,
			Role:   user.Role,
		}))
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (env *registrationEnv) paidEvent() *models.Event {
	event := &models.Event{
		Name:       "Code Sprint",
		Department: models.DepartmentCommon,
		RegistrationDetails: models.RegistrationDetails{
			FeePerHead: 300,
		},
	}
	env.events.Add(event)
	return event
}

func TestRegistrationHandler_RegisterPaid(t *testing.T) {
	env := newRegistrationEnv(t)
	event := env.paidEvent()

	rr := env.do(t, http.MethodPost, "/api/registrations/register", env.student, map[string]interface{}{
		"eventId":    event.ID.Hex(),
		"department": "CSE",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp models.RegistrationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.PaymentPending, resp.Registration.PaymentStatus)
	assert.Equal(t, "pi_test_1_secret", resp.ClientSecret)
}

func TestRegistrationHandler_RegisterRejections(t *testing.T) {
	env := newRegistrationEnv(t)

	t.Run("non authentifié", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/registrations/register", nil, map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/registrations/register", env.student, map[string]string{"department": "CSE"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Code)
	})

	t.Run("événement inconnu", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/registrations/register", env.student, map[string]string{
			"eventId":    primitive.NewObjectID().Hex(),
			"department": "CSE",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "EVENT_NOT_FOUND", decodeError(t, rr).Code)
	})

	t.Run("déjà inscrit", func(t *testing.T) {
		event := env.paidEvent()
		body := map[string]string{"eventId": event.ID.Hex(), "department": "CSE"}
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/registrations/register", env.student, body).Code)

		rr := env.do(t, http.MethodPost, "/api/registrations/register", env.student, body)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "ALREADY_REGISTERED", decodeError(t, rr).Code)
	})

	t.Run("processeur indisponible", func(t *testing.T) {
		event := env.paidEvent()
		env.gateway.CreateErr = fmt.Errorf("stripe down")
		defer func() { env.gateway.CreateErr = nil }()

		rr := env.do(t, http.MethodPost, "/api/registrations/register", env.other, map[string]string{
			"eventId":    event.ID.Hex(),
			"department": "CSE",
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Erreur serveur", decodeError(t, rr).Message)
	})
}

func TestRegistrationHandler_Cancel(t *testing.T) {
	env := newRegistrationEnv(t)
	event := env.paidEvent()

	pending := &models.Registration{EventID: event.ID, UserID: env.student.ID, PaymentStatus: models.PaymentPending, PaymentIntentID: "pi_x"}
	env.regs.Put(pending)
	env.gateway.AddIntent("pi_x", "requires_payment_method")
	completed := &models.Registration{EventID: primitive.NewObjectID(), UserID: env.student.ID, PaymentStatus: models.PaymentCompleted}
	env.regs.Put(completed)

	t.Run("autre utilisateur refusé", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/registrations/"+pending.ID.Hex(), env.other, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("payée refusée", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/registrations/"+completed.ID.Hex(), env.student, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		_, ok := env.regs.Get(completed.ID)
		assert.True(t, ok)
	})

	t.Run("en attente annulée", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/registrations/"+pending.ID.Hex(), env.student, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		_, ok := env.regs.Get(pending.ID)
		assert.False(t, ok)
		assert.Contains(t, env.gateway.Cancelled, "pi_x")
	})

	t.Run("identifiant invalide", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/registrations/nope", env.student, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("inconnue", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/registrations/"+primitive.NewObjectID().Hex(), env.student, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRegistrationHandler_SendReceipt(t *testing.T) {
	env := newRegistrationEnv(t)
	event := env.paidEvent()

	completed := &models.Registration{EventID: event.ID, UserID: env.student.ID, PaymentStatus: models.PaymentCompleted, EmailSent: true}
	env.regs.Put(completed)
	pending := &models.Registration{EventID: primitive.NewObjectID(), UserID: env.student.ID, PaymentStatus: models.PaymentPending}
	env.regs.Put(pending)

	rr := env.do(t, http.MethodPost, "/api/registrations/"+completed.ID.Hex()+"/send-receipt", env.student, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.mailer.Count())

	rr = env.do(t, http.MethodPost, "/api/registrations/"+pending.ID.Hex()+"/send-receipt", env.student, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegistrationHandler_GetMine(t *testing.T) {
	env := newRegistrationEnv(t)
	env.regs.Put(&models.Registration{EventID: primitive.NewObjectID(), UserID: env.student.ID, PaymentStatus: models.PaymentCompleted})
	env.regs.Put(&models.Registration{EventID: primitive.NewObjectID(), UserID: env.other.ID, PaymentStatus: models.PaymentCompleted})

	rr := env.do(t, http.MethodGet, "/api/registrations/me", env.student, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestRegistrationHandler_Webhook(t *testing.T) {
	env := newRegistrationEnv(t)

	t.Run("signature invalide", func(t *testing.T) {
		env.gateway.ParseErr = fmt.Errorf("%w: bad header", services.ErrInvalidSignature)
		defer func() { env.gateway.ParseErr = nil }()

		rr := env.do(t, http.MethodPost, "/api/registrations/webhook", nil, map[string]string{"id": "evt_1"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("paiement réussi", func(t *testing.T) {
		event := env.paidEvent()
		reg := &models.Registration{EventID: event.ID, UserID: env.student.ID, PaymentStatus: models.PaymentPending, PaymentIntentID: "pi_ok"}
		env.regs.Put(reg)
		env.gateway.Webhook = &models.WebhookEvent{ID: "evt_2", Type: models.WebhookPaymentSucceeded, IntentID: "pi_ok", ChargeID: "ch_1"}

		rr := env.do(t, http.MethodPost, "/api/registrations/webhook", nil, map[string]string{"id": "evt_2"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true}`, rr.Body.String())

		stored, _ := env.regs.Get(reg.ID)
		assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
		assert.Equal(t, "ch_1", stored.PaymentID)
		assert.True(t, stored.EmailSent)
	})

	t.Run("intention inconnue acceptée", func(t *testing.T) {
		env.gateway.Webhook = &models.WebhookEvent{ID: "evt_3", Type: models.WebhookPaymentFailed, IntentID: "pi_unknown"}
		rr := env.do(t, http.MethodPost, "/api/registrations/webhook", nil, map[string]string{"id": "evt_3"})
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

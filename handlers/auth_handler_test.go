package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/testutil"
	"campus-events-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: make(map[string]*models.User)}
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, ok := s.byEmail[user.Email]; ok {
		return database.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	copied := *user
	s.byEmail[user.Email] = &copied
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) byID(id primitive.ObjectID) *models.User {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *memUserStore) SetOTP(_ context.Context, id primitive.ObjectID, otpHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.byID(id); u != nil {
		u.OTP = otpHash
		u.OTPExpires = &expires
	}
	return nil
}

func (s *memUserStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.byID(id); u != nil {
		u.IsVerified = true
		u.OTP = ""
		u.OTPExpires = nil
	}
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

var otpPattern = regexp.MustCompile(`est : (\d{6})`)

func lastOTP(t *testing.T, mailer *testutil.Mailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.Sent)
	match := otpPattern.FindStringSubmatch(mailer.Sent[len(mailer.Sent)-1].Text)
	require.Len(t, match, 2)
	return match[1]
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func newAuthHandlerForTest(limiter RateLimiter) (*AuthHandler, *memUserStore, *testutil.Mailer) {
	users := newMemUserStore()
	mailer := &testutil.Mailer{}
	cfg := &config.Config{JWTSecret: "test-secret", OTPTTL: 10 * time.Minute, AdminEmails: []string{"dean@college.edu"}}
	return NewAuthHandler(users, mailer, limiter, cfg), users, mailer
}

func TestAuthHandler_RegisterVerifyLogin(t *testing.T) {
	h, _, mailer := newAuthHandlerForTest(nil)

	rr := postJSON(t, h.Register, `{"name":"Asha","email":"Asha@College.edu","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"asha@college.edu"}, mailer.Recipients())

	rr = postJSON(t, h.Login, `{"email":"asha@college.edu","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	wrong := "000000"
	if lastOTP(t, mailer) == wrong {
		wrong = "111111"
	}
	rr = postJSON(t, h.VerifyOTP, `{"email":"asha@college.edu","otp":"`+wrong+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h.VerifyOTP, `{"email":"asha@college.edu","otp":"`+lastOTP(t, mailer)+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	assert.True(t, auth.User.IsVerified)
	claims, err := utils.ValidateToken(auth.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	rr = postJSON(t, h.Login, `{"email":"asha@college.edu","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postJSON(t, h.Login, `{"email":"asha@college.edu","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthHandler_RegisterAdminRoleAndDuplicate(t *testing.T) {
	h, users, _ := newAuthHandlerForTest(nil)

	rr := postJSON(t, h.Register, `{"name":"Dean","email":"dean@college.edu","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	user, _ := users.FindByEmail(context.Background(), "dean@college.edu")
	require.NotNil(t, user)
	assert.Equal(t, models.RoleAdmin, user.Role)

	rr = postJSON(t, h.Register, `{"name":"Dean","email":"DEAN@college.edu","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	h, _, _ := newAuthHandlerForTest(nil)

	rr := postJSON(t, h.Register, `{"name":"Asha","email":"not-an-email","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h.Register, `{"name":"Asha","email":"asha@college.edu","password":"secret1","phone":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h.Register, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_ResendOTP(t *testing.T) {
	t.Run("nouveau code", func(t *testing.T) {
		h, _, mailer := newAuthHandlerForTest(nil)
		require.Equal(t, http.StatusCreated, postJSON(t, h.Register, `{"name":"Asha","email":"asha@college.edu","password":"secret1"}`).Code)

		rr := postJSON(t, h.ResendOTP, `{"email":"asha@college.edu"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, mailer.Count())

		rr = postJSON(t, h.VerifyOTP, `{"email":"asha@college.edu","otp":"`+lastOTP(t, mailer)+`"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("compte inconnu", func(t *testing.T) {
		h, _, mailer := newAuthHandlerForTest(nil)
		rr := postJSON(t, h.ResendOTP, `{"email":"ghost@college.edu"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Zero(t, mailer.Count())
	})

	t.Run("limite atteinte", func(t *testing.T) {
		h, _, _ := newAuthHandlerForTest(denyLimiter{})
		rr := postJSON(t, h.ResendOTP, `{"email":"asha@college.edu"}`)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})
}

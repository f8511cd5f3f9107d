package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/services"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthUserStore est la partie du dépôt utilisateurs utilisée par l'authentification
type AuthUserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetOTP(ctx context.Context, id primitive.ObjectID, otpHash string, expires time.Time) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

// RateLimiter limite les renvois de code OTP (Redis)
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AuthHandler gère les requêtes d'authentification
type AuthHandler struct {
	users   AuthUserStore
	mailer  services.Mailer
	limiter RateLimiter
	cfg     *config.Config
}

// NewAuthHandler crée une nouvelle instance de AuthHandler. limiter peut être nil.
func NewAuthHandler(users AuthUserStore, mailer services.Mailer, limiter RateLimiter, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, mailer: mailer, limiter: limiter, cfg: cfg}
}

// Register crée un compte non vérifié et envoie un code OTP par email
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Phone != "" {
		if err := utils.ValidatePhone(req.Phone); err != nil {
			utils.RespondErrorCode(w, http.StatusBadRequest, constants.CodeValidation, err.Error())
			return
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors du hachage du mot de passe")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	role := models.RoleUser
	if h.cfg.IsAdminEmail(req.Email) {
		role = models.RoleAdmin
	}

	user := &models.User{
		Email:      req.Email,
		Password:   hashedPassword,
		Role:       role,
		Name:       req.Name,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Year:       req.Year,
		Department: req.Department,
	}

	code, err := h.assignOTP(user)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la génération du code OTP")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, constants.ErrEmailAlreadyUsed)
			return
		}
		log.Error().Err(err).Msg("❌ Erreur lors de la création de l'utilisateur")
		utils.RespondError(w, http.StatusInternalServerError, "Erreur lors de la création du compte")
		return
	}

	h.sendOTP(r.Context(), user, code)
	log.Info().Str("email", user.Email).Str("role", user.Role).Msg("✓ Nouveau compte créé")

	utils.RespondJSON(w, http.StatusCreated, models.SuccessResponse{
		Success: true,
		Message: "Compte créé, un code de vérification a été envoyé par email",
	})
}

// VerifyOTP valide le compte avec le code reçu et retourne un token
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la recherche de l'utilisateur")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if user == nil || user.OTPExpires == nil || time.Now().After(*user.OTPExpires) || !utils.CheckPassword(user.OTP, req.OTP) {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidOTP)
		return
	}

	if err := h.users.MarkVerified(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la validation du compte")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	user.IsVerified = true
	user.OTP = ""
	user.OTPExpires = nil

	h.respondWithToken(w, user)
}

// Login authentifie un utilisateur vérifié
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la recherche de l'utilisateur")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if user == nil || !utils.CheckPassword(user.Password, req.Password) {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidCredentials)
		return
	}
	if !user.IsVerified {
		utils.RespondError(w, http.StatusForbidden, constants.ErrAccountNotVerified)
		return
	}

	log.Info().Str("email", user.Email).Msg("✓ Connexion réussie")
	h.respondWithToken(w, user)
}

// ResendOTP renvoie un nouveau code. La réponse est identique que le compte existe ou non.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.ResendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), req.Email)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Limiteur OTP indisponible")
		} else if !allowed {
			utils.RespondError(w, http.StatusTooManyRequests, constants.ErrTooManyRequests)
			return
		}
	}

	generic := "Si un compte non vérifié existe pour cet email, un nouveau code a été envoyé"

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la recherche de l'utilisateur")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if user == nil || user.IsVerified {
		utils.RespondSuccess(w, generic, nil)
		return
	}

	code, err := h.assignOTP(user)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la génération du code OTP")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if err := h.users.SetOTP(r.Context(), user.ID, user.OTP, *user.OTPExpires); err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de l'enregistrement du code OTP")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	h.sendOTP(r.Context(), user, code)
	utils.RespondSuccess(w, generic, nil)
}

// assignOTP génère un code, en stocke le hash sur l'utilisateur et retourne le code en clair
func (h *AuthHandler) assignOTP(user *models.User) (string, error) {
	code, err := utils.GenerateOTP()
	if err != nil {
		return "", err
	}
	hash, err := utils.HashPassword(code)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(h.cfg.OTPTTL)
	user.OTP = hash
	user.OTPExpires = &expires
	return code, nil
}

func (h *AuthHandler) sendOTP(ctx context.Context, user *models.User, code string) {
	envelope, err := services.OTPEnvelope(user.Email, user.Name, code, h.cfg.OTPTTL)
	if err == nil {
		err = h.mailer.Send(ctx, envelope)
	}
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("❌ Envoi du code OTP impossible")
		return
	}
	log.Info().Str("email", user.Email).Msg("📧 Code OTP envoyé")
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.cfg.JWTSecret)
	if err != nil {
		log.Error().Err(err).Msg("❌ Erreur lors de la génération du token")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: *user})
}

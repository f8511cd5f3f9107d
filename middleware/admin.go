package middleware

import (
	"context"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/models"
	"campus-events-backend/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLookup est la partie du dépôt utilisateurs dont le middleware a besoin
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// RequireAdmin vérifie que l'utilisateur est un administrateur.
// Le rôle du token est relu en base pour qu'une rétrogradation prenne effet immédiatement.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
				return
			}
			if claims.Role != models.RoleAdmin {
				utils.RespondError(w, http.StatusForbidden, constants.ErrAdminOnly)
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("❌ Erreur lors de la vérification admin")
				utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
				return
			}
			if user == nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrUserNotFound)
				return
			}
			if !user.IsAdmin() {
				log.Warn().Str("email", user.Email).Msg("⚠️  Accès admin refusé")
				utils.RespondError(w, http.StatusForbidden, constants.ErrAdminOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

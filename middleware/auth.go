package middleware

import (
	"context"
	"net/http"
	"strings"

	"campus-events-backend/constants"
	"campus-events-backend/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// bearerToken extrait le token du header Authorization ("Bearer <token>")
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth vérifie le token JWT
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Token d'authentification manquant")
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Format du token invalide")
				return
			}

			claims, err := utils.ValidateToken(tokenString, jwtSecret)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext récupère les informations de l'utilisateur depuis le contexte
func GetUserFromContext(ctx context.Context) *utils.Claims {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims injecte des claims dans le contexte (utilisé par les tests des handlers)
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

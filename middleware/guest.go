package middleware

import (
	"net/http"

	"campus-events-backend/utils"
)

// Guest vérifie que l'utilisateur n'est PAS connecté
// Si un token valide est présent, refuse l'accès
func Guest(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// Token invalide ou expiré : normal pour une nouvelle connexion
			if _, err := utils.ValidateToken(tokenString, jwtSecret); err == nil {
				utils.RespondError(w, http.StatusForbidden, "Vous êtes déjà connecté")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

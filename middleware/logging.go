package middleware

import (
	"context"
	"net/http"
	"time"

	"campus-events-backend/constants"
	"campus-events-backend/monitoring"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const requestIDKey contextKey = "request_id"

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ErrorAlerter reçoit les erreurs serveur (Slack en production)
type ErrorAlerter interface {
	SendCriticalError(ctx context.Context, method, path string, status int, requestID string) error
}

// RequestIDFromContext retourne l'identifiant de requête courant
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Logging attribue un X-Request-ID, mesure la durée et journalise les erreurs.
// Les 5xx sont transmises à l'alerter s'il est fourni.
func Logging(alerter ErrorAlerter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(constants.HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(constants.HeaderRequestID, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			status := rw.statusCode
			monitoring.TrackHTTP(r.Method, status, duration)

			switch {
			case status >= http.StatusInternalServerError:
				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Dur("duration", duration).
					Msg("❌ Erreur serveur")
				if alerter != nil {
					go func() {
						ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						if err := alerter.SendCriticalError(ctx, r.Method, r.URL.Path, status, requestID); err != nil {
							log.Warn().Err(err).Msg("⚠️  Alerte Slack non envoyée")
						}
					}()
				}
			case status >= http.StatusBadRequest:
				log.Warn().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Dur("duration", duration).
					Msg("⚠️ Requête rejetée")
			default:
				log.Debug().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Dur("duration", duration).
					Msg("requête")
			}
		})
	}
}

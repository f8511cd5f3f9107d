package handlers

import (
	"net/http"
	"runtime"
	"time"

	"campus-events-backend/database"
	"campus-events-backend/utils"
)

var startTime = time.Now()

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	redisPing   func() error
}

// NewHealthHandler crée un nouveau HealthHandler. redisPing peut être nil quand Redis n'est pas configuré.
func NewHealthHandler(environment string, redisPing func() error) *HealthHandler {
	return &HealthHandler{environment: environment, redisPing: redisPing}
}

// Health retourne l'état de santé du serveur
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "error"
	}

	redisStatus := "disabled"
	if h.redisPing != nil {
		redisStatus = "ok"
		if err := h.redisPing(); err != nil {
			redisStatus = "error"
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"message":      "Le serveur fonctionne correctement",
		"env":          h.environment,
		"database":     "MongoDB",
		"db_status":    dbStatus,
		"redis_status": redisStatus,
		"uptime":       time.Since(startTime).String(),
		"go_version":   runtime.Version(),
	})
}

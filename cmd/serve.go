package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"campus-events-backend/cache"
	"campus-events-backend/handlers"
	"campus-events-backend/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Démarre le serveur HTTP et les tâches de maintenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		return a.serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func (a *app) router() *mux.Router {
	cfg := a.cfg

	var alerter middleware.ErrorAlerter
	if a.slack.Enabled() {
		alerter = a.slack
	}

	var limiter handlers.RateLimiter
	if l := a.otpLimiter(); l != nil {
		limiter = l
	}

	var redisPing func() error
	if a.redis != nil {
		redisPing = func() error { return cache.HealthCheck(a.redis) }
	}

	healthHandler := handlers.NewHealthHandler(cfg.Environment, redisPing)
	authHandler := handlers.NewAuthHandler(a.users, a.mailer, limiter, cfg)
	userHandler := handlers.NewUserHandler(a.users)
	eventHandler := handlers.NewEventHandler(a.events)
	registrationHandler := handlers.NewRegistrationHandler(a.registrationS, a.payments)
	feedbackHandler := handlers.NewFeedbackHandler(a.feedback, a.registrations)
	fcmHandler := handlers.NewFCMHandler(a.fcmTokens)
	adminHandler := handlers.NewAdminHandler(a.users, a.events, a.registrations, a.feedback, a.storage)
	uploadHandler := handlers.NewUploadHandler(a.events, a.registrations, a.storage)

	router := mux.NewRouter()
	router.Use(middleware.Logging(alerter))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/api/health", healthHandler.Health).Methods("GET", "OPTIONS")

	// Routes publiques réservées aux visiteurs non connectés
	guest := middleware.Guest(cfg.JWTSecret)
	router.Handle("/api/auth/register", guest(http.HandlerFunc(authHandler.Register))).Methods("POST", "OPTIONS")
	router.Handle("/api/auth/verify-otp", guest(http.HandlerFunc(authHandler.VerifyOTP))).Methods("POST", "OPTIONS")
	router.Handle("/api/auth/login", guest(http.HandlerFunc(authHandler.Login))).Methods("POST", "OPTIONS")
	router.Handle("/api/auth/resend-otp", guest(http.HandlerFunc(authHandler.ResendOTP))).Methods("POST", "OPTIONS")

	// Routes publiques des événements
	router.HandleFunc("/api/events", eventHandler.GetPublicEvents).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/events/{event_id}", eventHandler.GetPublicEvent).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/events/{event_id}/sub-events", eventHandler.GetSubEvents).Methods("GET", "OPTIONS")

	// Webhook du processeur de paiement (authentifié par signature)
	router.HandleFunc("/api/registrations/webhook", registrationHandler.Webhook).Methods("POST")

	// Routes protégées
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/registrations/register", registrationHandler.Register).Methods("POST", "OPTIONS")
	protected.HandleFunc("/registrations/me", registrationHandler.GetMine).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{id}", registrationHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{id}", registrationHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/registrations/{id}/send-receipt", registrationHandler.SendReceipt).Methods("POST", "OPTIONS")

	protected.HandleFunc("/feedback", feedbackHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/fcm/subscribe", fcmHandler.Subscribe).Methods("POST", "OPTIONS")

	// Routes Admin (protégées par Auth + RequireAdmin)
	adminRouter := protected.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.RequireAdmin(a.users))

	adminRouter.HandleFunc("/stats", adminHandler.GetStats).Methods("GET", "OPTIONS")
	adminRouter.HandleFunc("/users", adminHandler.GetUsers).Methods("GET", "OPTIONS")
	adminRouter.HandleFunc("/events", adminHandler.CreateEvent).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}", adminHandler.UpdateEvent).Methods("PUT", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}", adminHandler.DeleteEvent).Methods("DELETE", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}/poster", uploadHandler.UploadPoster).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}/poster", uploadHandler.DeletePoster).Methods("DELETE", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}/registrations", adminHandler.GetEventRegistrations).Methods("GET", "OPTIONS")
	adminRouter.HandleFunc("/events/{event_id}/feedback", adminHandler.GetEventFeedback).Methods("GET", "OPTIONS")
	adminRouter.HandleFunc("/registrations/{id}/certificate", uploadHandler.UploadCertificate).Methods("POST", "OPTIONS")

	return router
}

// serve démarre le worker de notifications, le cron et le serveur HTTP jusqu'à l'annulation de ctx
func (a *app) serve(ctx context.Context) error {
	if a.rabbit != nil {
		go func() {
			if err := a.rabbit.Consume(ctx, a.dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("❌ Worker de notifications arrêté")
			}
		}()
	}

	if err := a.housekeeping.Start(); err != nil {
		return fmt.Errorf("démarrage du cron de maintenance: %w", err)
	}
	defer a.housekeeping.Stop()

	addr := fmt.Sprintf("%s:%s", a.cfg.Host, a.cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", a.cfg.Environment).Msg("🚀 Serveur démarré")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("🛑 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("arrêt du serveur: %w", err)
	}
	log.Info().Msg("✓ Serveur arrêté proprement")
	return nil
}

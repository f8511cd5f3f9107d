package cmd

import (
	"context"
	"time"

	"campus-events-backend/cache"
	"campus-events-backend/config"
	"campus-events-backend/database"
	"campus-events-backend/logging"
	"campus-events-backend/services"
	"campus-events-backend/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	webhookDedupTTL = 24 * time.Hour
	otpResendLimit  = 5
	otpResendWindow = time.Hour
)

// app regroupe les dépendances partagées par serve et sweep
type app struct {
	cfg *config.Config

	users         *database.UserRepository
	events        *database.EventRepository
	registrations *database.RegistrationRepository
	feedback      *database.FeedbackRepository
	fcmTokens     *database.FCMTokenRepository

	redis   *redis.Client
	rabbit  *services.RabbitQueue
	mailer  services.Mailer
	gateway *services.StripeGateway
	storage storage.ObjectStorage

	dispatcher    *services.NotificationDispatcher
	queue         services.NotificationQueue
	payments      *services.PaymentReconciler
	registrationS *services.RegistrationService
	housekeeping  *services.Housekeeping
	slack         *services.SlackService
}

// newApp charge la configuration, ouvre les connexions et construit les services.
// Redis, RabbitMQ, Firebase et le stockage objet sont optionnels.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Environment, cfg.LogLevel)

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		return nil, err
	}

	a := &app{
		cfg:           cfg,
		users:         database.NewUserRepository(database.DB),
		events:        database.NewEventRepository(database.DB),
		registrations: database.NewRegistrationRepository(database.DB),
		feedback:      database.NewFeedbackRepository(database.DB),
		fcmTokens:     database.NewFCMTokenRepository(database.DB),
		gateway:       services.NewStripeGateway(cfg.Stripe),
		slack:         services.NewSlackService(cfg.SlackWebhookURL),
	}

	if cfg.Stripe.SecretKey == "" {
		log.Warn().Msg("⚠️  STRIPE_SECRET_KEY non configuré - les inscriptions payantes échoueront")
	}

	if cfg.SMTP.Host != "" {
		a.mailer = services.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Warn().Msg("⚠️  SMTP non configuré - les emails sont seulement journalisés")
		a.mailer = services.NewLogMailer()
	}

	var dedup services.EventDeduplicator
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Redis indisponible - déduplication des webhooks et limite OTP désactivées")
		} else {
			a.redis = client
			dedup = cache.NewWebhookDedup(client, webhookDedupTTL)
		}
	}

	a.dispatcher = services.NewNotificationDispatcher(a.registrations, a.users, a.events, a.mailer, cfg.Stripe.Currency, cfg.FrontendURL)
	a.queue = services.NewInlineQueue(a.dispatcher)
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := services.NewRabbitQueue(cfg.RabbitMQ)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  RabbitMQ indisponible - envoi des emails dans la requête")
		} else {
			a.rabbit = rabbit
			a.queue = rabbit
		}
	}

	var alerts services.AdminNotifier
	fcm, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  Firebase non initialisé - pas d'alertes push pour les admins")
	} else {
		alerts = services.NewAdminAlerts(a.users, a.fcmTokens, fcm)
	}

	a.payments = services.NewPaymentReconciler(a.registrations, a.gateway, a.queue, dedup)
	a.registrationS = services.NewRegistrationService(cfg, a.events, a.users, a.registrations, a.gateway, a.payments, a.queue, alerts)
	a.housekeeping = services.NewHousekeeping(a.registrations, a.gateway, a.payments, a.dispatcher,
		cfg.PendingRegistrationTTL, cfg.AutoNotifyEnabled, cfg.AutoNotifyInterval)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Storage).Msg("⚠️  Stockage objet indisponible - uploads désactivés")
	} else {
		a.storage = store
		log.Info().Str("backend", store.Name()).Msg("✓ Stockage objet prêt")
	}

	return a, nil
}

// otpLimiter retourne le limiteur OTP, nil sans Redis
func (a *app) otpLimiter() *cache.OTPLimiter {
	if a.redis == nil {
		return nil
	}
	return cache.NewOTPLimiter(a.redis, otpResendLimit, otpResendWindow)
}

func (a *app) close() {
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Fermeture RabbitMQ")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := database.Close(); err != nil {
		log.Warn().Err(err).Msg("⚠️  Fermeture MongoDB")
	}
}

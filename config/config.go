package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StripeConfig contient les clés du processeur de paiement
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// SMTPConfig contient la configuration d'envoi des emails
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// CloudinaryConfig contient les identifiants Cloudinary
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// MinioConfig contient la configuration MinIO
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// GCSConfig contient la configuration Google Cloud Storage
type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

// RabbitMQConfig contient la configuration de la file de notifications
type RabbitMQConfig struct {
	URL               string
	NotificationQueue string
	PrefetchCount     int
}

// Config contient toutes les configurations de l'application
type Config struct {
	Port               string
	Host               string
	Environment        string
	LogLevel           string
	MongoURI           string
	MongoDB            string
	JWTSecret          string
	CORSOrigins        []string
	AdminEmails        []string
	CollegeEmailDomain string
	FrontendURL        string

	Stripe                 StripeConfig
	MinChargeAmount        float64
	PendingRegistrationTTL time.Duration
	AutoNotifyEnabled      bool
	AutoNotifyInterval     time.Duration
	OTPTTL                 time.Duration

	SMTP       SMTPConfig
	RedisURL   string
	RabbitMQ   RabbitMQConfig
	Storage    string
	Cloudinary CloudinaryConfig
	Minio      MinioConfig
	GCS        GCSConfig

	FirebaseCredentialsFile string
	SlackWebhookURL         string
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "8090"),
		Host:               getEnv("HOST", "0.0.0.0"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "campus_events"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		AdminEmails:        lowerAll(getEnvAsList("ADMIN_EMAILS", "")),
		CollegeEmailDomain: strings.ToLower(getEnv("COLLEGE_EMAIL_DOMAIN", "")),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),

		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "inr")),
		},
		MinChargeAmount:        getEnvAsFloat("MIN_CHARGE_AMOUNT", 50),
		PendingRegistrationTTL: time.Duration(getEnvAsInt("PENDING_REGISTRATION_TTL_MINUTES", 30)) * time.Minute,
		AutoNotifyEnabled:      getEnvAsBool("AUTO_NOTIFY_ENABLED", false),
		AutoNotifyInterval:     time.Duration(getEnvAsInt("AUTO_NOTIFY_INTERVAL_MS", 300000)) * time.Millisecond,
		OTPTTL:                 time.Duration(getEnvAsInt("OTP_TTL_MINUTES", 10)) * time.Minute,

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@campus-events.local"),
			FromName: getEnv("SMTP_FROM_NAME", "Campus Events"),
		},
		RedisURL: getEnv("REDIS_URL", ""),
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			NotificationQueue: getEnv("RABBITMQ_NOTIFICATION_QUEUE", "notifications"),
			PrefetchCount:     getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Storage: strings.ToLower(getEnv("STORAGE_BACKEND", "cloudinary")),
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "campus-events"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "campus-events"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "firebase-service-account.json"),
		SlackWebhookURL:         getEnv("SLACK_WEBHOOK_URL", ""),
	}

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	if config.MinChargeAmount < 0 {
		return nil, fmt.Errorf("MIN_CHARGE_AMOUNT doit être positif")
	}
	if config.PendingRegistrationTTL <= 0 {
		return nil, fmt.Errorf("PENDING_REGISTRATION_TTL_MINUTES doit être strictement positif")
	}
	if config.AutoNotifyEnabled && config.AutoNotifyInterval < time.Second {
		return nil, fmt.Errorf("AUTO_NOTIFY_INTERVAL_MS doit valoir au moins 1000")
	}

	return config, nil
}

// IsAdminEmail indique si l'email figure dans la liste des administrateurs
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

// IsProduction indique si l'application tourne en production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList découpe une liste séparée par des virgules en ignorant les entrées vides
func getEnvAsList(key, defaultValue string) []string {
	raw := strings.Split(getEnv(key, defaultValue), ",")
	list := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

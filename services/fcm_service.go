package services

import (
	"context"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// FCM accepte au plus 500 tokens par requête multicast
const fcmBatchSize = 500

// FCMService gère l'envoi des notifications via Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService crée une nouvelle instance de FCMService
func NewFCMService(ctx context.Context, credentialsFile string) (*FCMService, error) {
	var opt option.ClientOption
	if credentialsJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON"); credentialsJSON != "" {
		log.Info().Msg("📦 Utilisation des credentials Firebase depuis FIREBASE_CREDENTIALS_JSON")
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	} else {
		log.Info().Str("file", credentialsFile).Msg("📦 Utilisation des credentials Firebase depuis le fichier")
		opt = option.WithCredentialsFile(credentialsFile)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'initialisation de Firebase: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création du client FCM: %w", err)
	}

	log.Info().Msg("✓ Firebase Cloud Messaging initialisé")
	return &FCMService{client: client}, nil
}

// NewDisabledFCMService retourne un service sans client : les envois sont ignorés
func NewDisabledFCMService() *FCMService {
	return &FCMService{}
}

// Enabled indique si Firebase est configuré
func (s *FCMService) Enabled() bool {
	return s.client != nil
}

// SendToMultipleTokens envoie un data message à un lot de tokens
func (s *FCMService) SendToMultipleTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (success int, failed int, failedTokens []string, err error) {
	if len(tokens) == 0 || !s.Enabled() {
		return 0, 0, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Data messages uniquement : le client affiche lui-même la notification
	payload := make(map[string]string, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["title"] = title
	payload["message"] = body

	response, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Data: payload,
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"Urgency": "high"},
		},
		Tokens: tokens,
	})
	if err != nil {
		return 0, 0, nil, fmt.Errorf("erreur lors de l'envoi multicast: %w", err)
	}

	failedTokens = make([]string, 0)
	for idx, resp := range response.Responses {
		if !resp.Success {
			failedTokens = append(failedTokens, tokens[idx])
			log.Debug().Err(resp.Error).Msg("Échec d'envoi FCM pour un token")
		}
	}

	log.Info().Int("success", response.SuccessCount).Int("failed", response.FailureCount).Int("total", len(tokens)).Msg("📊 Envoi multicast")
	return response.SuccessCount, response.FailureCount, failedTokens, nil
}

// SendToAll découpe les tokens en lots et les envoie tous
func (s *FCMService) SendToAll(ctx context.Context, tokens []string, title, body string, data map[string]string) (success int, failed int, failedTokens []string) {
	failedTokens = make([]string, 0)
	if !s.Enabled() {
		return 0, 0, failedTokens
	}

	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := min(i+fcmBatchSize, len(tokens))
		batch := tokens[i:end]

		ok, ko, ft, err := s.SendToMultipleTokens(ctx, batch, title, body, data)
		if err != nil {
			log.Error().Err(err).Int("batch", i/fcmBatchSize+1).Msg("❌ Erreur d'envoi FCM")
			failed += len(batch)
			continue
		}
		success += ok
		failed += ko
		failedTokens = append(failedTokens, ft...)
	}
	return success, failed, failedTokens
}

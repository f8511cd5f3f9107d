package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// SlackService envoie les alertes d'exploitation sur un webhook Slack entrant
type SlackService struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage représente un message Slack
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment représente une pièce jointe Slack
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field représente un champ dans une pièce jointe Slack
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackService crée le service ; une URL vide le désactive
func NewSlackService(webhookURL string) *SlackService {
	if webhookURL == "" {
		log.Warn().Msg("⚠️  Slack webhook URL non configuré - alertes Slack désactivées")
	}
	return &SlackService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled indique si un webhook est configuré
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// SendCriticalError signale une réponse 5xx
func (s *SlackService) SendCriticalError(ctx context.Context, method, path string, status int, requestID string) error {
	return s.send(ctx, SlackMessage{
		Attachments: []Attachment{{
			Color: "danger",
			Title: fmt.Sprintf("🚨 Erreur serveur %d", status),
			Text:  http.StatusText(status),
			Fields: []Field{
				{Title: "Route", Value: method + " " + path, Short: true},
				{Title: "Request ID", Value: requestID, Short: true},
			},
			Timestamp: time.Now().Unix(),
			Footer:    "campus-events-backend",
		}},
	})
}

func (s *SlackService) send(ctx context.Context, msg SlackMessage) error {
	if !s.Enabled() {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du message Slack: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack a répondu %d", resp.StatusCode)
	}
	return nil
}

// Package testutil fournit des implémentations en mémoire des dépôts et services externes
// pour les tests unitaires.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-events-backend/database"
	"campus-events-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Events est un dépôt d'événements en mémoire
type Events struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Event
}

// NewEvents crée le dépôt avec des événements initiaux (un ID est attribué si absent)
func NewEvents(events ...*models.Event) *Events {
	e := &Events{byID: make(map[primitive.ObjectID]models.Event)}
	for _, ev := range events {
		e.Add(ev)
	}
	return e
}

// Add ajoute ou remplace un événement
func (e *Events) Add(event *models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	e.byID[event.ID] = *event
}

func (e *Events) FindByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev, ok := e.byID[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

// Users est un dépôt d'utilisateurs en mémoire
type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

// NewUsers crée le dépôt avec des utilisateurs initiaux
func NewUsers(users ...*models.User) *Users {
	u := &Users{byID: make(map[primitive.ObjectID]models.User)}
	for _, user := range users {
		u.Add(user)
	}
	return u
}

// Add ajoute ou remplace un utilisateur
func (u *Users) Add(user *models.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	u.byID[user.ID] = *user
}

func (u *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *Users) FindAdmins(_ context.Context) ([]models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var admins []models.User
	for _, user := range u.byID {
		if user.IsAdmin() {
			admins = append(admins, user)
		}
	}
	return admins, nil
}

// Registrations est un dépôt d'inscriptions en mémoire qui respecte l'index unique (event_id, user_id)
type Registrations struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Registration
}

// NewRegistrations crée un dépôt vide
func NewRegistrations() *Registrations {
	return &Registrations{byID: make(map[primitive.ObjectID]models.Registration)}
}

// Len retourne le nombre d'inscriptions stockées
func (r *Registrations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Get retourne une copie de l'inscription stockée
func (r *Registrations) Get(id primitive.ObjectID) (models.Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	return reg, ok
}

// Put insère une inscription sans contrôle (préparation des tests)
func (r *Registrations) Put(reg *models.Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg.ID.IsZero() {
		reg.ID = primitive.NewObjectID()
	}
	r.byID[reg.ID] = *reg
}

func (r *Registrations) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.EventID == reg.EventID && existing.UserID == reg.UserID {
			return database.ErrDuplicate
		}
	}
	reg.ID = primitive.NewObjectID()
	r.byID[reg.ID] = *reg
	return nil
}

func (r *Registrations) FindByID(_ context.Context, id primitive.ObjectID) (*models.Registration, error) {
	reg, ok := r.Get(id)
	if !ok {
		return nil, nil
	}
	return &reg, nil
}

func (r *Registrations) first(match func(models.Registration) bool) *models.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.byID {
		if match(reg) {
			found := reg
			return &found
		}
	}
	return nil
}

func (r *Registrations) filter(match func(models.Registration) bool, limit int64) []models.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Registration{}
	for _, reg := range r.byID {
		if match(reg) {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Registrations) FindByEventAndUser(_ context.Context, eventID, userID primitive.ObjectID) (*models.Registration, error) {
	return r.first(func(reg models.Registration) bool { return reg.EventID == eventID && reg.UserID == userID }), nil
}

func (r *Registrations) FindByPaymentIntentID(_ context.Context, intentID string) (*models.Registration, error) {
	return r.first(func(reg models.Registration) bool { return reg.PaymentIntentID == intentID }), nil
}

func (r *Registrations) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Registration, error) {
	return r.filter(func(reg models.Registration) bool { return reg.UserID == userID }, 0), nil
}

func (r *Registrations) FindStalePending(_ context.Context, cutoff time.Time, limit int64) ([]models.Registration, error) {
	return r.filter(func(reg models.Registration) bool {
		return reg.PaymentStatus == models.PaymentPending && reg.RegisteredAt.Before(cutoff)
	}, limit), nil
}

func (r *Registrations) FindCompletedWithoutReceipt(_ context.Context, limit int64) ([]models.Registration, error) {
	return r.filter(func(reg models.Registration) bool {
		return reg.PaymentStatus == models.PaymentCompleted && !reg.EmailSent
	}, limit), nil
}

func (r *Registrations) update(id primitive.ObjectID, guard func(models.Registration) bool, apply func(*models.Registration)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	if !ok || (guard != nil && !guard(reg)) {
		return false
	}
	apply(&reg)
	reg.UpdatedAt = time.Now()
	r.byID[id] = reg
	return true
}

func (r *Registrations) SetPaymentIntent(_ context.Context, id primitive.ObjectID, intentID string) error {
	r.update(id, nil, func(reg *models.Registration) { reg.PaymentIntentID = intentID })
	return nil
}

func (r *Registrations) UpdatePaymentStatus(_ context.Context, id primitive.ObjectID, from, to models.PaymentStatus, paymentID, failureReason string) (bool, error) {
	return r.update(id,
		func(reg models.Registration) bool { return reg.PaymentStatus == from },
		func(reg *models.Registration) {
			reg.PaymentStatus = to
			if paymentID != "" {
				reg.PaymentID = paymentID
			}
			if failureReason != "" {
				reg.FailureReason = failureReason
			}
		}), nil
}

func (r *Registrations) MarkEmailSent(_ context.Context, id primitive.ObjectID) error {
	r.update(id, nil, func(reg *models.Registration) { reg.EmailSent = true })
	return nil
}

func flagField(reg *models.Registration, flag string) *bool {
	switch flag {
	case models.FlagEmailSent:
		return &reg.EmailSent
	case models.FlagFailureEmailSent:
		return &reg.FailureEmailSent
	}
	panic(fmt.Sprintf("drapeau inconnu: %s", flag))
}

func (r *Registrations) ClaimNotification(_ context.Context, id primitive.ObjectID, flag string) (bool, error) {
	return r.update(id,
		func(reg models.Registration) bool { return !*flagField(&reg, flag) },
		func(reg *models.Registration) { *flagField(reg, flag) = true }), nil
}

func (r *Registrations) ReleaseNotification(_ context.Context, id primitive.ObjectID, flag string) error {
	r.update(id, nil, func(reg *models.Registration) { *flagField(reg, flag) = false })
	return nil
}

func (r *Registrations) DeletePending(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	if !ok || reg.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

// Mailer enregistre les enveloppes au lieu de les envoyer
type Mailer struct {
	mu   sync.Mutex
	Sent []models.Envelope
	// FailFor fait échouer l'envoi vers ces adresses
	FailFor map[string]bool
}

func (m *Mailer) Send(_ context.Context, envelope models.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[strings.ToLower(envelope.To)] {
		return errors.New("smtp indisponible")
	}
	m.Sent = append(m.Sent, envelope)
	return nil
}

// Count retourne le nombre d'emails envoyés
func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Recipients retourne les destinataires dans l'ordre d'envoi
func (m *Mailer) Recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Sent))
	for _, e := range m.Sent {
		out = append(out, e.To)
	}
	return out
}

// Gateway simule le processeur de paiement
type Gateway struct {
	mu        sync.Mutex
	Created   []models.PaymentIntentRequest
	Cancelled []string
	Intents   map[string]*models.PaymentIntent
	CreateErr error
	// Webhook est retourné par ParseWebhook quand ParseErr est nil
	Webhook  *models.WebhookEvent
	ParseErr error
}

// NewGateway crée une passerelle factice
func NewGateway() *Gateway {
	return &Gateway{Intents: make(map[string]*models.PaymentIntent)}
}

func (g *Gateway) CreateIntent(_ context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.Created = append(g.Created, req)
	id := fmt.Sprintf("pi_test_%d", len(g.Created))
	intent := &models.PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}
	g.Intents[id] = intent
	copied := *intent
	return &copied, nil
}

// CreateCalls retourne le nombre d'intentions créées
func (g *Gateway) CreateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Created)
}

// AddIntent enregistre une intention existante chez le processeur
func (g *Gateway) AddIntent(intentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Intents[intentID] = &models.PaymentIntent{ID: intentID, ClientSecret: intentID + "_secret", Status: status}
}

// SetStatus force le statut d'une intention
func (g *Gateway) SetStatus(intentID, status, chargeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.Intents[intentID]; ok {
		intent.Status = status
		intent.ChargeID = chargeID
	}
}

func (g *Gateway) RetrieveIntent(_ context.Context, intentID string) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.Intents[intentID]
	if !ok {
		return nil, fmt.Errorf("intention %s inconnue", intentID)
	}
	copied := *intent
	return &copied, nil
}

func (g *Gateway) CancelIntent(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Cancelled = append(g.Cancelled, intentID)
	return nil
}

func (g *Gateway) ParseWebhook(_ []byte, _ string) (*models.WebhookEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ParseErr != nil {
		return nil, g.ParseErr
	}
	copied := *g.Webhook
	return &copied, nil
}

// Dedup est un dédoublonneur de webhooks en mémoire
type Dedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *Dedup) Claim(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

func (d *Dedup) Release(_ context.Context, eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, eventID)
}

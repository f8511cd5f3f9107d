package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/monitoring"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterInput contient les champs soumis pour une inscription
type RegisterInput struct {
	EventID     primitive.ObjectID
	Department  string
	Year        string
	TeamName    string
	TeamMembers []models.TeamMember
}

// Actor est l'utilisateur authentifié qui agit sur une inscription
type Actor struct {
	UserID primitive.ObjectID
	Admin  bool
}

// RegistrationService orchestre l'inscription aux événements
type RegistrationService struct {
	cfg           *config.Config
	events        EventFinder
	users         UserFinder
	registrations RegistrationStore
	gateway       PaymentGateway
	payments      *PaymentReconciler
	queue         NotificationQueue
	alerts        AdminNotifier
}

// NewRegistrationService crée le service. alerts peut être nil.
func NewRegistrationService(cfg *config.Config, events EventFinder, users UserFinder, registrations RegistrationStore,
	gateway PaymentGateway, payments *PaymentReconciler, queue NotificationQueue, alerts AdminNotifier) *RegistrationService {
	return &RegistrationService{
		cfg:           cfg,
		events:        events,
		users:         users,
		registrations: registrations,
		gateway:       gateway,
		payments:      payments,
		queue:         queue,
		alerts:        alerts,
	}
}

// Register inscrit l'utilisateur à un événement. Chaque refus métier est un *RegistrationError
// et n'écrit rien en base.
func (s *RegistrationService) Register(ctx context.Context, userID primitive.ObjectID, in RegisterInput) (*models.RegistrationResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccessDenied
	}
	if user.IsAdmin() {
		monitoring.TrackRegistration("rejected")
		return nil, errForbiddenAdmin()
	}

	event, err := s.events.FindByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		monitoring.TrackRegistration("rejected")
		return nil, errEventNotFound()
	}

	existing, err := s.registrations.FindByEventAndUser(ctx, event.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		monitoring.TrackRegistration("rejected")
		return nil, errAlreadyRegistered()
	}

	if err := s.checkEligibility(ctx, event, user, in.Department); err != nil {
		monitoring.TrackRegistration("rejected")
		return nil, err
	}

	policy := event.EffectiveTeamSize()
	roster := NormalizeRoster(in.TeamMembers)
	if verdict := EvaluateTeamSize(policy, len(roster)); !verdict.Valid {
		monitoring.TrackRegistration("rejected")
		return nil, errTeamSize(verdict.Message)
	}
	if IsIndividual(policy) {
		roster = soloRoster(user, roster)
	} else {
		roster = withLeaderEmail(roster, user)
	}

	fee := ComputeTotalFee(event)
	now := time.Now()
	reg := &models.Registration{
		EventID:          event.ID,
		UserID:           user.ID,
		Department:       strings.TrimSpace(in.Department),
		Year:             strings.TrimSpace(in.Year),
		TeamName:         strings.TrimSpace(in.TeamName),
		TeamMembers:      roster,
		TotalFee:         fee,
		PaymentStatus:    models.PaymentPending,
		RegistrationType: s.registrationType(user.Email),
		RegisteredAt:     now,
		UpdatedAt:        now,
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			monitoring.TrackRegistration("rejected")
			return nil, errAlreadyRegistered()
		}
		return nil, err
	}

	logger := log.With().Str("registration_id", reg.ID.Hex()).Str("event_id", event.ID.Hex()).Logger()
	resp := &models.RegistrationResponse{Registration: reg}

	if requiresPayment(fee, s.cfg.MinChargeAmount) {
		intent, err := s.gateway.CreateIntent(ctx, models.PaymentIntentRequest{
			Amount:         fee,
			Currency:       s.cfg.Stripe.Currency,
			Description:    fmt.Sprintf("Inscription : %s", event.Name),
			ReceiptEmail:   user.Email,
			IdempotencyKey: "registration-" + reg.ID.Hex(),
			Metadata: map[string]string{
				"event_id":        event.ID.Hex(),
				"user_id":         user.ID.Hex(),
				"registration_id": reg.ID.Hex(),
			},
		})
		if err != nil {
			monitoring.TrackRegistration("error")
			logger.Error().Err(err).Msg("❌ Création de l'intention de paiement impossible")
			return nil, fmt.Errorf("création de l'intention de paiement: %w", err)
		}
		if err := s.registrations.SetPaymentIntent(ctx, reg.ID, intent.ID); err != nil {
			monitoring.TrackRegistration("error")
			return nil, err
		}
		reg.PaymentIntentID = intent.ID
		resp.ClientSecret = intent.ClientSecret
		monitoring.TrackRegistration("created")
		logger.Info().Float64("fee", fee).Str("intent_id", intent.ID).Msg("✓ Inscription créée, paiement en attente")
	} else {
		if _, err := s.payments.Apply(ctx, reg, models.PaymentWaived, "", ""); err != nil {
			monitoring.TrackRegistration("error")
			return nil, err
		}
		// Le reçu a pu partir pendant Apply, email_sent n'est à jour qu'en base
		if stored, err := s.registrations.FindByID(ctx, reg.ID); err != nil {
			logger.Warn().Err(err).Msg("⚠️  Relecture de l'inscription impossible")
		} else if stored != nil {
			*reg = *stored
		}
		monitoring.TrackRegistration("completed")
		logger.Info().Float64("fee", fee).Msg("✓ Inscription finalisée sans paiement")
	}

	s.notifyAdmins(ctx, event, user, reg)
	return resp, nil
}

// checkEligibility applique la porte d'inscription de base, le département et l'inscription au parent
func (s *RegistrationService) checkEligibility(ctx context.Context, event *models.Event, user *models.User, department string) error {
	if event.IsMainEvent && !event.BasicRegistrationEnabled {
		return errBasicRegistrationDisabled()
	}

	if !event.IsDepartmentEligible(strings.TrimSpace(department)) {
		return errDepartmentNotEligible(department)
	}

	if event.IsMainEvent || event.ParentEvent == nil {
		return nil
	}
	parent, err := s.events.FindByID(ctx, *event.ParentEvent)
	if err != nil {
		return err
	}
	if parent == nil || !parent.IsMainEvent || !parent.BasicRegistrationEnabled {
		return nil
	}
	basic, err := s.registrations.FindByEventAndUser(ctx, parent.ID, user.ID)
	if err != nil {
		return err
	}
	if basic == nil || basic.PaymentStatus != models.PaymentCompleted {
		return errBasicRegistrationRequired(parent.Name)
	}
	return nil
}

func (s *RegistrationService) registrationType(email string) string {
	domain := s.cfg.CollegeEmailDomain
	if domain == "" {
		return models.RegistrationExternal
	}
	_, host, ok := strings.Cut(strings.ToLower(email), "@")
	if ok && host == domain {
		return models.RegistrationInternal
	}
	return models.RegistrationExternal
}

func (s *RegistrationService) notifyAdmins(ctx context.Context, event *models.Event, user *models.User, reg *models.Registration) {
	if s.alerts == nil {
		return
	}
	name := user.Name
	if name == "" {
		name = user.Email
	}
	data := map[string]string{
		"type":            "new_registration",
		"registration_id": reg.ID.Hex(),
		"event_id":        event.ID.Hex(),
	}
	go s.alerts.NotifyAdmins(context.WithoutCancel(ctx), "Nouvelle inscription",
		fmt.Sprintf("%s s'est inscrit à %s", name, event.Name), data)
}

// load retourne l'inscription si l'acteur en est propriétaire ou administrateur
func (s *RegistrationService) load(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}
	if !actor.Admin && reg.UserID != actor.UserID {
		return nil, ErrAccessDenied
	}
	return reg, nil
}

// Get retourne l'inscription et, si elle attend encore un paiement, le secret client.
// Un paiement réussi dont le webhook n'est pas arrivé est réconcilié au passage.
func (s *RegistrationService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.RegistrationResponse, error) {
	reg, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := &models.RegistrationResponse{Registration: reg}
	intent, err := s.payments.Refresh(ctx, reg)
	if err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID.Hex()).Msg("⚠️  Vérification du paiement impossible")
		return resp, nil
	}
	if intent != nil && reg.PaymentStatus == models.PaymentPending {
		resp.ClientSecret = intent.ClientSecret
	}
	return resp, nil
}

// ListMine retourne les inscriptions de l'utilisateur
func (s *RegistrationService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]models.Registration, error) {
	return s.registrations.FindByUser(ctx, userID)
}

// Cancel supprime une inscription encore en attente de paiement.
// L'intention est relue chez le processeur : un paiement déjà capturé finalise l'inscription au lieu de la supprimer.
func (s *RegistrationService) Cancel(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	reg, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if reg.PaymentStatus != models.PaymentPending {
		return errCancelNotPending()
	}

	if reg.PaymentIntentID != "" {
		if _, err := s.payments.Refresh(ctx, reg); err != nil {
			log.Warn().Err(err).Str("registration_id", reg.ID.Hex()).Msg("⚠️  Vérification du paiement impossible, annulation refusée")
			return errPaymentCheckFailed()
		}
		if reg.PaymentStatus != models.PaymentPending {
			return errCancelNotPending()
		}
	}

	deleted, err := s.registrations.DeletePending(ctx, reg.ID)
	if err != nil {
		return err
	}
	if !deleted {
		// Le webhook a finalisé le paiement entre la lecture et la suppression
		return errCancelNotPending()
	}

	if reg.PaymentIntentID != "" {
		if err := s.gateway.CancelIntent(ctx, reg.PaymentIntentID); err != nil {
			log.Warn().Err(err).Str("intent_id", reg.PaymentIntentID).Msg("⚠️  Annulation de l'intention de paiement impossible")
		}
	}
	log.Info().Str("registration_id", reg.ID.Hex()).Msg("✓ Inscription annulée")
	return nil
}

// SendReceipt renvoie le reçu à la demande, même s'il a déjà été envoyé
func (s *RegistrationService) SendReceipt(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	reg, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if reg.PaymentStatus != models.PaymentCompleted {
		return errReceiptNotCompleted()
	}
	return s.queue.Enqueue(ctx, models.NotificationTask{Kind: models.TaskResendReceipt, RegistrationID: reg.ID.Hex()})
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-events-backend/constants"
	"campus-events-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func requireCode(t *testing.T, err error, code string) *RegistrationError {
	t.Helper()
	var regErr *RegistrationError
	require.True(t, errors.As(err, &regErr), "erreur inattendue: %v", err)
	assert.Equal(t, code, regErr.Code)
	return regErr
}

func TestRegister_IndividualForcesSingleMember(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(subEvent(0, models.TeamSizePolicy{Type: models.TeamSizeIndividual}))

	resp, err := f.service.Register(context.Background(), f.student.ID, RegisterInput{
		EventID:    event.ID,
		Department: "CSE",
		TeamMembers: []models.TeamMember{
			{Name: "Asha"}, {Name: "Ravi", Email: "ravi@college.edu"}, {Name: "Meera"},
		},
	})
	require.NoError(t, err)

	stored := f.stored(t, resp.Registration.ID)
	require.Len(t, stored.TeamMembers, 1)
	assert.Equal(t, "Asha Kumar", stored.TeamMembers[0].Name)
	assert.Equal(t, "asha@college.edu", stored.TeamMembers[0].Email)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(subEvent(300, models.TeamSizePolicy{}))
	in := RegisterInput{EventID: event.ID, Department: "CSE"}

	_, err := f.service.Register(context.Background(), f.student.ID, in)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), f.student.ID, in)
	regErr := requireCode(t, err, constants.CodeAlreadyRegistered)
	assert.Equal(t, 409, regErr.Status)
	assert.Equal(t, 1, f.regs.Len())
	assert.Equal(t, 1, f.gateway.CreateCalls())
}

func TestRegister_FreePathCompletesImmediately(t *testing.T) {
	for _, fee := range []float64{0, 30} {
		f := newFixture(t)
		event := f.addEvent(subEvent(fee, models.TeamSizePolicy{}))

		resp, err := f.service.Register(context.Background(), f.student.ID, RegisterInput{EventID: event.ID, Department: "CSE"})
		require.NoError(t, err, "fee=%v", fee)

		assert.Empty(t, resp.ClientSecret)
		assert.Equal(t, models.PaymentCompleted, resp.Registration.PaymentStatus)
		assert.True(t, resp.Registration.EmailSent, "fee=%v", fee)
		stored := f.stored(t, resp.Registration.ID)
		assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
		assert.Equal(t, fee, stored.TotalFee)
		assert.True(t, stored.EmailSent)
		assert.Equal(t, 1, f.mailer.Count(), "fee=%v", fee)
		assert.Zero(t, f.gateway.CreateCalls(), "fee=%v", fee)
	}
}

func TestRegister_PaidPathCreatesIntent(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(subEvent(300, models.TeamSizePolicy{Type: models.TeamSizeRange, Min: 2, Max: 3}))

	resp, err := f.service.Register(context.Background(), f.student.ID, RegisterInput{
		EventID:    event.ID,
		Department: "ECE",
		TeamName:   " Byte Club ",
		TeamMembers: []models.TeamMember{
			{Name: "Asha"},
			{Name: "Ravi", Email: "Ravi@College.edu"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_1_secret", resp.ClientSecret)
	stored := f.stored(t, resp.Registration.ID)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, "pi_test_1", stored.PaymentIntentID)
	assert.Equal(t, 300.0, stored.TotalFee)
	assert.Equal(t, "Byte Club", stored.TeamName)
	assert.Equal(t, models.RegistrationInternal, stored.RegistrationType)
	// l'email du chef est complété depuis le compte
	assert.Equal(t, "asha@college.edu", stored.TeamMembers[0].Email)
	assert.Equal(t, "ravi@college.edu", stored.TeamMembers[1].Email)

	require.Len(t, f.gateway.Created, 1)
	req := f.gateway.Created[0]
	assert.Equal(t, 300.0, req.Amount)
	assert.Equal(t, "inr", req.Currency)
	assert.Equal(t, "registration-"+stored.ID.Hex(), req.IdempotencyKey)
	assert.Equal(t, event.ID.Hex(), req.Metadata["event_id"])
	assert.Equal(t, f.student.ID.Hex(), req.Metadata["user_id"])
	assert.Equal(t, stored.ID.Hex(), req.Metadata["registration_id"])
	assert.Zero(t, f.mailer.Count())
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		f := newFixture(t)
		admin := &models.User{Email: "dean@college.edu", Role: models.RoleAdmin}
		f.users.Add(admin)
		event := f.addEvent(subEvent(0, models.TeamSizePolicy{}))

		_, err := f.service.Register(ctx, admin.ID, RegisterInput{EventID: event.ID})
		regErr := requireCode(t, err, constants.CodeForbiddenAdminRegistration)
		assert.Equal(t, 403, regErr.Status)
	})

	t.Run("événement inconnu", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: primitive.NewObjectID()})
		regErr := requireCode(t, err, constants.CodeEventNotFound)
		assert.Equal(t, 404, regErr.Status)
	})

	t.Run("inscription de base fermée", func(t *testing.T) {
		f := newFixture(t)
		event := f.addEvent(&models.Event{IsMainEvent: true, BasicRegistrationAmount: 100})
		_, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: event.ID})
		requireCode(t, err, constants.CodeBasicRegistrationDisabled)
	})

	t.Run("département non éligible", func(t *testing.T) {
		f := newFixture(t)
		event := subEvent(0, models.TeamSizePolicy{})
		event.Department = "CSE"
		event.EligibleDepartments = []string{"CSE", "IT"}
		f.addEvent(event)

		_, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: event.ID, Department: "MECH"})
		requireCode(t, err, constants.CodeDepartmentNotEligible)

		_, err = f.service.Register(ctx, f.student.ID, RegisterInput{EventID: event.ID, Department: "it"})
		assert.NoError(t, err)
	})

	t.Run("taille d'équipe", func(t *testing.T) {
		f := newFixture(t)
		event := f.addEvent(subEvent(300, models.TeamSizePolicy{Type: models.TeamSizeFixed, Value: 4}))

		_, err := f.service.Register(ctx, f.student.ID, RegisterInput{
			EventID:     event.ID,
			TeamMembers: []models.TeamMember{{Name: "A"}, {Name: "B"}, {Name: "  "}},
		})
		regErr := requireCode(t, err, constants.CodeTeamSizeInvalid)
		assert.Contains(t, regErr.Message, "exactement 4")
		assert.Zero(t, f.regs.Len())
		assert.Zero(t, f.gateway.CreateCalls())
	})
}

func TestRegister_SubEventRequiresBasicRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.addEvent(&models.Event{Name: "TechFest", IsMainEvent: true, BasicRegistrationEnabled: true, BasicRegistrationAmount: 100})
	child := subEvent(0, models.TeamSizePolicy{})
	child.ParentEvent = &parent.ID
	f.addEvent(child)

	_, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: child.ID})
	regErr := requireCode(t, err, constants.CodeBasicRegistrationRequired)
	assert.Contains(t, regErr.Message, "TechFest")

	// inscription au parent en attente de paiement : toujours refusé
	basic, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: parent.ID})
	require.NoError(t, err)
	_, err = f.service.Register(ctx, f.student.ID, RegisterInput{EventID: child.ID})
	requireCode(t, err, constants.CodeBasicRegistrationRequired)

	_, err = f.payments.Apply(ctx, basic.Registration, models.PaymentSucceeded, "ch_1", "")
	require.NoError(t, err)
	_, err = f.service.Register(ctx, f.student.ID, RegisterInput{EventID: child.ID})
	assert.NoError(t, err)
}

func TestRegister_ExternalRegistrationType(t *testing.T) {
	f := newFixture(t)
	guest := &models.User{Name: "Guest", Email: "guest@gmail.com"}
	f.users.Add(guest)
	event := f.addEvent(subEvent(0, models.TeamSizePolicy{}))

	resp, err := f.service.Register(context.Background(), guest.ID, RegisterInput{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationExternal, resp.Registration.RegistrationType)
}

func TestRegister_ProcessorFailureLeavesPendingRow(t *testing.T) {
	f := newFixture(t)
	f.gateway.CreateErr = errors.New("stripe down")
	event := f.addEvent(subEvent(300, models.TeamSizePolicy{}))

	_, err := f.service.Register(context.Background(), f.student.ID, RegisterInput{EventID: event.ID})
	require.Error(t, err)
	var regErr *RegistrationError
	assert.False(t, errors.As(err, &regErr))

	require.Equal(t, 1, f.regs.Len())
	rows, _ := f.regs.FindByUser(context.Background(), f.student.ID)
	assert.Equal(t, models.PaymentPending, rows[0].PaymentStatus)
	assert.Empty(t, rows[0].PaymentIntentID)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := Actor{UserID: f.student.ID}
	eventID := primitive.NewObjectID()

	t.Run("finalisée : refusée et conservée", func(t *testing.T) {
		reg := f.completed(eventID, models.Roster{{Name: "Asha"}})
		err := f.service.Cancel(ctx, owner, reg.ID)
		var regErr *RegistrationError
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, 400, regErr.Status)
		assert.Equal(t, models.PaymentCompleted, f.stored(t, reg.ID).PaymentStatus)
	})

	t.Run("en attente : supprimée et intention annulée", func(t *testing.T) {
		f.gateway.AddIntent("pi_cancel", "requires_payment_method")
		reg := f.pending(primitive.NewObjectID(), "pi_cancel", time.Now())
		require.NoError(t, f.service.Cancel(ctx, owner, reg.ID))
		_, ok := f.regs.Get(reg.ID)
		assert.False(t, ok)
		assert.Contains(t, f.gateway.Cancelled, "pi_cancel")
	})

	t.Run("autre utilisateur", func(t *testing.T) {
		reg := f.pending(primitive.NewObjectID(), "", time.Now())
		err := f.service.Cancel(ctx, Actor{UserID: primitive.NewObjectID()}, reg.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
		require.NoError(t, f.service.Cancel(ctx, Actor{UserID: primitive.NewObjectID(), Admin: true}, reg.ID))
	})

	t.Run("introuvable", func(t *testing.T) {
		assert.ErrorIs(t, f.service.Cancel(ctx, owner, primitive.NewObjectID()), ErrRegistrationNotFound)
	})

	t.Run("intention déjà payée", func(t *testing.T) {
		f := newFixture(t)
		event := f.addEvent(subEvent(300, models.TeamSizePolicy{}))
		created, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: event.ID})
		require.NoError(t, err)

		// payé chez le processeur, webhook pas encore reçu
		f.gateway.SetStatus("pi_test_1", models.IntentStatusSucceeded, "ch_1")

		err = f.service.Cancel(ctx, Actor{UserID: f.student.ID}, created.Registration.ID)
		var regErr *RegistrationError
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, 400, regErr.Status)

		stored := f.stored(t, created.Registration.ID)
		assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
		assert.Equal(t, "ch_1", stored.PaymentID)
		assert.NotContains(t, f.gateway.Cancelled, "pi_test_1")
	})

	t.Run("processeur injoignable : refusée et conservée", func(t *testing.T) {
		reg := f.pending(primitive.NewObjectID(), "pi_inconnue", time.Now())
		err := f.service.Cancel(ctx, owner, reg.ID)
		regErr := requireCode(t, err, constants.CodePaymentCheckFailed)
		assert.Equal(t, 503, regErr.Status)
		assert.Equal(t, models.PaymentPending, f.stored(t, reg.ID).PaymentStatus)
		assert.NotContains(t, f.gateway.Cancelled, "pi_inconnue")
	})
}

func TestGet_ReconcilesSucceededIntent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.addEvent(subEvent(300, models.TeamSizePolicy{}))

	created, err := f.service.Register(ctx, f.student.ID, RegisterInput{EventID: event.ID})
	require.NoError(t, err)

	resp, err := f.service.Get(ctx, Actor{UserID: f.student.ID}, created.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1_secret", resp.ClientSecret)

	f.gateway.SetStatus("pi_test_1", models.IntentStatusSucceeded, "ch_42")
	resp, err = f.service.Get(ctx, Actor{UserID: f.student.ID}, created.Registration.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.ClientSecret)
	assert.Equal(t, models.PaymentCompleted, resp.Registration.PaymentStatus)

	stored := f.stored(t, created.Registration.ID)
	assert.Equal(t, "ch_42", stored.PaymentID)
	assert.True(t, stored.EmailSent)
	assert.Equal(t, 1, f.mailer.Count())
}

func TestSendReceiptEndpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := Actor{UserID: f.student.ID}

	pending := f.pending(primitive.NewObjectID(), "pi_x", time.Now())
	var regErr *RegistrationError
	require.True(t, errors.As(f.service.SendReceipt(ctx, owner, pending.ID), &regErr))
	assert.Equal(t, 400, regErr.Status)

	done := f.completed(primitive.NewObjectID(), models.Roster{{Name: "Asha", Email: "asha@college.edu"}})
	require.NoError(t, f.service.SendReceipt(ctx, owner, done.ID))
	require.NoError(t, f.service.SendReceipt(ctx, owner, done.ID))
	// renvoi explicite : le drapeau n'empêche pas l'envoi
	assert.Equal(t, 2, f.mailer.Count())
	assert.True(t, f.stored(t, done.ID).EmailSent)
}

package services

import (
	"testing"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/models"
	"campus-events-backend/testutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	cfg        *config.Config
	events     *testutil.Events
	users      *testutil.Users
	regs       *testutil.Registrations
	gateway    *testutil.Gateway
	mailer     *testutil.Mailer
	dispatcher *NotificationDispatcher
	payments   *PaymentReconciler
	service    *RegistrationService
	student    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cfg: &config.Config{
			MinChargeAmount:        50,
			CollegeEmailDomain:     "college.edu",
			PendingRegistrationTTL: 30 * time.Minute,
			Stripe:                 config.StripeConfig{Currency: "inr"},
		},
		events:  testutil.NewEvents(),
		regs:    testutil.NewRegistrations(),
		gateway: testutil.NewGateway(),
		mailer:  &testutil.Mailer{},
		student: &models.User{Name: "Asha Kumar", Email: "asha@college.edu", Phone: "9876543210", Role: models.RoleUser},
	}
	f.users = testutil.NewUsers(f.student)

	f.dispatcher = NewNotificationDispatcher(f.regs, f.users, f.events, f.mailer, "inr", "http://localhost:3000")
	queue := NewInlineQueue(f.dispatcher)
	f.payments = NewPaymentReconciler(f.regs, f.gateway, queue, nil)
	f.service = NewRegistrationService(f.cfg, f.events, f.users, f.regs, f.gateway, f.payments, queue, nil)
	return f
}

func (f *fixture) addEvent(e *models.Event) *models.Event {
	if e.Name == "" {
		e.Name = "Hackathon"
	}
	f.events.Add(e)
	return e
}

func subEvent(fee float64, policy models.TeamSizePolicy) *models.Event {
	return &models.Event{
		Name:       "Code Sprint",
		Department: models.DepartmentCommon,
		RegistrationDetails: models.RegistrationDetails{
			FeePerHead:        fee,
			TeamParticipation: policy.Type != "" && policy.Type != models.TeamSizeIndividual,
			TeamSize:          policy,
		},
	}
}

func (f *fixture) completed(eventID primitive.ObjectID, members models.Roster) *models.Registration {
	reg := &models.Registration{
		EventID:       eventID,
		UserID:        f.student.ID,
		TeamMembers:   members,
		TotalFee:      300,
		PaymentStatus: models.PaymentCompleted,
		RegisteredAt:  time.Now(),
	}
	f.regs.Put(reg)
	return reg
}

func (f *fixture) pending(eventID primitive.ObjectID, intentID string, registeredAt time.Time) *models.Registration {
	reg := &models.Registration{
		EventID:         eventID,
		UserID:          f.student.ID,
		TeamMembers:     models.Roster{{Name: "Asha Kumar", Email: "asha@college.edu"}},
		TotalFee:        300,
		PaymentStatus:   models.PaymentPending,
		PaymentIntentID: intentID,
		RegisteredAt:    registeredAt,
	}
	f.regs.Put(reg)
	return reg
}

func (f *fixture) stored(t *testing.T, id primitive.ObjectID) models.Registration {
	t.Helper()
	reg, ok := f.regs.Get(id)
	if !ok {
		t.Fatalf("inscription %s absente", id.Hex())
	}
	return reg
}

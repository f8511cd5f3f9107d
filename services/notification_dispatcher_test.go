package services

import (
	"context"
	"testing"
	"time"

	"campus-events-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func teamRoster() models.Roster {
	return models.Roster{
		{Name: "Asha", Email: "asha@college.edu"},
		{Name: "Ravi", Email: "RAVI@college.edu"},
		{Name: "Meera"},
		{Name: "Ravi bis", Email: "ravi@college.edu"},
		{Name: "Kiran", Email: "kiran@gmail.com"},
	}
}

func TestRecipientsIncludeOwnerAndMembers(t *testing.T) {
	f := newFixture(t)
	reg := f.completed(primitive.NewObjectID(), teamRoster())

	got := f.dispatcher.Recipients(context.Background(), reg)
	assert.Equal(t, []string{"asha@college.edu", "ravi@college.edu", "kiran@gmail.com"}, got)
}

func TestSendReceipt_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.addEvent(subEvent(300, models.TeamSizePolicy{}))
	reg := f.completed(event.ID, teamRoster())

	f.dispatcher.SendReceipt(ctx, reg)
	assert.True(t, reg.EmailSent)
	assert.True(t, f.stored(t, reg.ID).EmailSent)
	require.Equal(t, 3, f.mailer.Count())
	assert.Contains(t, f.mailer.Sent[0].Subject, "Code Sprint")
	assert.Contains(t, f.mailer.Sent[0].HTML, "Kiran")

	// appel automatique avec une copie périmée : le drapeau en base l'arrête
	stale := *reg
	stale.EmailSent = false
	f.dispatcher.SendReceipt(ctx, &stale)
	assert.Equal(t, 3, f.mailer.Count())

	// le balayage ne renvoie pas
	h := NewHousekeeping(f.regs, f.gateway, f.payments, f.dispatcher, time.Hour, true, time.Minute)
	assert.Zero(t, h.SweepReceipts(ctx))
	assert.Equal(t, 3, f.mailer.Count())

	// renvoi explicite
	f.dispatcher.ResendReceipt(ctx, reg)
	assert.Equal(t, 6, f.mailer.Count())
}

func TestSendReceipt_RequiresCompleted(t *testing.T) {
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_1", time.Now())

	f.dispatcher.SendReceipt(context.Background(), reg)
	f.dispatcher.ResendReceipt(context.Background(), reg)
	assert.Zero(t, f.mailer.Count())
	assert.False(t, f.stored(t, reg.ID).EmailSent)
}

func TestSendReceipt_PartialFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.mailer.FailFor = map[string]bool{"ravi@college.edu": true}
	reg := f.completed(primitive.NewObjectID(), teamRoster())

	f.dispatcher.SendReceipt(context.Background(), reg)
	assert.ElementsMatch(t, []string{"asha@college.edu", "kiran@gmail.com"}, f.mailer.Recipients())
	assert.True(t, f.stored(t, reg.ID).EmailSent)
}

func TestSendReceipt_TotalFailureReleasesFlag(t *testing.T) {
	f := newFixture(t)
	f.mailer.FailFor = map[string]bool{"asha@college.edu": true}
	reg := f.completed(primitive.NewObjectID(), models.Roster{{Name: "Asha", Email: "asha@college.edu"}})

	f.dispatcher.SendReceipt(context.Background(), reg)
	assert.False(t, reg.EmailSent)
	assert.False(t, f.stored(t, reg.ID).EmailSent)

	// le balayage réessaie une fois le SMTP revenu
	f.mailer.FailFor = nil
	h := NewHousekeeping(f.regs, f.gateway, f.payments, f.dispatcher, time.Hour, true, time.Minute)
	assert.Equal(t, 1, h.SweepReceipts(context.Background()))
	assert.Equal(t, 1, f.mailer.Count())
}

func TestSendFailureNotice_Once(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_1", time.Now())

	f.dispatcher.SendFailureNotice(ctx, reg, "Carte refusée")
	f.dispatcher.SendFailureNotice(ctx, reg, "Carte refusée")
	stale := f.stored(t, reg.ID)
	stale.FailureEmailSent = false
	f.dispatcher.SendFailureNotice(ctx, &stale, "Carte refusée")

	require.Equal(t, 1, f.mailer.Count())
	assert.Contains(t, f.mailer.Sent[0].HTML, "Carte refusée")
	assert.True(t, f.stored(t, reg.ID).FailureEmailSent)
}

func TestHandle_UnknownTaskAndMissingRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Error(t, f.dispatcher.Handle(ctx, models.NotificationTask{Kind: models.TaskReceipt, RegistrationID: "nope"}))
	assert.NoError(t, f.dispatcher.Handle(ctx, models.NotificationTask{Kind: models.TaskReceipt, RegistrationID: primitive.NewObjectID().Hex()}))

	reg := f.completed(primitive.NewObjectID(), nil)
	assert.Error(t, f.dispatcher.Handle(ctx, models.NotificationTask{Kind: "sms", RegistrationID: reg.ID.Hex()}))
}

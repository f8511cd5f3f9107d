package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campus-events-backend/models"
	"campus-events-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func succeededWebhook(id, intentID string) *models.WebhookEvent {
	return &models.WebhookEvent{ID: id, Type: models.WebhookPaymentSucceeded, IntentID: intentID, ChargeID: "ch_" + intentID}
}

func TestHandleWebhook_SucceededAppliedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_ok", time.Now())
	f.gateway.Webhook = succeededWebhook("evt_1", "pi_ok")

	require.NoError(t, f.payments.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored := f.stored(t, reg.ID)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.Equal(t, "ch_pi_ok", stored.PaymentID)
	assert.True(t, stored.EmailSent)
	assert.Equal(t, 1, f.mailer.Count())

	// même corps livré une seconde fois
	require.NoError(t, f.payments.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored = f.stored(t, reg.ID)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.Equal(t, 1, f.mailer.Count())
}

func TestHandleWebhook_FailureNoticeOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_ko", time.Now())
	f.gateway.Webhook = &models.WebhookEvent{
		ID: "evt_2", Type: models.WebhookPaymentFailed, IntentID: "pi_ko", FailureMessage: "Your card was declined.",
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, f.payments.HandleWebhook(ctx, nil, "sig"))
	}

	stored := f.stored(t, reg.ID)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)
	assert.Equal(t, "Your card was declined.", stored.FailureReason)
	assert.True(t, stored.FailureEmailSent)
	assert.False(t, stored.EmailSent)
	require.Equal(t, 1, f.mailer.Count())
	assert.Contains(t, f.mailer.Sent[0].Text, "Your card was declined.")
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	f.gateway.ParseErr = fmt.Errorf("%w: no signatures found", ErrInvalidSignature)

	err := f.payments.HandleWebhook(context.Background(), []byte("{}"), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleWebhook_IgnoredEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_other", time.Now())

	f.gateway.Webhook = &models.WebhookEvent{ID: "evt_3", Type: "charge.refunded", IntentID: "pi_other"}
	require.NoError(t, f.payments.HandleWebhook(ctx, nil, "sig"))

	f.gateway.Webhook = succeededWebhook("evt_4", "pi_unknown")
	require.NoError(t, f.payments.HandleWebhook(ctx, nil, "sig"))

	assert.Equal(t, models.PaymentPending, f.stored(t, reg.ID).PaymentStatus)
	assert.Zero(t, f.mailer.Count())
}

func TestHandleWebhook_TerminalStateKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.completed(primitive.NewObjectID(), models.Roster{{Name: "Asha"}})
	reg.PaymentIntentID = "pi_done"
	f.regs.Put(reg)

	f.gateway.Webhook = &models.WebhookEvent{ID: "evt_5", Type: models.WebhookPaymentFailed, IntentID: "pi_done"}
	require.NoError(t, f.payments.HandleWebhook(ctx, nil, "sig"))

	stored := f.stored(t, reg.ID)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.False(t, stored.FailureEmailSent)
}

func TestHandleWebhook_Deduplicated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	counting := &countingQueue{}
	payments := NewPaymentReconciler(f.regs, f.gateway, counting, &testutil.Dedup{})
	f.pending(primitive.NewObjectID(), "pi_dup", time.Now())
	f.gateway.Webhook = succeededWebhook("evt_6", "pi_dup")

	require.NoError(t, payments.HandleWebhook(ctx, nil, "sig"))
	require.NoError(t, payments.HandleWebhook(ctx, nil, "sig"))
	assert.Equal(t, 1, counting.n)
}

func TestApply_StaleReadIsReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := f.pending(primitive.NewObjectID(), "pi_race", time.Now())
	stale := *reg

	changed, err := f.payments.Apply(ctx, reg, models.PaymentSucceeded, "ch_1", "")
	require.NoError(t, err)
	assert.True(t, changed)

	// deuxième appelant avec une copie lue avant la transition
	changed, err = f.payments.Apply(ctx, &stale, models.PaymentSucceeded, "ch_1", "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.PaymentCompleted, stale.PaymentStatus)
	assert.Equal(t, 1, f.mailer.Count())

	_, err = f.payments.Apply(ctx, &stale, models.PaymentRejected, "", "late failure")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type countingQueue struct{ n int }

func (q *countingQueue) Enqueue(context.Context, models.NotificationTask) error {
	q.n++
	return nil
}

package processors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billhive/app/models"
	"billhive/internal/pkg/messaging"
	"billhive/internal/pkg/tenantcontext"
)

const testWebhookUUID = "55555555-5555-4555-8555-555555555555"

func webhookStore(status string) *memStore {
	return &memStore{
		webhooks: []models.WebhookEvent{{
			ID:               1,
			UUID:             testWebhookUUID,
			TenantID:         testTenantID,
			Provider:         "stripe",
			EventType:        "payment_intent.succeeded",
			PayloadJSON:      `{"id":"evt_1"}`,
			ProcessingStatus: status,
			ReceivedAt:       time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
			ErrorMessage:     "",
		}},
		nextID: 10,
	}
}

func TestWebhookReceivedFinalizesEvent(t *testing.T) {
	store := webhookStore(models.WebhookStatusReceived)
	p := NewWebhookProcessor(newMemUnitOfWork(store))

	e, err := messaging.NewEnvelope(messaging.TypeWebhookReceived, testTenantID, "corr-1",
		messaging.WebhookReceivedMessage{WebhookEventID: testWebhookUUID, Provider: "stripe"})
	require.NoError(t, err)

	require.NoError(t, p.Handle(tenantcontext.With(context.Background(), testTenantID), e))

	event := store.webhooks[0]
	assert.Equal(t, models.WebhookStatusProcessed, event.ProcessingStatus)
	require.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ErrorMessage)

	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionWebhookProcessed, store.audits[0].Action)
	assert.Equal(t, testWebhookUUID, store.audits[0].EntityID)
	assert.Contains(t, store.audits[0].DataJSON, "stripe")
}

func TestWebhookReplayReprocessesFailedEvent(t *testing.T) {
	store := webhookStore(models.WebhookStatusFailed)
	store.webhooks[0].ErrorMessage = "provider timeout"
	p := NewWebhookProcessor(newMemUnitOfWork(store))

	e, err := messaging.NewEnvelope(messaging.TypeWebhookReplayRequested, testTenantID, "corr-2",
		messaging.WebhookReplayRequestedMessage{WebhookEventID: testWebhookUUID})
	require.NoError(t, err)

	require.NoError(t, p.Handle(tenantcontext.With(context.Background(), testTenantID), e))

	event := store.webhooks[0]
	assert.Equal(t, models.WebhookStatusProcessed, event.ProcessingStatus)
	assert.Empty(t, event.ErrorMessage)

	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionWebhookReplayed, store.audits[0].Action)
}

func TestWebhookUnknownEventIsPermanent(t *testing.T) {
	p := NewWebhookProcessor(newMemUnitOfWork(webhookStore(models.WebhookStatusReceived)))

	e, err := messaging.NewEnvelope(messaging.TypeWebhookReceived, testTenantID, "corr-1",
		messaging.WebhookReceivedMessage{
			WebhookEventID: "99999999-9999-4999-8999-999999999999",
			Provider:       "stripe",
		})
	require.NoError(t, err)

	err = p.Handle(tenantcontext.With(context.Background(), testTenantID), e)
	require.Error(t, err)

	_, permanent := messaging.AsPermanent(err)
	assert.True(t, permanent)
}

func TestWebhookWrongTenantIsPermanent(t *testing.T) {
	otherTenant := "66666666-6666-4666-8666-666666666666"
	p := NewWebhookProcessor(newMemUnitOfWork(webhookStore(models.WebhookStatusReceived)))

	e, err := messaging.NewEnvelope(messaging.TypeWebhookReceived, otherTenant, "corr-1",
		messaging.WebhookReceivedMessage{WebhookEventID: testWebhookUUID, Provider: "stripe"})
	require.NoError(t, err)

	err = p.Handle(tenantcontext.With(context.Background(), otherTenant), e)
	require.Error(t, err)

	_, permanent := messaging.AsPermanent(err)
	assert.True(t, permanent)
}

func TestWebhookUnknownTypeIsPermanent(t *testing.T) {
	p := NewWebhookProcessor(newMemUnitOfWork(webhookStore(models.WebhookStatusReceived)))

	e, err := messaging.NewEnvelope("webhook.deleted", testTenantID, "corr-1", struct{}{})
	require.NoError(t, err)

	err = p.Handle(tenantcontext.With(context.Background(), testTenantID), e)
	require.Error(t, err)

	_, permanent := messaging.AsPermanent(err)
	assert.True(t, permanent)
}

package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeStampsMetadata(t *testing.T) {
	payload := EvaluateDunningCommand{AsOfDate: "2024-01-08"}

	e, err := NewEnvelope(TypeEvaluateDunning, "11111111-1111-4111-8111-111111111111", "corr-1", payload)
	require.NoError(t, err)

	assert.Equal(t, TypeEvaluateDunning, e.MessageType)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", e.TenantID)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.False(t, e.EnqueuedAt.IsZero())
	assert.JSONEq(t, `{"asOfDate":"2024-01-08"}`, e.PayloadJSON)
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	cmd := ApplyPaymentCommand{
		InvoiceID:      "22222222-2222-4222-8222-222222222222",
		Amount:         5000,
		Currency:       "EUR",
		IdempotencyKey: "pay-001",
	}
	e, err := NewEnvelope(TypeApplyPayment, "t", "c", cmd)
	require.NoError(t, err)

	var decoded ApplyPaymentCommand
	require.NoError(t, e.DecodePayload(&decoded))
	assert.Equal(t, cmd, decoded)
}

func TestDecodePayloadMalformedJSONIsPermanent(t *testing.T) {
	e := &Envelope{MessageType: TypeApplyPayment, PayloadJSON: "{not json"}

	var cmd ApplyPaymentCommand
	err := e.DecodePayload(&cmd)
	require.Error(t, err)

	_, permanent := AsPermanent(err)
	assert.True(t, permanent)
}

func TestDecodePayloadValidationFailureIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		cmd  ApplyPaymentCommand
	}{
		{
			name: "zero amount",
			cmd: ApplyPaymentCommand{
				InvoiceID:      "22222222-2222-4222-8222-222222222222",
				Amount:         0,
				Currency:       "EUR",
				IdempotencyKey: "pay-001",
			},
		},
		{
			name: "negative amount",
			cmd: ApplyPaymentCommand{
				InvoiceID:      "22222222-2222-4222-8222-222222222222",
				Amount:         -100,
				Currency:       "EUR",
				IdempotencyKey: "pay-001",
			},
		},
		{
			name: "bad currency",
			cmd: ApplyPaymentCommand{
				InvoiceID:      "22222222-2222-4222-8222-222222222222",
				Amount:         100,
				Currency:       "EURO",
				IdempotencyKey: "pay-001",
			},
		},
		{
			name: "invoice id not a uuid",
			cmd: ApplyPaymentCommand{
				InvoiceID:      "not-a-uuid",
				Amount:         100,
				Currency:       "EUR",
				IdempotencyKey: "pay-001",
			},
		},
		{
			name: "missing idempotency key",
			cmd: ApplyPaymentCommand{
				InvoiceID: "22222222-2222-4222-8222-222222222222",
				Amount:    100,
				Currency:  "EUR",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEnvelope(TypeApplyPayment, "t", "c", tt.cmd)
			require.NoError(t, err)

			var decoded ApplyPaymentCommand
			err = e.DecodePayload(&decoded)
			require.Error(t, err)

			_, permanent := AsPermanent(err)
			assert.True(t, permanent)
		})
	}
}

func TestDecodeDunningDateFormat(t *testing.T) {
	bad := EvaluateDunningCommand{AsOfDate: "08.01.2024"}
	e, err := NewEnvelope(TypeEvaluateDunning, "t", "c", bad)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded EvaluateDunningCommand
	err = e.DecodePayload(&decoded)
	require.Error(t, err)

	_, permanent := AsPermanent(err)
	assert.True(t, permanent)
}

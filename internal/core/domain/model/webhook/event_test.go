package webhook_test

import (
	"errors"
	"testing"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	t.Run("valid event is received with zero attempts", func(t *testing.T) {
		e, err := webhook.NewEvent(kernel.NewUUID(), webhook.SourceMaystro, "evt-1", "order.status_changed", []byte(`{"a":1}`), time.Now())

		require.NoError(t, err)
		assert.Equal(t, webhook.StatusReceived, e.Status())
		assert.Zero(t, e.Attempts())
		assert.True(t, e.CanRetry())
	})

	t.Run("rejects invalid payload and source", func(t *testing.T) {
		_, err := webhook.NewEvent(kernel.NewUUID(), webhook.Source("shopify"), "", "", []byte(`{`), time.Now())

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestEvent_Lifecycle(t *testing.T) {
	now := time.Now()
	e, err := webhook.NewEvent(kernel.NewUUID(), webhook.SourceEcoManager, "42", "order.created", []byte(`{}`), now)
	require.NoError(t, err)

	require.NoError(t, e.StartAttempt())
	e.MarkFailed(errors.New("store down"))
	assert.Equal(t, webhook.StatusFailed, e.Status())
	assert.Equal(t, "store down", e.LastError())
	assert.True(t, e.CanRetry())

	require.NoError(t, e.StartAttempt())
	e.MarkProcessed(now)
	assert.Equal(t, webhook.StatusProcessed, e.Status())
	assert.Empty(t, e.LastError())
	assert.False(t, e.CanRetry())
}

func TestEvent_AttemptsAreBounded(t *testing.T) {
	e, err := webhook.NewEvent(kernel.NewUUID(), webhook.SourceMaystro, "x", "t", []byte(`{}`), time.Now())
	require.NoError(t, err)

	for range webhook.MaxAttempts {
		require.NoError(t, e.StartAttempt())
		e.MarkFailed(errors.New("boom"))
	}

	assert.False(t, e.CanRetry())
	require.ErrorIs(t, e.StartAttempt(), webhook.ErrEventNotRetryable)
}

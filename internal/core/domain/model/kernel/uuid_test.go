package kernel_test

import (
	"encoding/json"
	"testing"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	id1 := kernel.NewUUID()
	id2 := kernel.NewUUID()

	require.NoError(t, id1.Validate())
	assert.NotEqual(t, uuid.Nil.String(), id1.String())
	assert.False(t, id1.IsEqual(id2))
}

func TestUUIDFromString(t *testing.T) {
	const canonical = "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name  string
		input string
	}{
		{name: "canonical", input: canonical},
		{name: "braces", input: "{550e8400-e29b-41d4-a716-446655440000}"},
		{name: "urn", input: "urn:uuid:550e8400-e29b-41d4-a716-446655440000"},
		{name: "no hyphens", input: "550e8400e29b41d4a716446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := kernel.UUIDFromString(tt.input)

			require.NoError(t, err)
			assert.Equal(t, canonical, id.String())
		})
	}

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := kernel.UUIDFromString("AG-001")
		require.Error(t, err)
	})

	t.Run("rejects the nil uuid", func(t *testing.T) {
		_, err := kernel.UUIDFromString(uuid.Nil.String())
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestUUIDFromBytes(t *testing.T) {
	original := kernel.NewUUID()
	raw := original.Bytes()

	restored, err := kernel.UUIDFromBytes(raw[:])

	require.NoError(t, err)
	assert.True(t, original.IsEqual(restored))

	_, err = kernel.UUIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestUUID_Compare(t *testing.T) {
	low := kernel.MustUUIDFromString("00000000-0000-4000-8000-000000000001")
	high := kernel.MustUUIDFromString("00000000-0000-4000-8000-000000000002")

	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
}

func TestUUID_ZeroValueIsInvalid(t *testing.T) {
	var id kernel.UUID
	require.ErrorIs(t, id.Validate(), kernel.ErrUUIDIsNotConstructed)
}

func TestUUID_MarshalJSON(t *testing.T) {
	id := kernel.MustUUIDFromString("550e8400-e29b-41d4-a716-446655440000")

	raw, err := json.Marshal(map[string]kernel.UUID{"id": id})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"550e8400-e29b-41d4-a716-446655440000"}`, string(raw))
}

func TestMustUUIDFromString_PanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { kernel.MustUUIDFromString("nope") })
}

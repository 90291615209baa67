package pgerr_test

import (
	"errors"
	"fmt"
	"testing"

	"backoffice/internal/adapters/out/postgres/pgerr"
	"backoffice/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		err := pgerr.Translate(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "agents_code_key"}))

		require.ErrorIs(t, err, ports.ErrDuplicate)
		assert.Contains(t, err.Error(), "agents_code_key")
	})

	t.Run("deadlock and serialization failure", func(t *testing.T) {
		require.ErrorIs(t, pgerr.Translate(&pgconn.PgError{Code: "40P01"}), ports.ErrConcurrentUpdate)
		require.ErrorIs(t, pgerr.Translate(&pgconn.PgError{Code: "40001"}), ports.ErrConcurrentUpdate)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, pgerr.Translate(plain))

		other := &pgconn.PgError{Code: "23503"}
		assert.Equal(t, error(other), pgerr.Translate(other))
		assert.NoError(t, pgerr.Translate(nil))
	})
}

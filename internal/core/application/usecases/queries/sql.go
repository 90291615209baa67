// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases and read the
// database directly instead of loading aggregates.
package queries

import (
	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// psql emits '?' placeholders, which gorm rebinds for the active dialect.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func resolvedStatusNames() []string {
	resolved := order.ResolvedStatuses()
	names := make([]string, 0, len(resolved))
	for _, s := range resolved {
		names = append(names, s.String())
	}
	return names
}

func toKernelUUID(id uuid.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

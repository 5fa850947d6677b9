// internal/sources/source.go
package sources

import (
	"context"

	"trendscout/internal/models"
)

// Adapter normalizes one source's raw payload into SignalRecords. Adapters
// perform no caching and no retries; both are centralized in the fetch
// orchestrator.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query, category string) ([]models.SignalRecord, error)
}

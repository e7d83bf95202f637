package market

import (
	"context"
	"fmt"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

// Source returns the current list of pair candidates.
type Source interface {
	FetchPairs(ctx context.Context) ([]models.PairCandidate, error)
}

// DataSourceError means the fetch failed or the payload was malformed. The scan cycle
// that hit it is skipped.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.PairCandidate, error)

func (f SourceFunc) FetchPairs(ctx context.Context) ([]models.PairCandidate, error) {
	return f(ctx)
}

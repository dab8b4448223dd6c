package collector

import (
	"context"
	"time"

	"PriceScope/internal/model"
)

// Fetcher retrieves daily bars for a ticker from an external provider.
// Implementations return apperr errors with CodeProviderUnavailable when the
// provider cannot be reached and CodeNoData when it answers without a result.
type Fetcher interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) (model.Series, error)
	Name() string
}

package recommend

import (
	"errors"

	"github.com/saeedalam/nodewise/internal/catalog"
)

var (
	// ErrNotInitialized is returned by RecommendNodes before Initialize
	// has completed.
	ErrNotInitialized = errors.New("recommendation engine not initialized")

	// ErrInvalidRequirement is returned for an empty or blank requirement.
	ErrInvalidRequirement = errors.New("requirement must not be blank")

	// ErrCancelled wraps the context error of an aborted request.
	ErrCancelled = errors.New("recommendation cancelled")

	// ErrSourceUnavailable is returned by Initialize when the catalog, stats
	// or pattern source cannot be read on first load.
	ErrSourceUnavailable = catalog.ErrSourceUnavailable
)

package usecase

import "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrSchemaDrift marks a provider payload whose shape no longer matches
	// what the pipeline reads. It always aborts the run.
	ErrSchemaDrift = errors.New("provider schema drift")
	// ErrMalformedPayload marks a response body that could not be decoded.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrMissingFeatureFile is returned when labels are requested for a
	// gameweek that has no feature set.
	ErrMissingFeatureFile = errors.New("feature file missing")
	// ErrAlreadyCaptured is returned by Run when X_<gameweek> exists. Callers
	// treat it as success.
	ErrAlreadyCaptured = errors.New("gameweek already captured")
	// ErrInvalidStandings means no valid 1..N league table could be built.
	ErrInvalidStandings = errors.New("invalid league standings")
)

// isFatal reports whether a per-entity error must abort the whole run
// instead of skipping the entity.
func isFatal(err error) bool {
	return errors.Is(err, ErrSchemaDrift)
}

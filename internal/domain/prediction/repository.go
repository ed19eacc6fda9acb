package prediction

import "context"

// Repository returns the prediction for a fixture. found is false when the
// provider has none.
type Repository interface {
	GetByFixture(ctx context.Context, fixtureID int64) (pred Prediction, found bool, err error)
}

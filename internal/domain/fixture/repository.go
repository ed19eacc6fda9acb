package fixture

import "context"

// Repository exposes the fixture list for one calendar date (YYYY-MM-DD).
type Repository interface {
	ListByDate(ctx context.Context, date string) ([]Fixture, error)
}

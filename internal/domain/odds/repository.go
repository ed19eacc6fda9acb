package odds

import "context"

type Repository interface {
	GetMarket(ctx context.Context, fixtureID int64, betID int) (Market, error)
}

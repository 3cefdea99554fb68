package prices

import (
	"context"
	"strconv"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	icache "CallAudit/internal/service/cache"
)

// Cached decorates a PriceSource with a BytesCache so repeated point lookups
// for the same ticker and minute do not re-hit the provider. Paths are not
// cached: they are large and usually queried once per batch.
type Cached struct {
	next  domrepo.PriceSource
	cache icache.BytesCache
	ttl   time.Duration
}

// NewCached wraps next with a point-lookup cache.
func NewCached(next domrepo.PriceSource, cache icache.BytesCache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) PriceAt(ctx context.Context, ticker string, at time.Time) (float64, error) {
	key := "price:" + ticker + ":" + strconv.FormatInt(at.Truncate(time.Minute).Unix(), 10)

	if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
		if price, perr := strconv.ParseFloat(string(b), 64); perr == nil {
			return price, nil
		}
	}

	price, err := c.next.PriceAt(ctx, ticker, at)
	if err != nil {
		return 0, err
	}
	_ = c.cache.SetBytes(key, []byte(strconv.FormatFloat(price, 'f', -1, 64)), c.ttl)
	return price, nil
}

func (c *Cached) PricePath(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	return c.next.PricePath(ctx, ticker, from, to)
}

var _ domrepo.PriceSource = (*Cached)(nil)

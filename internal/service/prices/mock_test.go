package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

func TestMockIsDeterministic(t *testing.T) {
	m := NewMock()
	at := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	p1, err := m.PriceAt(context.Background(), "BTC", at)
	require.NoError(t, err)
	p2, err := m.PriceAt(context.Background(), "BTC", at)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Greater(t, p1, 0.0)
}

func TestMockUnsupportedTicker(t *testing.T) {
	m := NewMock()

	_, err := m.PriceAt(context.Background(), "NOPE", time.Now())
	assert.True(t, errors.Is(err, models.ErrUnsupportedAsset))

	_, err = m.PricePath(context.Background(), "NOPE", time.Now(), time.Now().Add(time.Hour))
	assert.True(t, errors.Is(err, models.ErrUnsupportedAsset))
}

func TestMockPathIsOrderedAndBounded(t *testing.T) {
	m := NewMock()
	from := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(10 * time.Minute)

	path, err := m.PricePath(context.Background(), "ETH", from, to)
	require.NoError(t, err)
	require.Len(t, path, 11)

	base := defaultQuotes["ETH"]
	for i, obs := range path {
		if i > 0 {
			assert.True(t, obs.Timestamp.After(path[i-1].Timestamp))
		}
		assert.InDelta(t, base.base, obs.Price, base.base*base.vol+1e-9)
	}
}

func TestMockCustomQuote(t *testing.T) {
	m := NewMock(WithQuote("PEPE", 0.00001, 0.1))

	p, err := m.PriceAt(context.Background(), "PEPE", time.Now())
	require.NoError(t, err)
	assert.Greater(t, p, 0.0)
}

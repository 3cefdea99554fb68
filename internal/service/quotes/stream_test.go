package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quoteServer upgrades the request, waits for one subscribe frame, then
// replays the given frames and keeps the connection open.
func quoteServer(t *testing.T, frames []interface{}) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if sub["type"] != "subscribe" {
			t.Errorf("unexpected first frame: %v", sub)
			return
		}

		for _, f := range frames {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
		// keep reading so control frames are serviced until the client closes
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestStreamReadTranslatesTradeFrames(t *testing.T) {
	at := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	srv := quoteServer(t, []interface{}{
		map[string]interface{}{"type": "ping"}, // non-trade frames are skipped
		wsMessage{Type: "trade", Data: []wsQuote{
			{S: "BINANCE:BTCUSDT", P: 63500.5, T: at.UnixMilli()},
		}},
	})
	defer srv.Close()

	url := strings.Replace(srv.URL, "http://", "ws://", 1)
	s := New("token", url, []string{"BINANCE:BTCUSDT"}, time.Second, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	defer s.Close()
	require.NoError(t, s.Subscribe(ctx))
	assert.True(t, s.IsConnected())

	obsCh, errCh := s.Read(ctx)
	select {
	case obs := <-obsCh:
		require.NotNil(t, obs)
		assert.Equal(t, "BINANCE:BTCUSDT", obs.Ticker)
		assert.Equal(t, 63500.5, obs.Price)
		assert.True(t, obs.Timestamp.Equal(at))
		// persisted timestamps must be timezone-consistent with the REST provider
		assert.Equal(t, time.UTC, obs.Timestamp.Location())
	case err := <-errCh:
		t.Fatalf("stream error: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for observation")
	}
}

func TestStreamSubscribeRequiresConnection(t *testing.T) {
	s := New("token", "ws://127.0.0.1:1", nil, time.Second, time.Minute)
	assert.Error(t, s.Subscribe(context.Background()))
}

package transports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"data-syncer/src/logger"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newCountingServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

// -----------------------------------------------------------------------------

func TestPollingClient_CyclesAndRefresh(t *testing.T) {
	server, hits := newCountingServer(t)

	var cycles int32
	client := NewPollingClient(server.URL, 0, logger.NewLogger("error", "test"), "t",
		func(body []byte, err error) {
			if err != nil {
				t.Errorf("poll cycle failed: %v", err)
			}
			atomic.AddInt32(&cycles, 1)
		})

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	// The first cycle runs immediately; no timer with a non-positive interval
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&cycles) == 1
	}, time.Second, 5*time.Millisecond)

	client.TriggerRefresh()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&cycles) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(2), atomic.LoadInt32(hits))
}

// -----------------------------------------------------------------------------

func TestPollingClient_DisconnectStopsCycles(t *testing.T) {
	server, hits := newCountingServer(t)

	client := NewPollingClient(server.URL, 10*time.Millisecond, logger.NewLogger("error", "test"), "t", nil)
	require.NoError(t, client.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(hits) >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Disconnect())
	require.False(t, client.IsRunning())

	settled := atomic.LoadInt32(hits)
	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, atomic.LoadInt32(hits), settled+1)
}

// -----------------------------------------------------------------------------

func TestPollingClient_NoReuseAfterDisconnect(t *testing.T) {
	server, _ := newCountingServer(t)

	client := NewPollingClient(server.URL, 0, logger.NewLogger("error", "test"), "t", nil)
	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Disconnect())

	// A disconnected client never resurrects its loop
	err := client.Connect(context.Background())
	require.Error(t, err)
	require.ErrorContains(t, err, "cannot be reused")
	require.False(t, client.IsRunning())
}

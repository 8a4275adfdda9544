package sources

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"data-syncer/src/models"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newPullSource(t *testing.T, endpoint string, intervalMs int, cb Callbacks) *HybridSource {
	t.Helper()
	src, err := NewHybridSource(models.MSourceConfig{
		Name:              "pull-test",
		Transport:         models.TransportPull,
		Endpoint:          endpoint,
		Enabled:           true,
		PollingIntervalMs: intervalMs,
	}, testLogger(), cb)
	require.NoError(t, err)
	return src
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullFetchesImmediately(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"v":1}`)
	}))
	defer server.Close()

	src := newPullSource(t, server.URL, -1, Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return src.GetState().Data != nil
	}, time.Second, 5*time.Millisecond)

	st := src.GetState()
	require.Equal(t, map[string]any{"v": float64(1)}, st.Data)
	require.True(t, st.Connected)
	require.NoError(t, st.Err)

	// Negative interval: no re-poll after the initial fetch
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullPolls(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"hit":%d}`, atomic.AddInt32(&hits, 1))
	}))
	defer server.Close()

	src := newPullSource(t, server.URL, 20, Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&hits) >= 3
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullDefaultInterval(t *testing.T) {
	src := newPullSource(t, "http://127.0.0.1:1/unused", 0, Callbacks{})

	// Zero means unset and takes the 5000ms default
	require.Equal(t, 5000, src.GetStatus().IntervalMs)
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullFailureContinuesPolling(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	var errs int32
	src := newPullSource(t, server.URL, 20, Callbacks{
		OnError: func(err error) { atomic.AddInt32(&errs, 1) },
	})
	require.NoError(t, src.Start())
	defer src.Stop()

	// First cycles fail: error recorded, not connected, loop alive
	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Err != nil && !st.Connected
	}, time.Second, 5*time.Millisecond)
	require.GreaterOrEqual(t, atomic.LoadInt32(&errs), int32(1))

	// A later success clears the recorded error
	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Connected && st.Err == nil && st.Data != nil
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	src := newPullSource(t, server.URL, -1, Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Err != nil && !st.Connected
	}, time.Second, 5*time.Millisecond)
	require.ErrorContains(t, src.GetState().Err, "decode response")
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullRefresh(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"hit":%d}`, atomic.AddInt32(&hits, 1))
	}))
	defer server.Close()

	src := newPullSource(t, server.URL, -1, Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&hits) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, src.Refresh())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&hits) == 2
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestHybridSource_PullStopDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"late":true}`)
	}))
	defer server.Close()

	src := newPullSource(t, server.URL, -1, Callbacks{})
	require.NoError(t, src.Start())

	// Tear down while the first poll is still in flight
	require.NoError(t, src.Stop())
	close(release)
	time.Sleep(50 * time.Millisecond)

	st := src.GetState()
	require.Nil(t, st.Data)
	require.False(t, st.Connected)
	require.NoError(t, st.Err)
}

// -----------------------------------------------------------------------------

func TestHybridSource_DisabledStaysIdle(t *testing.T) {
	src, err := NewHybridSource(models.MSourceConfig{
		Name:      "idle",
		Transport: models.TransportPull,
		Endpoint:  "http://127.0.0.1:1/unused",
		Enabled:   false,
	}, testLogger(), Callbacks{})
	require.NoError(t, err)

	require.NoError(t, src.Start())
	require.False(t, src.GetStatus().Running)
}

// -----------------------------------------------------------------------------

func TestHybridSource_SendMessageOnPullPanics(t *testing.T) {
	src := newPullSource(t, "http://127.0.0.1:1/unused", -1, Callbacks{})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		require.Contains(t, fmt.Sprint(r), "only push sources can send")
	}()
	_ = src.SendMessage(map[string]any{"x": 1})
	t.Fatal("SendMessage on a pull source must panic")
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"data-syncer/src/logger"
	"data-syncer/src/models"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func testLogger() *logger.Logger {
	return logger.NewLogger("error", "test")
}

// -----------------------------------------------------------------------------

func TestIntervalSource_FetchOnStart(t *testing.T) {
	var calls int32
	producer := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]any{"value": "data"}, nil
	}

	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Data != nil && !st.Loading
	}, time.Second, 5*time.Millisecond)

	st := src.GetState()
	require.Equal(t, map[string]any{"value": "data"}, st.Data)
	require.NoError(t, st.Err)

	// No periodic timer with a non-positive interval
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// -----------------------------------------------------------------------------

func TestIntervalSource_LoadingDuringFetch(t *testing.T) {
	release := make(chan struct{})
	producer := func(ctx context.Context) (any, error) {
		<-release
		return "done", nil
	}

	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.True(t, src.GetState().Loading)

	close(release)
	require.Eventually(t, func() bool {
		st := src.GetState()
		return !st.Loading && st.Data == "done"
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_PeriodicFetches(t *testing.T) {
	var calls int32
	producer := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	src := NewIntervalSource("t", producer, 20*time.Millisecond, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_FailureStoresErrorVerbatim(t *testing.T) {
	sentinel := errors.New("x")
	producer := func(ctx context.Context) (any, error) {
		return nil, sentinel
	}

	var seen atomic.Value
	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{
		OnError: func(err error) { seen.Store(err) },
	})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Err != nil && !st.Loading
	}, time.Second, 5*time.Millisecond)

	st := src.GetState()
	require.Same(t, sentinel, st.Err)
	require.Nil(t, st.Data)
	require.Same(t, sentinel, seen.Load())
}

// -----------------------------------------------------------------------------

func TestIntervalSource_FailureKeepsStaleData(t *testing.T) {
	var calls int32
	sentinel := errors.New("backend down")
	producer := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "first", nil
		}
		return nil, sentinel
	}

	src := NewIntervalSource("t", producer, 20*time.Millisecond, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return src.GetState().Err != nil
	}, time.Second, 5*time.Millisecond)

	// Error and stale data coexist
	st := src.GetState()
	require.Equal(t, "first", st.Data)
	require.Same(t, sentinel, st.Err)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_SuccessClearsError(t *testing.T) {
	var calls int32
	producer := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("transient")
		}
		return "recovered", nil
	}

	src := NewIntervalSource("t", producer, 20*time.Millisecond, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Data == "recovered" && st.Err == nil
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_RefreshTriggersFetch(t *testing.T) {
	var calls int32
	producer := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, src.Refresh())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_RefreshWhileStopped(t *testing.T) {
	src := NewIntervalSource("t", func(ctx context.Context) (any, error) {
		return nil, nil
	}, 0, testLogger(), Callbacks{})

	require.Error(t, src.Refresh())
}

// -----------------------------------------------------------------------------

func TestIntervalSource_NoMutationAfterStop(t *testing.T) {
	release := make(chan struct{})
	producer := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	require.NoError(t, src.Stop())

	// The in-flight fetch resolves after teardown; its result must be dropped
	close(release)
	time.Sleep(50 * time.Millisecond)

	st := src.GetState()
	require.Nil(t, st.Data)
	require.NoError(t, st.Err)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_DisabledStaysIdle(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	src, err := newIntervalFromConfig(&models.MSourceConfig{
		Name:       "idle",
		Transport:  models.TransportInterval,
		Endpoint:   server.URL,
		Enabled:    false,
		IntervalMs: 20,
	}, testLogger(), Callbacks{})
	require.NoError(t, err)

	require.NoError(t, src.Start())
	defer src.Stop()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
	require.False(t, src.GetStatus().Running)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_RefreshOverlapsFetch(t *testing.T) {
	calls := make(chan chan any, 2)
	producer := func(ctx context.Context) (any, error) {
		result := make(chan any)
		calls <- result
		return <-result, nil
	}

	src := NewIntervalSource("t", producer, 0, testLogger(), Callbacks{})
	require.NoError(t, src.Start())
	defer src.Stop()

	// Hold the initial fetch open and overlap a refresh with it
	first := <-calls
	require.NoError(t, src.Refresh())
	second := <-calls

	// The refresh resolves first and its value lands
	second <- "refresh"
	require.Eventually(t, func() bool {
		return src.GetState().Data == "refresh"
	}, time.Second, 5*time.Millisecond)

	// The older fetch resolves last and overwrites: last completion wins
	first <- "initial"
	require.Eventually(t, func() bool {
		st := src.GetState()
		return st.Data == "initial" && !st.Loading && st.Err == nil
	}, time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestIntervalSource_SendMessagePanics(t *testing.T) {
	src := NewIntervalSource("t", func(ctx context.Context) (any, error) {
		return nil, nil
	}, 0, testLogger(), Callbacks{})

	require.Panics(t, func() {
		_ = src.SendMessage("payload")
	})
}

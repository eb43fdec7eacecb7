package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	old := retryDelays
	retryDelays = []time.Duration{0, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = old })
}

func TestDeliverSignsBody(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	event := &Event{Type: EventRunCompleted, RunID: "run-1", Timestamp: 1700000000, Data: map[string]int{"processed": 3}}
	require.NoError(t, Deliver(context.Background(), ts.URL, "s3cret", event))

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "run.completed", decoded["type"])
	assert.Equal(t, "run-1", decoded["run_id"])
}

func TestDeliverWithoutSecret(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer ts.Close()

	require.NoError(t, Deliver(context.Background(), ts.URL, "", &Event{Type: EventRunCompleted}))
}

func TestDeliverWithRetryRecovers(t *testing.T) {
	fastRetries(t)
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	require.NoError(t, DeliverWithRetry(context.Background(), ts.URL, "", &Event{Type: EventRunCompleted}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverWithRetryExhausted(t *testing.T) {
	fastRetries(t)
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := DeliverWithRetry(context.Background(), ts.URL, "", &Event{Type: EventRunCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

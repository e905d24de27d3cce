package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncEntity("changed")
	m.IncEntity("changed")
	m.IncNotification("sent")
	m.ObservePass(3*time.Second, time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntitiesTotal.WithLabelValues("changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("sent")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastPassTimestamp))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncEntity("new")
		m.ObserveFetch("example.test", time.Second)
		m.IncNotification("failed")
		m.ObservePass(time.Second, time.Now())
		m.ObserveHTTP("GET", "/", "200", time.Millisecond)
	})
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	New(reg).IncEntity("new")

	require.NoError(t, Push(context.Background(), srv.URL, "auction_watch", reg))
	assert.Equal(t, "/metrics/job/auction_watch", gotPath)
}

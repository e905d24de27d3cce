package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/auction-watch/internal/adapter/memory"
	"github.com/user/auction-watch/internal/adapter/targets"
	"github.com/user/auction-watch/internal/delivery/http/handler"
	"github.com/user/auction-watch/internal/delivery/http/response"
	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/usecase"
	"github.com/user/auction-watch/pkg/metrics"
)

type stubRunner struct {
	report *entity.PassReport
	err    error
}

func (s stubRunner) RunPass(context.Context) (*entity.PassReport, error) { return s.report, s.err }

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T, runner usecase.PassRunner, pingers map[string]usecase.Pinger) *testServer {
	t.Helper()
	ctx := context.Background()
	records := memory.NewRecordRepo()
	failures := memory.NewFailureRepo()

	count := 4
	rec := entity.NewNormalizedRecord([]entity.Field{
		{Key: "ID nadmetanja", Value: "X1"},
		{Key: "Status nadmetanja", Value: "U tijeku"},
	})
	require.NoError(t, records.Upsert(ctx, &entity.PersistedRecord{
		Identity:    "X1",
		URL:         "https://example.com/X1",
		Fingerprint: usecase.Fingerprint(rec),
		Record:      rec,
		Projected:   entity.ProjectedFields{AuctionStatus: "U tijeku", ParticipantCount: &count},
		UpdatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, "", nil))
	require.NoError(t, failures.SaveOrUpdate(ctx, &entity.Failure{
		URL: "https://example.com/bad", Kind: entity.KindFetch, Reason: "timeout", LastAttemptAt: time.Now(),
	}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := handler.NewHandler(usecase.NewInspector(records, failures, pingers), runner, zaptest.NewLogger(t))
	return &testServer{handler: New(h, m, reg, zaptest.NewLogger(t)), registry: reg, metrics: m}
}

func (s *testServer) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRecords(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/api/records")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []response.RecordSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "X1", list[0].Identity)
	assert.Equal(t, "U tijeku", list[0].AuctionStatus)
	require.NotNil(t, list[0].ParticipantCount)
	assert.Equal(t, 4, *list[0].ParticipantCount)

	rec = s.do(http.MethodGet, "/api/records/X1")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail response.RecordDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Fingerprint, 64)
	v, ok := detail.Record.Get("Status nadmetanja")
	assert.True(t, ok)
	assert.Equal(t, "U tijeku", v)

	rec = s.do(http.MethodGet, "/api/records/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFailures(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/api/failures?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []response.FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "fetch", list[0].Kind)
	assert.Equal(t, 1, list[0].Attempts)

	rec = s.do(http.MethodGet, "/api/failures?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)

	s = newTestServer(t, nil, map[string]usecase.Pinger{
		"redis": usecase.PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})
	rec = s.do(http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestRunPass(t *testing.T) {
	report := &entity.PassReport{
		StartedAt: time.Now(),
		Outcomes: []entity.Outcome{
			{URL: "https://example.com/X1", Identity: "X1", State: entity.StateChanged, Changes: entity.ChangeSet{
				{Kind: entity.ChangeModified, Key: "Status", Old: "OPEN", New: "CLOSED"},
			}},
			{URL: "https://example.com/bad", State: entity.StateExtractionFailed, Err: errors.New("boom")},
		},
	}
	s := newTestServer(t, stubRunner{report: report}, nil)

	rec := s.do(http.MethodPost, "/api/passes")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp response.PassResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Changed)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, "boom", resp.Outcomes[1].Error)
	assert.Equal(t, "CLOSED", resp.Outcomes[0].Changes[0].New)
}

// disconnectingFetcher cancels the client request on its first fetch and
// serves a one-field page named after the URL.
type disconnectingFetcher struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (f *disconnectingFetcher) Fetch(ctx context.Context, url string) (*entity.Document, error) {
	f.once.Do(f.cancel)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &entity.Document{URL: url, StatusCode: http.StatusOK, Body: []byte(path.Base(url))}, nil
}

type idExtractor struct{}

func (idExtractor) Extract(doc *entity.Document) (*entity.RawRecord, error) {
	return entity.NewRawRecord(entity.Field{Key: "ID nadmetanja", Value: string(doc.Body)}), nil
}

type collectingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *collectingNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func TestRunPassSurvivesClientDisconnect(t *testing.T) {
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := memory.NewRecordRepo()
	failures := memory.NewFailureRepo()
	notifier := &collectingNotifier{}
	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Targets:   targets.Static{"https://example.com/u1", "https://example.com/u2", "https://example.com/u3"},
		Fetcher:   &disconnectingFetcher{cancel: cancel},
		Extractor: idExtractor{},
		Records:   records,
		Notifier:  notifier,
		Failures:  failures,
	}, usecase.MonitorConfig{IdentityField: "ID nadmetanja"}, zaptest.NewLogger(t))
	s := newTestServer(t, monitor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/passes", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp response.PassResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.New)
	assert.Equal(t, 0, resp.Failed)

	stored, err := records.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	logged, err := failures.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, logged)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.messages, 3)
	for _, m := range notifier.messages {
		assert.True(t, strings.HasPrefix(m, "New auction u"), m)
	}
}

func TestRunPassConflict(t *testing.T) {
	s := newTestServer(t, stubRunner{err: usecase.ErrPassInProgress}, nil)
	rec := s.do(http.MethodPost, "/api/passes")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunPassDisabled(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(http.MethodPost, "/api/passes")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMetricsEndpointAndRouteLabels(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.do(http.MethodGet, "/api/records/X1")
	s.do(http.MethodGet, "/api/records/other")

	assert.Equal(t, 2.0, testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/records/{identity}", "200"),
	)+testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/records/{identity}", "404"),
	))

	rec := s.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

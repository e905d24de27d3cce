package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
	"github.com/user/auction-watch/pkg/metrics"
)

// ErrPassInProgress is returned when a pass is requested while another one runs.
var ErrPassInProgress = errors.New("a pass is already in progress")

// PassRunner runs one complete pass over the tracked pages.
type PassRunner interface {
	RunPass(ctx context.Context) (*entity.PassReport, error)
}

// MonitorDeps are the collaborators of a Monitor. Failures, Outbox, Lock and
// Metrics are optional.
type MonitorDeps struct {
	Targets   repository.TargetRepository
	Fetcher   repository.FetcherRepository
	Extractor repository.ExtractorRepository
	Records   repository.RecordRepository
	Notifier  repository.NotifierRepository
	Failures  repository.FailureRepository
	Outbox    repository.OutboxRepository
	Lock      repository.LockRepository
	Metrics   *metrics.Metrics
}

// MonitorConfig tunes a Monitor.
type MonitorConfig struct {
	IdentityField string
	Projection    Projection
	// Concurrency bounds the number of pages processed at once. Default 1.
	Concurrency int
	// LockTTL bounds how long the pass lock is held. Default 10m.
	LockTTL time.Duration
	// AnnounceTimeout bounds a notification sent while a record write is
	// pending, since the store keeps its transaction open meanwhile. Default 10s.
	AnnounceTimeout time.Duration
}

// Monitor detects new and changed auction records. For every tracked URL it
// fetches, extracts and normalizes the record, compares its fingerprint with
// the stored one, announces what changed and writes the new state.
type Monitor struct {
	deps        MonitorDeps
	normalizer  *Normalizer
	projection  Projection
	concurrency int
	lockTTL     time.Duration
	announceTTL time.Duration
	logger      *zap.Logger
	now         func() time.Time

	running    atomic.Bool
	identities keyedMutex
}

// NewMonitor creates a new Monitor.
func NewMonitor(deps MonitorDeps, cfg MonitorConfig, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.AnnounceTimeout <= 0 {
		cfg.AnnounceTimeout = 10 * time.Second
	}
	return &Monitor{
		deps:        deps,
		normalizer:  NewNormalizer(cfg.IdentityField),
		projection:  cfg.Projection,
		concurrency: cfg.Concurrency,
		lockTTL:     cfg.LockTTL,
		announceTTL: cfg.AnnounceTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// RunPass processes every tracked URL once. Errors confined to one URL are
// reported in the returned PassReport; only a failure to start the pass (the
// target list or the pass lock) is returned as an error. Cancelling ctx
// aborts the pass: URLs not yet processed end in StateAborted without being
// recorded as failures, and the partial report is returned with an error.
func (m *Monitor) RunPass(ctx context.Context) (*entity.PassReport, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrPassInProgress
	}
	defer m.running.Store(false)

	if m.deps.Lock != nil {
		release, err := m.deps.Lock.Acquire(ctx, m.lockTTL)
		if errors.Is(err, repository.ErrLockHeld) {
			return nil, ErrPassInProgress
		}
		if err != nil {
			return nil, fmt.Errorf("acquire pass lock: %w", err)
		}
		defer func() {
			// The pass context may already be done; release regardless.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release pass lock", zap.Error(err))
			}
		}()
	}

	start := m.now()
	urls, err := m.deps.Targets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	urls = dedupe(urls)
	m.logger.Info("Starting pass", zap.Int("targets", len(urls)))

	report := &entity.PassReport{StartedAt: start}
	report.OutboxDelivered = m.drainOutbox(ctx)

	outcomes := make([]entity.Outcome, len(urls))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			outcomes[i] = m.processURL(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	report.Outcomes = outcomes
	finished := m.now()
	report.Duration = finished.Sub(start)
	m.observeOutbox(context.WithoutCancel(ctx))

	if err := ctx.Err(); err != nil {
		m.logger.Warn("Pass aborted",
			zap.Int("aborted", report.Count(entity.StateAborted)),
			zap.Duration("duration", report.Duration),
			zap.Error(err),
		)
		return report, fmt.Errorf("pass aborted: %w", err)
	}
	m.deps.Metrics.ObservePass(report.Duration, finished)

	m.logger.Info("Pass finished",
		zap.Int("new", report.Count(entity.StateNew)),
		zap.Int("changed", report.Count(entity.StateChanged)),
		zap.Int("unchanged", report.Count(entity.StateUnchanged)),
		zap.Int("failed", len(report.Failures())),
		zap.Int("outbox_delivered", report.OutboxDelivered),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (m *Monitor) processURL(ctx context.Context, rawURL string) entity.Outcome {
	out := entity.Outcome{URL: rawURL}
	if err := ctx.Err(); err != nil {
		return m.abort(out, err)
	}

	start := time.Now()
	doc, err := m.deps.Fetcher.Fetch(ctx, rawURL)
	m.deps.Metrics.ObserveFetch(hostOf(rawURL), time.Since(start))
	if err != nil {
		return m.fail(ctx, out, entity.KindFetch, err)
	}

	raw, err := m.deps.Extractor.Extract(doc)
	if err != nil {
		return m.fail(ctx, out, entity.KindExtraction, err)
	}

	rec, identity, err := m.normalizer.Normalize(raw)
	if err != nil {
		kind := entity.KindExtraction
		if errors.Is(err, entity.ErrMissingIdentity) {
			kind = entity.KindMissingIdentity
		}
		return m.fail(ctx, out, kind, err)
	}
	out.Identity = identity

	return m.reconcile(ctx, out, rec)
}

// reconcile compares rec against the stored state and writes it through when
// it is new or changed. The whole sequence holds the identity's lock.
func (m *Monitor) reconcile(ctx context.Context, out entity.Outcome, rec entity.NormalizedRecord) entity.Outcome {
	unlock := m.identities.Lock(out.Identity)
	defer unlock()

	log := m.logger.With(zap.String("url", out.URL), zap.String("identity", out.Identity))
	fingerprint := Fingerprint(rec)

	stored, err := m.deps.Records.Get(ctx, out.Identity)
	var expected, message string
	switch {
	case errors.Is(err, repository.ErrNotFound):
		out.State = entity.StateNew
		message = newRecordMessage(out.Identity, out.URL, rec)
	case err != nil:
		return m.fail(ctx, out, entity.KindPersistence, fmt.Errorf("load stored record: %w", err))
	case stored.Fingerprint == fingerprint && stored.URL == out.URL:
		out.State = entity.StateUnchanged
		log.Debug("Record unchanged", zap.String("fingerprint", fingerprint))
		m.deps.Metrics.IncEntity(string(out.State))
		m.clearFailure(ctx, out.URL)
		return out
	case stored.Fingerprint == fingerprint:
		expected = stored.Fingerprint
		out.State = entity.StateUnchanged
		log.Info("Record moved to a new URL", zap.String("previous_url", stored.URL))
	default:
		expected = stored.Fingerprint
		out.Changes = Diff(stored.Record, rec)
		if out.Changes.Empty() {
			// Same content under a stale fingerprint: rewrite quietly.
			out.State = entity.StateUnchanged
			log.Warn("Stored fingerprint does not match stored record, rewriting",
				zap.String("stored_fingerprint", stored.Fingerprint))
		} else {
			out.State = entity.StateChanged
			message = changedRecordMessage(out.Identity, out.URL, out.Changes)
		}
	}

	persisted := &entity.PersistedRecord{
		Identity:    out.Identity,
		URL:         out.URL,
		Fingerprint: fingerprint,
		Record:      rec,
		Projected:   m.projection.Project(rec),
		UpdatedAt:   m.now().UTC(),
	}
	var announce repository.AnnounceFunc
	if message != "" {
		announce = func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, m.announceTTL)
			defer cancel()
			m.dispatch(ctx, message)
		}
	}

	// A write that has started runs to completion even if the pass is
	// cancelled, so an announced change is never rolled back by the cancel.
	writeCtx := context.WithoutCancel(ctx)
	if err := m.deps.Records.Upsert(writeCtx, persisted, expected, announce); err != nil {
		return m.fail(ctx, out, entity.KindPersistence, fmt.Errorf("upsert record: %w", err))
	}

	log.Info("Record stored",
		zap.String("state", string(out.State)),
		zap.String("fingerprint", fingerprint),
		zap.Int("changes", len(out.Changes)),
	)
	m.deps.Metrics.IncEntity(string(out.State))
	m.clearFailure(writeCtx, out.URL)
	return out
}

// abort marks a URL the cancelled pass left unfinished. Nothing is recorded
// or announced for it.
func (m *Monitor) abort(out entity.Outcome, err error) entity.Outcome {
	out.State = entity.StateAborted
	out.Err = err
	out.Changes = nil
	m.logger.Warn("Processing aborted", zap.String("url", out.URL), zap.Error(err))
	m.deps.Metrics.IncEntity(string(out.State))
	return out
}

// fail records an entity-scoped failure, announces it and returns the outcome.
// Errors seen after the pass was cancelled are not the URL's fault and only
// abort it.
func (m *Monitor) fail(ctx context.Context, out entity.Outcome, kind entity.ErrorKind, err error) entity.Outcome {
	if ctx.Err() != nil {
		return m.abort(out, err)
	}
	out.Err = &entity.EntityError{Kind: kind, URL: out.URL, Identity: out.Identity, Err: err}
	out.State = entity.StateExtractionFailed
	if kind == entity.KindPersistence {
		out.State = entity.StatePersistenceFailed
	}
	out.Changes = nil

	m.logger.Error("Processing failed",
		zap.String("url", out.URL),
		zap.String("identity", out.Identity),
		zap.String("state", string(out.State)),
		zap.String("error_kind", string(kind)),
		zap.Error(err),
	)
	m.deps.Metrics.IncEntity(string(out.State))

	if m.deps.Failures != nil {
		f := &entity.Failure{
			URL:           out.URL,
			Identity:      out.Identity,
			Kind:          kind,
			Reason:        err.Error(),
			LastAttemptAt: m.now().UTC(),
		}
		if err := m.deps.Failures.SaveOrUpdate(ctx, f); err != nil {
			m.logger.Warn("Failed to record failure", zap.String("url", out.URL), zap.Error(err))
		}
	}

	m.dispatch(ctx, failureMessage(out))
	return out
}

func (m *Monitor) clearFailure(ctx context.Context, url string) {
	if m.deps.Failures == nil {
		return
	}
	if err := m.deps.Failures.Delete(ctx, url); err != nil {
		// This is not a critical error, just log it.
		m.logger.Warn("Failed to clear failure after successful processing", zap.String("url", url), zap.Error(err))
	}
}

// dispatch delivers message best-effort. Undelivered messages go to the outbox
// when one is configured; delivery errors are never returned.
func (m *Monitor) dispatch(ctx context.Context, message string) {
	err := m.deps.Notifier.Notify(ctx, message)
	if err == nil {
		m.deps.Metrics.IncNotification("sent")
		return
	}
	m.deps.Metrics.IncNotification("failed")
	m.logger.Warn("Notification delivery failed",
		zap.String("error_kind", string(entity.KindNotification)),
		zap.Error(err),
	)

	if m.deps.Outbox == nil {
		return
	}
	if err := m.deps.Outbox.Push(context.WithoutCancel(ctx), message); err != nil {
		m.logger.Error("Failed to queue undelivered notification", zap.Error(err))
		return
	}
	m.deps.Metrics.IncNotification("queued")
}

// drainOutbox redelivers queued notifications, oldest first, and stops at the
// first one that fails again.
func (m *Monitor) drainOutbox(ctx context.Context) int {
	if m.deps.Outbox == nil {
		return 0
	}
	delivered := 0
	for ctx.Err() == nil {
		msg, err := m.deps.Outbox.Pop(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return delivered
		}
		if err != nil {
			m.logger.Warn("Failed to read notification outbox", zap.Error(err))
			return delivered
		}
		if err := m.deps.Notifier.Notify(ctx, msg); err != nil {
			m.logger.Warn("Queued notification still undeliverable", zap.Error(err))
			if err := m.deps.Outbox.Requeue(context.WithoutCancel(ctx), msg); err != nil {
				m.logger.Error("Failed to requeue notification, message lost", zap.Error(err), zap.String("message", msg))
			}
			return delivered
		}
		m.deps.Metrics.IncNotification("sent")
		delivered++
	}
	return delivered
}

func (m *Monitor) observeOutbox(ctx context.Context) {
	if m.deps.Outbox == nil {
		return
	}
	n, err := m.deps.Outbox.Size(ctx)
	if err != nil {
		m.logger.Warn("Failed to read notification outbox size", zap.Error(err))
		return
	}
	m.deps.Metrics.SetOutboxDepth(n)
}

// dedupe drops repeated URLs, keeping the first occurrence.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

package usecase

import (
	"context"
	"errors"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
)

// ErrFailuresUnavailable is returned when no failure log is configured.
var ErrFailuresUnavailable = errors.New("failure log is not configured")

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Inspector exposes read-only views of the stored state.
type Inspector interface {
	GetRecord(ctx context.Context, identity string) (*entity.PersistedRecord, error)
	ListRecords(ctx context.Context) ([]*entity.PersistedRecord, error)
	ListFailures(ctx context.Context, limit int) ([]*entity.Failure, error)
	// Health maps each dependency name to "ok" or its error text. The bool is
	// false if any dependency is down.
	Health(ctx context.Context) (map[string]string, bool)
}

type inspectorUseCase struct {
	records  repository.RecordRepository
	failures repository.FailureRepository
	pingers  map[string]Pinger
}

// NewInspector creates a new Inspector. failures may be nil.
func NewInspector(records repository.RecordRepository, failures repository.FailureRepository, pingers map[string]Pinger) Inspector {
	if pingers == nil {
		pingers = map[string]Pinger{}
	}
	if _, ok := pingers["store"]; !ok {
		pingers["store"] = records
	}
	return &inspectorUseCase{records: records, failures: failures, pingers: pingers}
}

func (uc *inspectorUseCase) GetRecord(ctx context.Context, identity string) (*entity.PersistedRecord, error) {
	return uc.records.Get(ctx, identity)
}

func (uc *inspectorUseCase) ListRecords(ctx context.Context) ([]*entity.PersistedRecord, error) {
	return uc.records.List(ctx)
}

func (uc *inspectorUseCase) ListFailures(ctx context.Context, limit int) ([]*entity.Failure, error) {
	if uc.failures == nil {
		return nil, ErrFailuresUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	return uc.failures.List(ctx, limit)
}

func (uc *inspectorUseCase) Health(ctx context.Context) (map[string]string, bool) {
	status := make(map[string]string, len(uc.pingers))
	healthy := true
	for name, p := range uc.pingers {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/auction-watch/internal/adapter/memory"
	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
)

func TestInspector(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordRepo()
	failures := memory.NewFailureRepo()

	r := rec(idField, "X1", "Status", "OPEN")
	require.NoError(t, records.Upsert(ctx, &entity.PersistedRecord{
		Identity: "X1", Fingerprint: Fingerprint(r), Record: r, UpdatedAt: time.Now(),
	}, "", nil))
	require.NoError(t, failures.SaveOrUpdate(ctx, &entity.Failure{URL: "u", Kind: entity.KindFetch, LastAttemptAt: time.Now()}))

	insp := NewInspector(records, failures, map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	got, err := insp.GetRecord(ctx, "X1")
	require.NoError(t, err)
	assert.Equal(t, "X1", got.Identity)

	_, err = insp.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := insp.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	fl, err := insp.ListFailures(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, fl, 1)

	status, healthy := insp.Health(ctx)
	assert.False(t, healthy)
	assert.Equal(t, "ok", status["store"])
	assert.Equal(t, "connection refused", status["redis"])
}

func TestInspectorWithoutFailureLog(t *testing.T) {
	insp := NewInspector(memory.NewRecordRepo(), nil, nil)
	_, err := insp.ListFailures(context.Background(), 10)
	assert.ErrorIs(t, err, ErrFailuresUnavailable)

	_, healthy := insp.Health(context.Background())
	assert.True(t, healthy)
}

package lognotify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifyLogsMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), "New auction X1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "New auction X1", entries[0].ContextMap()["message"])
}

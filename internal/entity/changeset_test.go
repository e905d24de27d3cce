package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeSetRenderOrdersByKey(t *testing.T) {
	cs := ChangeSet{
		{Kind: ChangeModified, Key: "Status", Old: "OPEN", New: "CLOSED"},
		{Kind: ChangeAdded, Key: "Napomena 2", New: "nova"},
		{Kind: ChangeRemoved, Key: "Cijena", Old: "100"},
	}

	assert.Equal(t,
		"- Cijena: 100\n+ Napomena 2: nova\n~ Status: OPEN -> CLOSED",
		cs.Render())
	assert.Equal(t, "Status", cs[0].Key, "Render must not reorder the receiver")
	assert.False(t, cs.Empty())
	assert.True(t, ChangeSet(nil).Empty())
}

func TestEntityErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("process: %w", &EntityError{
		Kind: KindMissingIdentity,
		URL:  "https://example.test/a",
		Err:  ErrMissingIdentity,
	})

	assert.True(t, errors.Is(err, ErrMissingIdentity))
	assert.Equal(t, KindMissingIdentity, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "missing_identity error for https://example.test/a")
}

func TestPassReportCounts(t *testing.T) {
	r := &PassReport{Outcomes: []Outcome{
		{State: StateNew},
		{State: StateChanged},
		{State: StateChanged},
		{State: StateExtractionFailed},
		{State: StatePersistenceFailed},
	}}

	assert.Equal(t, 2, r.Count(StateChanged))
	assert.Equal(t, 0, r.Count(StateUnchanged))
	assert.Len(t, r.Failures(), 2)
}

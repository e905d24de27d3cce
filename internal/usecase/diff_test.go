package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/auction-watch/internal/entity"
)

func rec(kv ...string) entity.NormalizedRecord {
	fields := make([]entity.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, entity.Field{Key: kv[i], Value: kv[i+1]})
	}
	return entity.NewNormalizedRecord(fields)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old, new entity.NormalizedRecord
		want     entity.ChangeSet
	}{
		{
			name: "identical",
			old:  rec("a", "1", "b", "2"),
			new:  rec("b", "2", "a", "1"),
			want: nil,
		},
		{
			name: "modified",
			old:  rec("Status", "OPEN"),
			new:  rec("Status", "CLOSED"),
			want: entity.ChangeSet{{Kind: entity.ChangeModified, Key: "Status", Old: "OPEN", New: "CLOSED"}},
		},
		{
			name: "added and removed",
			old:  rec("a", "1", "c", "3"),
			new:  rec("b", "2", "c", "3"),
			want: entity.ChangeSet{
				{Kind: entity.ChangeRemoved, Key: "a", Old: "1"},
				{Kind: entity.ChangeAdded, Key: "b", New: "2"},
			},
		},
		{
			name: "from empty",
			old:  rec(),
			new:  rec("x", "1"),
			want: entity.ChangeSet{{Kind: entity.ChangeAdded, Key: "x", New: "1"}},
		},
		{
			name: "to empty",
			old:  rec("x", "1", "y", "2"),
			new:  rec(),
			want: entity.ChangeSet{
				{Kind: entity.ChangeRemoved, Key: "x", Old: "1"},
				{Kind: entity.ChangeRemoved, Key: "y", Old: "2"},
			},
		},
		{
			name: "value becomes not available",
			old:  rec("Napomena", "tekst"),
			new:  rec("Napomena", entity.NotAvailable),
			want: entity.ChangeSet{{Kind: entity.ChangeModified, Key: "Napomena", Old: "tekst", New: entity.NotAvailable}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.old.Equal(tt.new), got.Empty())
		})
	}
}

func TestDiffIsAntisymmetric(t *testing.T) {
	a := rec("a", "1", "b", "2")
	b := rec("b", "3", "c", "4")

	forward := Diff(a, b)
	backward := Diff(b, a)
	assert.Len(t, backward, len(forward))
	for i := range forward {
		f, r := forward[i], backward[i]
		assert.Equal(t, f.Key, r.Key)
		assert.Equal(t, f.Old, r.New)
		assert.Equal(t, f.New, r.Old)
	}
}

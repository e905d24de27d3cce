package usecase

import "github.com/user/auction-watch/internal/entity"

// Diff lists the field-level differences from old to new, ordered by key.
// The result is empty exactly when both records hold the same mapping.
func Diff(old, new entity.NormalizedRecord) entity.ChangeSet {
	a, b := old.Fields(), new.Fields()
	var changes entity.ChangeSet

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i].Key < b[j].Key):
			changes = append(changes, entity.Change{Kind: entity.ChangeRemoved, Key: a[i].Key, Old: a[i].Value})
			i++
		case i >= len(a) || b[j].Key < a[i].Key:
			changes = append(changes, entity.Change{Kind: entity.ChangeAdded, Key: b[j].Key, New: b[j].Value})
			j++
		default:
			if a[i].Value != b[j].Value {
				changes = append(changes, entity.Change{
					Kind: entity.ChangeModified,
					Key:  a[i].Key,
					Old:  a[i].Value,
					New:  b[j].Value,
				})
			}
			i++
			j++
		}
	}
	return changes
}

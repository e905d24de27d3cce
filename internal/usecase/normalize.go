package usecase

import (
	"fmt"
	"strings"

	"github.com/user/auction-watch/internal/entity"
)

// Normalizer converts extracted records into their canonical form.
type Normalizer struct {
	identityField string
}

// NewNormalizer returns a Normalizer that reads the entity identity from
// identityField.
func NewNormalizer(identityField string) *Normalizer {
	return &Normalizer{identityField: identityField}
}

// Normalize returns raw in canonical form together with its identity.
//
// Values lose surrounding whitespace and blank values become
// entity.NotAvailable. Keys are kept exactly as extracted, so distinct labels
// never collapse into one; keys that are blank after trimming are dropped.
// Nothing else about a value changes. A record without a usable identity
// fails with entity.ErrMissingIdentity.
func (n *Normalizer) Normalize(raw *entity.RawRecord) (entity.NormalizedRecord, string, error) {
	fields := make([]entity.Field, 0, raw.Len())
	for _, f := range raw.Fields() {
		if strings.TrimSpace(f.Key) == "" {
			continue
		}
		value := strings.TrimSpace(f.Value)
		if value == "" {
			value = entity.NotAvailable
		}
		fields = append(fields, entity.Field{Key: f.Key, Value: value})
	}

	rec := entity.NewNormalizedRecord(fields)
	identity, ok := rec.Get(n.identityField)
	if !ok || identity == entity.NotAvailable {
		return entity.NormalizedRecord{}, "", fmt.Errorf("%w: %q", entity.ErrMissingIdentity, n.identityField)
	}
	return rec, identity, nil
}

package usecase

import (
	"strconv"
	"strings"

	"github.com/user/auction-watch/internal/entity"
)

// Projection names the source labels copied into entity.ProjectedFields.
type Projection struct {
	TopBid           string
	Status           string
	ParticipantCount string
}

// Project reads the configured labels out of rec. Missing labels and
// entity.NotAvailable project to the zero value.
func (p Projection) Project(rec entity.NormalizedRecord) entity.ProjectedFields {
	var out entity.ProjectedFields
	out.TopBid = p.lookup(rec, p.TopBid)
	out.AuctionStatus = p.lookup(rec, p.Status)
	if raw := p.lookup(rec, p.ParticipantCount); raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			out.ParticipantCount = &n
		}
	}
	return out
}

func (p Projection) lookup(rec entity.NormalizedRecord, label string) string {
	if label == "" {
		return ""
	}
	v, ok := rec.Get(label)
	if !ok || v == entity.NotAvailable {
		return ""
	}
	return v
}

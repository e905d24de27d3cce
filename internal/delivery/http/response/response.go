package response

import (
	"time"

	"github.com/user/auction-watch/internal/entity"
)

// RecordSummary is one row of the record listing.
type RecordSummary struct {
	Identity         string    `json:"identity"`
	URL              string    `json:"url"`
	TopBid           string    `json:"top_bid,omitempty"`
	AuctionStatus    string    `json:"auction_status,omitempty"`
	ParticipantCount *int      `json:"participant_count,omitempty"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RecordDetail is a stored record with its full field set.
type RecordDetail struct {
	RecordSummary
	Fingerprint string                  `json:"fingerprint"`
	Record      entity.NormalizedRecord `json:"record"`
}

// FailureResponse mirrors entity.Failure.
type FailureResponse struct {
	URL           string    `json:"url"`
	Identity      string    `json:"identity,omitempty"`
	Kind          string    `json:"kind"`
	Reason        string    `json:"reason"`
	Attempts      int       `json:"attempts"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}

// OutcomeResponse is the result for one URL of a pass.
type OutcomeResponse struct {
	URL      string          `json:"url"`
	Identity string          `json:"identity,omitempty"`
	State    string          `json:"state"`
	Changes  []entity.Change `json:"changes,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PassResponse summarizes a pass triggered through the API.
type PassResponse struct {
	StartedAt       time.Time         `json:"started_at"`
	DurationMS      int64             `json:"duration_ms"`
	New             int               `json:"new"`
	Changed         int               `json:"changed"`
	Unchanged       int               `json:"unchanged"`
	Failed          int               `json:"failed"`
	OutboxDelivered int               `json:"outbox_delivered"`
	Outcomes        []OutcomeResponse `json:"outcomes"`
}

// HealthResponse reports the state of every backing service.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewRecordSummary(r *entity.PersistedRecord) RecordSummary {
	return RecordSummary{
		Identity:         r.Identity,
		URL:              r.URL,
		TopBid:           r.Projected.TopBid,
		AuctionStatus:    r.Projected.AuctionStatus,
		ParticipantCount: r.Projected.ParticipantCount,
		FirstSeenAt:      r.FirstSeenAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func NewRecordDetail(r *entity.PersistedRecord) RecordDetail {
	return RecordDetail{
		RecordSummary: NewRecordSummary(r),
		Fingerprint:   r.Fingerprint,
		Record:        r.Record,
	}
}

func NewFailureResponse(f *entity.Failure) FailureResponse {
	return FailureResponse{
		URL:           f.URL,
		Identity:      f.Identity,
		Kind:          string(f.Kind),
		Reason:        f.Reason,
		Attempts:      f.Attempts,
		FirstFailedAt: f.FirstFailedAt,
		LastAttemptAt: f.LastAttemptAt,
	}
}

func NewPassResponse(r *entity.PassReport) PassResponse {
	resp := PassResponse{
		StartedAt:       r.StartedAt,
		DurationMS:      r.Duration.Milliseconds(),
		New:             r.Count(entity.StateNew),
		Changed:         r.Count(entity.StateChanged),
		Unchanged:       r.Count(entity.StateUnchanged),
		Failed:          len(r.Failures()),
		OutboxDelivered: r.OutboxDelivered,
		Outcomes:        make([]OutcomeResponse, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		out := OutcomeResponse{
			URL:      o.URL,
			Identity: o.Identity,
			State:    string(o.State),
			Changes:  o.Changes,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}

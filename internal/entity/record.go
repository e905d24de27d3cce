package entity

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// NotAvailable is stored in place of a field the page showed with no value.
const NotAvailable = "N/A"

// Field is a single label/value pair as surfaced by a listing page.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawRecord is the label -> value mapping extracted from one page, in
// extraction order. It is never persisted.
type RawRecord struct {
	keys   []string
	values map[string]string
}

// NewRawRecord builds a RawRecord from fields; a repeated key keeps its first
// position and its last value.
func NewRawRecord(fields ...Field) *RawRecord {
	r := &RawRecord{}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set stores value under key.
func (r *RawRecord) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *RawRecord) Get(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (r *RawRecord) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Fields returns the fields in extraction order.
func (r *RawRecord) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Field{Key: k, Value: r.values[k]})
	}
	return out
}

// NormalizedRecord is a record in canonical form: fields sorted by key with
// unique keys. Two NormalizedRecords holding the same mapping always
// serialize to the same bytes. The zero value is an empty record.
type NormalizedRecord struct {
	fields []Field
}

// NewNormalizedRecord sorts fields by key. When a key repeats, the last value
// wins. Values are taken as given.
func NewNormalizedRecord(fields []Field) NormalizedRecord {
	byKey := make(map[string]string, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f.Value
	}
	sorted := make([]Field, 0, len(byKey))
	for k, v := range byKey {
		sorted = append(sorted, Field{Key: k, Value: v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return NormalizedRecord{fields: sorted}
}

// Get returns the value stored under key.
func (n NormalizedRecord) Get(key string) (string, bool) {
	i := sort.Search(len(n.fields), func(i int) bool { return n.fields[i].Key >= key })
	if i < len(n.fields) && n.fields[i].Key == key {
		return n.fields[i].Value, true
	}
	return "", false
}

// Len returns the number of fields.
func (n NormalizedRecord) Len() int { return len(n.fields) }

// Fields returns a copy of the fields in key order.
func (n NormalizedRecord) Fields() []Field {
	out := make([]Field, len(n.fields))
	copy(out, n.fields)
	return out
}

// Equal reports whether both records hold the same mapping.
func (n NormalizedRecord) Equal(other NormalizedRecord) bool {
	if len(n.fields) != len(other.fields) {
		return false
	}
	for i := range n.fields {
		if n.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// Canonical returns the canonical serialization: a JSON object whose members
// appear in key order.
func (n NormalizedRecord) Canonical() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range n.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Marshalling a string cannot fail.
		k, _ := json.Marshal(f.Key)
		v, _ := json.Marshal(f.Value)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// MarshalJSON implements json.Marshaler using the canonical serialization.
func (n NormalizedRecord) MarshalJSON() ([]byte, error) {
	return n.Canonical(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Member order in the input does
// not matter.
func (n *NormalizedRecord) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	fields := make([]Field, 0, len(m))
	for k, v := range m {
		fields = append(fields, Field{Key: k, Value: v})
	}
	*n = NewNormalizedRecord(fields)
	return nil
}

// Render formats the record as "key: value" lines in key order.
func (n NormalizedRecord) Render() string {
	var sb strings.Builder
	for i, f := range n.fields {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.Key)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
	}
	return sb.String()
}

// ProjectedFields are copied out of the record for querying. They are derived
// data; the serialized record is authoritative.
type ProjectedFields struct {
	TopBid           string `json:"top_bid"`
	AuctionStatus    string `json:"auction_status"`
	ParticipantCount *int   `json:"participant_count,omitempty"`
}

// PersistedRecord is the last known state of one tracked auction.
type PersistedRecord struct {
	Identity    string
	URL         string
	Fingerprint string
	Record      NormalizedRecord
	Projected   ProjectedFields
	FirstSeenAt time.Time
	UpdatedAt   time.Time
}

// Document is a fetched page.
type Document struct {
	URL        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

package categorize

import (
	"bytes"
	"encoding/json"

	"github.com/teemow/mailpilot/internal/mailbox"
)

// Category names, in presentation order.
const (
	JobAlerts   = "Job Alerts"
	Newsletters = "Newsletters"
	Promotions  = "Promotions"
	Personal    = "Personal"
	Work        = "Work"
	Others      = "Others"
)

// Categories lists every category in presentation order.
var Categories = []string{JobAlerts, Newsletters, Promotions, Personal, Work, Others}

// Batch maps each category to its records. The zero value is usable.
type Batch struct {
	buckets map[string][]mailbox.Record
}

// NewBatch returns an empty Batch.
func NewBatch() Batch {
	return Batch{buckets: make(map[string][]mailbox.Record, len(Categories))}
}

// Add appends r to category.
func (b *Batch) Add(category string, r mailbox.Record) {
	if r.Links == nil {
		r.Links = []string{}
	}
	if b.buckets == nil {
		b.buckets = make(map[string][]mailbox.Record, len(Categories))
	}
	b.buckets[category] = append(b.buckets[category], r)
}

// Get returns the records of category.
func (b Batch) Get(category string) []mailbox.Record {
	return b.buckets[category]
}

// Len returns the number of records across all categories.
func (b Batch) Len() int {
	n := 0
	for _, c := range Categories {
		n += len(b.buckets[c])
	}
	return n
}

// MarshalJSON writes all six categories in order, empty ones as [].
func (b Batch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		records := b.buckets[c]
		if records == nil {
			records = []mailbox.Record{}
		}
		val, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Package memory keeps the records from the most recent fetch so replies
// can refer back to them.
package memory

import (
	"log/slog"
	"strings"

	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
)

// Store holds at most one batch of records. It is not safe for concurrent
// use; capability calls are executed one at a time.
type Store struct {
	records []mailbox.Record
	logger  *slog.Logger
}

// New returns an empty Store.
func New(logger *slog.Logger) *Store {
	return &Store{logger: logging.WithComponent(logger, "memory")}
}

// Set replaces the stored batch. Records without an id are dropped.
func (s *Store) Set(records []mailbox.Record) {
	kept := make([]mailbox.Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		kept = append(kept, cloneRecord(r))
	}
	s.records = kept
	s.logger.Debug("stored records for reply context", logging.Count(len(kept)))
}

// Get returns a copy of the stored batch, in fetch order.
func (s *Store) Get() []mailbox.Record {
	out := make([]mailbox.Record, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// FindByID returns the stored record with the given id.
func (s *Store) FindByID(id string) (mailbox.Record, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return cloneRecord(r), true
		}
	}
	return mailbox.Record{}, false
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

func cloneRecord(r mailbox.Record) mailbox.Record {
	if r.Links != nil {
		r.Links = append([]string(nil), r.Links...)
	}
	return r
}

// Package store holds decrypted keybox records in memory (C5 in the
// design): an ordered column list plus insertion-ordered records, with
// add/modify/delete/find/iterate and header reordering.
package store

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	kberrors "keybox/internal/errors"
)

// DefaultColumns is the column order a freshly created store starts with
//.
var DefaultColumns = []string{"site", "user", "url", "tags", "mtime", "note", "password"}

// searchableColumns lists the columns find() scans when the query is not
// restricted to a single column.
var searchableColumns = []string{"site", "user", "url", "tags", "note"}

const mtimeLayout = "2006-01-02 15:04:05"

// Record is an open mapping from column name to value. Identity is the
// handle returned by Add, not the field contents: two records with
// identical fields remain distinct.
type Record struct {
	id     uuid.UUID
	Fields map[string]string
}

// ID returns the record's opaque identity handle.
func (r *Record) ID() uuid.UUID { return r.id }

// Store holds an ordered column list and the records currently known to
// it, in stable insertion order.
type Store struct {
	Columns []string
	records map[uuid.UUID]*Record
	order   []uuid.UUID

	// Clock supplies the current time for mtime stamping. Tests inject a
	// fixed clock; production code leaves this nil and falls back to
	// time.Now.
	Clock func() time.Time
}

// New returns an empty store with the default column order.
func New() *Store {
	return &Store{
		Columns: append([]string(nil), DefaultColumns...),
		records: make(map[uuid.UUID]*Record),
	}
}

func (s *Store) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Store) formattedNow() string {
	return s.now().UTC().Format(mtimeLayout)
}

// Add creates a new record from fields, stamps mtime to now, appends it
// in insertion order, and returns it.
func (s *Store) Add(fields map[string]string) *Record {
	r := s.newRecord(fields)
	r.Fields["mtime"] = s.formattedNow()
	s.insert(r)
	return r
}

// AddImported creates a new record from fields without forcing mtime:
// the incoming mtime is kept if present and non-empty, otherwise it is
// set to now.
func (s *Store) AddImported(fields map[string]string) *Record {
	r := s.newRecord(fields)
	if r.Fields["mtime"] == "" {
		r.Fields["mtime"] = s.formattedNow()
	}
	s.insert(r)
	return r
}

func (s *Store) newRecord(fields map[string]string) *Record {
	values := make(map[string]string, len(s.Columns)+len(fields))
	for _, col := range s.Columns {
		values[col] = ""
	}
	for k, v := range fields {
		values[k] = v
	}
	return &Record{id: uuid.New(), Fields: values}
}

func (s *Store) insert(r *Record) {
	s.records[r.id] = r
	s.order = append(s.order, r.id)
	s.ensureColumn(r)
}

// ensureColumn appends any column present in r.Fields but absent from
// Columns, preserving the unknown-column forward-compatibility invariant
// without silently dropping data.
func (s *Store) ensureColumn(r *Record) {
	known := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		known[c] = true
	}
	var extra []string
	for c := range r.Fields {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	s.Columns = append(s.Columns, extra...)
}

// Modify updates the named fields on r, refreshing mtime, without
// changing r's identity or position in insertion order.
func (s *Store) Modify(r *Record, fields map[string]string) error {
	if _, ok := s.records[r.id]; !ok {
		return kberrors.ErrNoSuchRecord
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
	s.ensureColumn(r)
	r.Fields["mtime"] = s.formattedNow()
	return nil
}

// Delete removes r by identity.
func (s *Store) Delete(r *Record) error {
	if _, ok := s.records[r.id]; !ok {
		return kberrors.ErrNoSuchRecord
	}
	delete(s.records, r.id)
	for i, id := range s.order {
		if id == r.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Find returns records matching query in insertion order. An unqualified
// query does a case-insensitive substring match across site, user, url,
// tags, and note; a "column:value" query restricts the match to that
// column. An empty query matches every record.
func (s *Store) Find(query string) []*Record {
	column, needle, scoped := splitColumnQuery(query)
	needle = strings.ToLower(needle)

	var out []*Record
	for _, id := range s.order {
		r := s.records[id]
		if needle == "" {
			out = append(out, r)
			continue
		}
		if scoped {
			if strings.Contains(strings.ToLower(r.Fields[column]), needle) {
				out = append(out, r)
			}
			continue
		}
		for _, col := range searchableColumns {
			if strings.Contains(strings.ToLower(r.Fields[col]), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func splitColumnQuery(query string) (column, needle string, scoped bool) {
	if idx := strings.Index(query, ":"); idx > 0 {
		return query[:idx], query[idx+1:], true
	}
	return "", query, false
}

// Iter returns every record in insertion order.
func (s *Store) Iter() []*Record {
	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// SetHeader redefines the active column order. Existing records keep
// their values; columns new to the header are initialized to empty.
// Removing a column that still holds a non-empty value on some record is
// rejected with ErrUnknownColumn unless force is true.
func (s *Store) SetHeader(columns []string, force bool) error {
	newSet := make(map[string]bool, len(columns))
	for _, c := range columns {
		newSet[c] = true
	}

	if !force {
		for _, c := range s.Columns {
			if newSet[c] {
				continue
			}
			for _, id := range s.order {
				if s.records[id].Fields[c] != "" {
					return kberrors.ErrUnknownColumn
				}
			}
		}
	}

	for _, id := range s.order {
		r := s.records[id]
		for _, c := range columns {
			if _, ok := r.Fields[c]; !ok {
				r.Fields[c] = ""
			}
		}
	}

	s.Columns = append([]string(nil), columns...)
	return nil
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	return len(s.order)
}

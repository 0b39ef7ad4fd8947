// Package registry keeps the metadata recorded for each declared test case.
package registry

import (
	"slices"
	"sync"
	"time"
)

// DefaultPriority is the priority given to a test that does not declare one.
// The scale runs 0 to 10 and lower values are meant to run earlier; the
// ordering is informational only.
const DefaultPriority = 5

// TestRecord is the metadata describing one test case.
type TestRecord struct {
	// Identifier is the registry key, unique per registry.
	Identifier string
	// DisplayName defaults to Identifier.
	DisplayName string
	Description string
	Priority    int
	Groups      []string
	Enabled     bool
	// TimeoutMillis is recorded but never enforced. Zero means none.
	TimeoutMillis int
	// DependsOn names other test identifiers. Recorded, never scheduled.
	DependsOn []string
}

// NewRecord returns a record carrying the defaults: enabled, DefaultPriority,
// and DisplayName equal to the identifier.
func NewRecord(identifier string) TestRecord {
	return TestRecord{
		Identifier:  identifier,
		DisplayName: identifier,
		Priority:    DefaultPriority,
		Enabled:     true,
	}
}

// Timeout converts TimeoutMillis to a duration.
func (r TestRecord) Timeout() time.Duration {
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

// HasGroup reports whether the record is tagged with group.
func (r TestRecord) HasGroup(group string) bool {
	return slices.Contains(r.Groups, group)
}

// Label is what log lines and reports show for the test: the description when
// present, otherwise the display name.
func (r TestRecord) Label() string {
	if r.Description != "" {
		return r.Description
	}
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Identifier
}

func (r TestRecord) clone() TestRecord {
	r.Groups = slices.Clone(r.Groups)
	r.DependsOn = slices.Clone(r.DependsOn)
	return r
}

// Registry maps test identifiers to their metadata. Registration happens while
// test declarations are evaluated; afterwards the registry is only read. The
// lock makes those reads safe from parallel subtests.
type Registry struct {
	mu      sync.RWMutex
	records map[string]TestRecord
	order   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{records: make(map[string]TestRecord)}
}

// Register inserts record under identifier, replacing any earlier record for
// the same identifier. The replacement keeps the original insertion position.
func (r *Registry) Register(identifier string, record TestRecord) {
	record = record.clone()
	record.Identifier = identifier
	if record.DisplayName == "" {
		record.DisplayName = identifier
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[identifier]; !exists {
		r.order = append(r.order, identifier)
	}
	r.records[identifier] = record
}

// All returns a copy of every record keyed by identifier. Changing the copy
// does not affect the registry.
func (r *Registry) All() map[string]TestRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]TestRecord, len(r.records))
	for id, rec := range r.records {
		out[id] = rec.clone()
	}
	return out
}

// Records returns every record in insertion order.
func (r *Registry) Records() []TestRecord {
	return r.filter(func(TestRecord) bool { return true })
}

// ByGroup returns the records tagged with group, in insertion order. An
// unknown group yields an empty slice.
func (r *Registry) ByGroup(group string) []TestRecord {
	return r.filter(func(rec TestRecord) bool { return rec.HasGroup(group) })
}

// ByPriority returns the records whose priority equals priority exactly.
func (r *Registry) ByPriority(priority int) []TestRecord {
	return r.filter(func(rec TestRecord) bool { return rec.Priority == priority })
}

// Lookup returns the record registered under identifier.
func (r *Registry) Lookup(identifier string) (TestRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[identifier]
	if !ok {
		return TestRecord{}, false
	}
	return rec.clone(), true
}

// Len is the number of distinct identifiers registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) filter(keep func(TestRecord) bool) []TestRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TestRecord, 0)
	for _, id := range r.order {
		rec := r.records[id]
		if keep(rec) {
			out = append(out, rec.clone())
		}
	}
	return out
}

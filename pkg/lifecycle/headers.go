package lifecycle

import (
	"net/http"
	"sort"
)

// HeaderSet accumulates response headers across middleware and handler
// stages. Later writes for the same key overwrite earlier ones, and the
// set records which canonical names were explicitly set, in first-set
// order, so the materializer can publish a CORS exposure list.
type HeaderSet struct {
	header http.Header
	names  []string
}

// NewHeaderSet creates an empty header set.
func NewHeaderSet() *HeaderSet {
	return &HeaderSet{header: make(http.Header)}
}

// Set stores a single value for the key, replacing any existing values.
func (s *HeaderSet) Set(key, value string) {
	ck := http.CanonicalHeaderKey(key)
	if _, exists := s.header[ck]; !exists {
		s.names = append(s.names, ck)
	}
	s.header[ck] = []string{value}
}

// Add appends a value to the key.
func (s *HeaderSet) Add(key, value string) {
	ck := http.CanonicalHeaderKey(key)
	if _, exists := s.header[ck]; !exists {
		s.names = append(s.names, ck)
	}
	s.header[ck] = append(s.header[ck], value)
}

// Merge copies all values from h into the set. Keys within a single
// merge are applied in sorted order so the recorded name order is
// deterministic regardless of map iteration.
func (s *HeaderSet) Merge(h http.Header) {
	if len(h) == 0 {
		return
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vv := h[k]
		if len(vv) == 0 {
			continue
		}
		s.Set(k, vv[0])
		for _, v := range vv[1:] {
			s.Add(k, v)
		}
	}
}

// Get returns the first value set for the key, or "".
func (s *HeaderSet) Get(key string) string {
	return s.header.Get(key)
}

// Header exposes the accumulated values.
func (s *HeaderSet) Header() http.Header { return s.header }

// Names returns the explicitly set canonical header names in first-set
// order.
func (s *HeaderSet) Names() []string { return s.names }

// Package htx implements the HTTP/1.1 header and value model, the
// request reader, the response writer and the per-connection driver,
// all running over a reactor.AsyncConn.
package htx

import "strings"

// Header is a case-insensitive, insertion-stable header container.
// Lookups go through an index keyed by the lower-cased name, so Get,
// Has, Set, Add and Erase ignore case. Each field keeps its name as
// first given to Set or Add; Set and Add do not lower-case it (the
// Reader lower-cases parsed names before adding them, so request
// headers are stored lower-cased). Built as an insertion-ordered
// slice plus an index rather than a map[string][]string, since
// response emission order and the duplicate-join rule both depend on
// insertion order surviving.
type Header struct {
	fields []headerField
	index  map[string]int // lower(name) -> index into fields
}

type headerField struct {
	name  string // original case of first Set/parse
	value string
}

// NewHeader returns an empty Header ready to use.
func NewHeader() Header {
	return Header{index: make(map[string]int)}
}

func lower(name string) string {
	return strings.ToLower(name)
}

// Set overwrites the value for name (case-insensitive), or appends a
// new field if name has not been set before.
func (h *Header) Set(name, value string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	key := lower(name)
	if i, ok := h.index[key]; ok {
		h.fields[i].value = value
		return
	}
	h.index[key] = len(h.fields)
	h.fields = append(h.fields, headerField{name: name, value: value})
}

// Add appends value to any existing value for name, joined by ", "
// per the duplicate-header join rule. The first Add for a name
// behaves like Set.
func (h *Header) Add(name, value string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	key := lower(name)
	if i, ok := h.index[key]; ok {
		h.fields[i].value += ", " + value
		return
	}
	h.Set(name, value)
}

// Get returns the stored value for name (case-insensitive), or "" if
// absent.
func (h Header) Get(name string) string {
	if h.index == nil {
		return ""
	}
	if i, ok := h.index[lower(name)]; ok {
		return h.fields[i].value
	}
	return ""
}

// Has reports whether name has been set.
func (h Header) Has(name string) bool {
	if h.index == nil {
		return false
	}
	_, ok := h.index[lower(name)]
	return ok
}

// Erase removes name, if present.
func (h *Header) Erase(name string) {
	if h.index == nil {
		return
	}
	key := lower(name)
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	delete(h.index, key)
	for k, v := range h.index {
		if v > i {
			h.index[k] = v - 1
		}
	}
}

// Len returns the number of distinct header names set.
func (h Header) Len() int { return len(h.fields) }

// Range calls fn for each header in insertion order.
func (h Header) Range(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

// Package stats holds the in-memory data model produced by extraction:
// one ordered attribute record per weapon, grouped into a WeaponSet.
//
// Ordering matters: the pretty JSON artifact renders weapons and attributes
// in insertion order, so both containers preserve it explicitly instead of
// relying on map iteration.
package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Record is an ordered mapping from attribute name to value.
//
// Values are either float64 (numeric extraction, possibly NaN when the
// source text did not parse) or string (non-numeric extraction such as the
// pellet count label). A field that failed to extract is absent entirely;
// callers must use the ok result of Get rather than testing for zero.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// Set stores v under key. A repeated Set for an existing key overwrites the
// value but keeps the key's original position.
func (r *Record) Set(key string, v any) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the stored value for key and whether it was present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Number returns the value for key as a float64.
//
// ok is false when the key is absent or the stored value is not numeric.
// Note that a stored NaN still reports ok=true: coercion failure is a
// preserved sentinel, not an absent field.
func (r *Record) Number(key string) (float64, bool) {
	v, ok := r.vals[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Len returns the number of stored attributes.
func (r *Record) Len() int { return len(r.keys) }

// Keys returns the attribute names in insertion order. The returned slice
// is shared; callers must not mutate it.
func (r *Record) Keys() []string { return r.keys }

// MarshalJSON renders the record as a JSON object in insertion order.
//
// Non-finite numbers (NaN from failed coercion, Inf from a degenerate
// derivation) render as null, matching what the artifact's existing
// consumers expect from the previous generation of this exporter.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := AppendValue(nil, r.vals[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// WeaponSet is an ordered mapping from weapon name to its Record.
type WeaponSet struct {
	names []string
	recs  map[string]*Record
}

// NewWeaponSet returns an empty WeaponSet.
func NewWeaponSet() *WeaponSet {
	return &WeaponSet{recs: make(map[string]*Record)}
}

// Put inserts rec under name and reports whether an earlier record for the
// same name was replaced. On replacement the name keeps its original
// position (last write wins for the value).
func (s *WeaponSet) Put(name string, rec *Record) (replaced bool) {
	if _, ok := s.recs[name]; ok {
		s.recs[name] = rec
		return true
	}
	s.names = append(s.names, name)
	s.recs[name] = rec
	return false
}

// Get returns the record stored under name.
func (s *WeaponSet) Get(name string) (*Record, bool) {
	r, ok := s.recs[name]
	return r, ok
}

// Len returns the number of weapons.
func (s *WeaponSet) Len() int { return len(s.names) }

// Names returns weapon names in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *WeaponSet) Names() []string { return s.names }

// MarshalJSON renders the set as a JSON object in insertion order.
func (s *WeaponSet) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range s.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, nb...)
		buf = append(buf, ':')
		rb, err := s.recs[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, rb...)
	}
	return append(buf, '}'), nil
}

// AppendValue appends the JSON form of an attribute value to buf.
//
// Accepted types are float64 and string; anything else is a programming
// error in the rules table and returns an error rather than panicking.
func AppendValue(buf []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return append(buf, "null"...), nil
		}
		return strconv.AppendFloat(buf, t, 'f', -1, 64), nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	default:
		return nil, fmt.Errorf("stats: unsupported attribute value type %T", v)
	}
}

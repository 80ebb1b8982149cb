// Package jsonout renders a stats.WeaponSet into the two JSON artifacts
// this pipeline ships: a compact machine form and a two-space-indented
// pretty form, plus the disk writes for both.
package jsonout

import (
	"encoding/json"
	"fmt"
	"os"

	"weaponstats/internal/stats"
)

// Compact returns the standard single-line JSON rendering of set.
// Weapon and attribute order follow insertion order; non-finite numbers
// render as null.
func Compact(set *stats.WeaponSet) ([]byte, error) {
	b, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal weapon set: %w", err)
	}
	return b, nil
}

// Pretty returns the two-space-indented rendering of set.
//
// Weapons and attributes appear in insertion order. String values are
// quoted like any other JSON string; the pre-Go generation of this
// exporter emitted them bare, which was not valid JSON, and no consumer
// turned out to depend on that.
func Pretty(set *stats.WeaponSet) ([]byte, error) {
	buf := []byte("{\n")

	names := set.Names()
	for i, name := range names {
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, "  "...)
		buf = append(buf, nb...)
		buf = append(buf, ": {\n"...)

		rec, _ := set.Get(name)
		keys := rec.Keys()
		for j, key := range keys {
			kb, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf = append(buf, "    "...)
			buf = append(buf, kb...)
			buf = append(buf, ": "...)

			v, _ := rec.Get(key)
			buf, err = stats.AppendValue(buf, v)
			if err != nil {
				return nil, err
			}
			if j < len(keys)-1 {
				buf = append(buf, ',')
			}
			buf = append(buf, '\n')
		}

		buf = append(buf, "  }"...)
		if i < len(names)-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
	}

	return append(buf, '}', '\n'), nil
}

// Persist writes content to path.
//
// Each artifact is written independently: the caller logs a failure here
// and still attempts the other file, so a full disk or a bad path never
// loses both outputs.
func Persist(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Package storage archives extracted weapon snapshots into a SQL backend.
//
// The JSON artifacts remain the primary output; storage is an optional
// sink for keeping a queryable history of runs. Backends register
// themselves under a kind string, so the command only ever talks to the
// Repository interface.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"weaponstats/internal/stats"
)

// TableName is the snapshot table every backend maintains.
const TableName = "weapon_stats"

// Config selects and configures a backend.
//
// Kind must match a registered backend ("sqlite", "postgres", "mssql").
// DSN is passed through to the backend factory; validation is
// backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// WeaponRow is one weapon's snapshot as stored.
type WeaponRow struct {
	Weapon      string
	Attrs       []byte // compact JSON object of the weapon's attributes
	ExtractedAt time.Time
}

// Repository is the backend-agnostic sink interface.
//
// Implementations upsert by weapon name: re-running the extractor against
// a newer page replaces each weapon's row rather than accumulating
// duplicates.
type Repository interface {
	// EnsureSchema creates the snapshot table when missing. Idempotent.
	EnsureSchema(ctx context.Context) error

	// UpsertWeapons inserts or replaces rows keyed by weapon name and
	// returns the number of rows written.
	UpsertWeapons(ctx context.Context, rows []WeaponRow) (int64, error)

	// Close releases backend resources. Call once at shutdown.
	Close()
}

// RowsFromSet converts an extracted WeaponSet into storable rows, stamping
// each with now.
func RowsFromSet(set *stats.WeaponSet, now time.Time) ([]WeaponRow, error) {
	rows := make([]WeaponRow, 0, set.Len())
	for _, name := range set.Names() {
		rec, _ := set.Get(name)
		attrs, err := rec.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal attrs for %q: %w", name, err)
		}
		rows = append(rows, WeaponRow{
			Weapon:      name,
			Attrs:       attrs,
			ExtractedAt: now,
		})
	}
	return rows, nil
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind. Call from an init() in the
// backend package. Registering an empty kind, a nil factory, or the same
// kind twice panics: ambiguous backend selection should fail at startup.
func Register(kind string, f factory) {
	regMu.Lock()
	defer regMu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - cfg.Kind empty or unregistered.
//   - Whatever the factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	regMu.RLock()
	f := factories[cfg.Kind]
	regMu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

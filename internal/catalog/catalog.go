// Package catalog provides the read-only planning lookup table. Entries are
// loaded lazily from a tabular source and cached until Invalidate is called;
// readers always see either the old or the new table, never a partial one.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Entry is one planning row: the join key plus the planning token and an
// optional category tag.
type Entry struct {
	Region        string
	Invoice       int64
	Order         int64
	PlanningToken string
	Category      string
}

// Key is the exact-match lookup key. All three parts participate; there is
// no fuzzy matching.
type Key struct {
	Region  string
	Invoice int64
	Order   int64
}

// ErrNotFound is the normal negative lookup result.
var ErrNotFound = errors.New("planning entry not found")

// LoadError reports that the catalog source itself is missing or malformed.
// It is fatal for the current lookup, unlike ErrNotFound.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loading catalog: %s: %v", e.Reason, e.Err)
	}

	return "loading catalog: " + e.Reason
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads all planning entries from the backing source.
type Loader interface {
	Load(ctx context.Context) ([]Entry, error)
}

// Catalog caches the loaded entries behind an RWMutex. The cache is built
// on first lookup and swapped atomically; Invalidate drops it so the next
// lookup reloads from the source.
type Catalog struct {
	loader Loader

	mu      sync.RWMutex
	entries map[Key]Entry
}

func New(loader Loader) *Catalog {
	return &Catalog{loader: loader}
}

// Lookup returns the entry matching the normalized (region, invoice, order)
// key, loading the catalog on first use. A missing entry is ErrNotFound; a
// missing or malformed source is a *LoadError.
func (c *Catalog) Lookup(ctx context.Context, region string, invoice, order int64) (Entry, error) {
	key := Key{
		Region:  NormalizeRegion(region),
		Invoice: invoice,
		Order:   order,
	}

	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()

	if entries == nil {
		var err error

		entries, err = c.load(ctx)
		if err != nil {
			return Entry{}, err
		}
	}

	entry, ok := entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}

	return entry, nil
}

// Invalidate drops the cached table. Safe to call concurrently with lookups.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

func (c *Catalog) load(ctx context.Context) (map[Key]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another lookup may have loaded while we waited for the lock.
	if c.entries != nil {
		return c.entries, nil
	}

	rows, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make(map[Key]Entry, len(rows))

	for _, e := range rows {
		e.Region = NormalizeRegion(e.Region)
		entries[Key{Region: e.Region, Invoice: e.Invoice, Order: e.Order}] = e
	}

	c.entries = entries

	return entries, nil
}

// NormalizeRegion uppercases and trims a region code.
func NormalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}

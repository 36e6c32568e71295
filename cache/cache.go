// Package cache holds compiled units keyed by unit name.
//
// Entries never expire on their own. GetOrCompileSource replaces an entry
// whose source changed; otherwise a caller must Invalidate it, and Purge
// drops everything. The whole cache can be written
// to and restored from a CBOR snapshot so that a later process can skip
// recompiling unchanged units.
package cache

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/bytecode"
	"golang.org/x/sync/singleflight"
)

// SnapshotVersion is written into every snapshot. Load rejects other
// versions.
const SnapshotVersion = 1

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*bytecode.Code
	hits    int
	misses  int

	group  singleflight.Group
	logger zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: map[string]*bytecode.Code{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached code for a unit.
func (c *Cache) Get(unit string) (*bytecode.Code, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.entries[unit]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return code, ok
}

// Put stores code under its unit name, replacing any previous entry.
func (c *Cache) Put(code *bytecode.Code) {
	c.mu.Lock()
	c.entries[code.Name()] = code
	c.mu.Unlock()
	c.logger.Debug().Str("unit", code.Name()).Msg("cache put")
}

// GetOrCompile returns the cached code for unit, or runs compile and caches
// its result. Concurrent calls for the same unit share one compilation.
// Failed compilations are not cached. The returned flag reports a hit.
func (c *Cache) GetOrCompile(unit string, compile func() (*bytecode.Code, error)) (*bytecode.Code, bool, error) {
	if code, ok := c.Get(unit); ok {
		return code, true, nil
	}
	v, err, _ := c.group.Do(unit, func() (any, error) {
		code, err := compile()
		if err != nil {
			return nil, err
		}
		if code.Name() != unit {
			return nil, fmt.Errorf("cache: compiled unit is named %q, expected %q", code.Name(), unit)
		}
		c.Put(code)
		return code, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*bytecode.Code), false, nil
}

// GetOrCompileSource is GetOrCompile for a unit compiled from source. An
// entry compiled from different source is dropped and compiled again.
func (c *Cache) GetOrCompileSource(unit, source string, compile func() (*bytecode.Code, error)) (*bytecode.Code, bool, error) {
	c.mu.Lock()
	code, ok := c.entries[unit]
	stale := ok && code.Source() != source
	if stale {
		delete(c.entries, unit)
	}
	c.mu.Unlock()
	if stale {
		c.logger.Debug().Str("unit", unit).Msg("cache stale")
	}
	return c.GetOrCompile(unit, compile)
}

// Invalidate removes a unit and reports whether it was present.
func (c *Cache) Invalidate(unit string) bool {
	c.mu.Lock()
	_, ok := c.entries[unit]
	delete(c.entries, unit)
	c.mu.Unlock()
	if ok {
		c.logger.Debug().Str("unit", unit).Msg("cache invalidate")
	}
	return ok
}

// Purge removes every entry and returns how many there were.
func (c *Cache) Purge() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = map[string]*bytecode.Code{}
	c.mu.Unlock()
	c.logger.Debug().Int("entries", n).Msg("cache purge")
	return n
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Units returns the cached unit names in sorted order.
func (c *Cache) Units() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	units := make([]string, 0, len(c.entries))
	for name := range c.entries {
		units = append(units, name)
	}
	sort.Strings(units)
	return units
}

// Stats reports lookup counters.
type Stats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

type snapshot struct {
	Version int      `cbor:"1,keyasint"`
	Units   [][]byte `cbor:"2,keyasint"`
}

// Save writes every entry as a CBOR snapshot. Units are written in name
// order so equal caches produce identical snapshots.
func (c *Cache) Save(w io.Writer) error {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	snap := snapshot{Version: SnapshotVersion}
	for _, name := range names {
		data, err := bytecode.MarshalCBOR(c.entries[name])
		if err != nil {
			c.mu.RUnlock()
			return fmt.Errorf("cache: encode %q: %w", name, err)
		}
		snap.Units = append(snap.Units, data)
	}
	c.mu.RUnlock()

	if err := cbor.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("cache: write snapshot: %w", err)
	}
	c.logger.Debug().Int("entries", len(names)).Msg("cache saved")
	return nil
}

// Load reads a snapshot written by Save and adds its units, replacing
// entries with the same name. Nothing is added if any unit fails to decode.
func (c *Cache) Load(r io.Reader) error {
	var snap snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("cache: read snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("cache: unsupported snapshot version %d", snap.Version)
	}
	codes := make([]*bytecode.Code, 0, len(snap.Units))
	for i, data := range snap.Units {
		code, err := bytecode.UnmarshalCBOR(data)
		if err != nil {
			return fmt.Errorf("cache: decode unit %d: %w", i, err)
		}
		codes = append(codes, code)
	}
	c.mu.Lock()
	for _, code := range codes {
		c.entries[code.Name()] = code
	}
	c.mu.Unlock()
	c.logger.Debug().Int("entries", len(codes)).Msg("cache loaded")
	return nil
}

// SaveFile writes a snapshot to path.
func (c *Cache) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a snapshot from path. A missing file leaves the cache
// unchanged and is not an error.
func (c *Cache) LoadFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Load(f)
}

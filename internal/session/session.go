// Package session keeps one transposition table per game between requests.
// Tables expire after an idle period; expired or evicted tables are handed
// to a Persister and restored when the game comes back.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hailam/seega/internal/engine"
)

// Persister saves and restores table snapshots. LoadTable returns nil data
// when nothing is stored for gameID.
type Persister interface {
	SaveTable(gameID string, data []byte) error
	LoadTable(gameID string) ([]byte, error)
	DeleteTable(gameID string) error
}

// Options configures a Store.
type Options struct {
	TableBits   int           // log2 entries per table
	MaxSessions int           // tables kept in memory at once
	IdleTTL     time.Duration // sliding expiration
}

// DefaultOptions returns the settings used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		TableBits:   16,
		MaxSessions: 64,
		IdleTTL:     30 * time.Minute,
	}
}

type entry struct {
	id string
	tt *engine.TranspositionTable
}

// Store is a process-wide cache of per-game tables. It is safe for
// concurrent use and implements engine.TableSource.
type Store struct {
	cache     *ristretto.Cache[string, *entry]
	persister Persister
	opts      Options
	group     singleflight.Group

	mu   sync.Mutex
	live map[string]*entry
}

var _ engine.TableSource = (*Store)(nil)

// NewStore creates a store. persister may be nil to keep tables in memory only.
func NewStore(opts Options, persister Persister) (*Store, error) {
	def := DefaultOptions()
	if opts.TableBits == 0 {
		opts.TableBits = def.TableBits
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = def.MaxSessions
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = def.IdleTTL
	}

	s := &Store{
		persister: persister,
		opts:      opts,
		live:      make(map[string]*entry),
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *entry]{
		NumCounters:        int64(opts.MaxSessions) * 10,
		MaxCost:            int64(opts.MaxSessions),
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
		OnEvict: func(item *ristretto.Item[*entry]) {
			s.retire(item.Value, true)
		},
		OnReject: func(item *ristretto.Item[*entry]) {
			s.retire(item.Value, false)
		},
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Table returns the table for gameID, creating or restoring it as needed,
// and restarts its idle timer.
func (s *Store) Table(gameID string) *engine.TranspositionTable {
	if e, ok := s.cache.Get(gameID); ok {
		s.touch(e)
		return e.tt
	}

	v, _, _ := s.group.Do(gameID, func() (any, error) {
		if e, ok := s.cache.Get(gameID); ok {
			return e, nil
		}
		s.mu.Lock()
		e, ok := s.live[gameID]
		s.mu.Unlock()
		if !ok {
			e = s.create(gameID)
		}
		s.touch(e)
		s.cache.Wait()
		return e, nil
	})
	return v.(*entry).tt
}

func (s *Store) create(gameID string) *entry {
	e := &entry{id: gameID, tt: engine.NewTranspositionTable(s.opts.TableBits)}
	if s.persister != nil {
		data, err := s.persister.LoadTable(gameID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("game", gameID).Msg("loading table snapshot failed")
		case data != nil:
			if err := e.tt.UnmarshalBinary(data); err != nil {
				log.Warn().Err(err).Str("game", gameID).Msg("discarding bad table snapshot")
				e.tt.Clear()
			} else {
				log.Debug().
					Str("game", gameID).
					Str("size", humanize.Bytes(uint64(len(data)))).
					Msg("table restored")
			}
		}
	}
	s.mu.Lock()
	s.live[gameID] = e
	s.mu.Unlock()
	return e
}

func (s *Store) touch(e *entry) {
	s.cache.SetWithTTL(e.id, e, 1, s.opts.IdleTTL)
}

// retire drops e from the live set and saves it. Rejected updates of an
// entry that is still cached are ignored.
func (s *Store) retire(e *entry, evicted bool) {
	if e == nil {
		return
	}
	if !evicted {
		if cur, ok := s.cache.Get(e.id); ok && cur == e {
			return
		}
	}
	s.mu.Lock()
	if s.live[e.id] != e {
		s.mu.Unlock()
		return
	}
	delete(s.live, e.id)
	s.mu.Unlock()
	s.saveLogged(e)
}

func (s *Store) save(e *entry) error {
	if s.persister == nil {
		return nil
	}
	data, err := e.tt.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.persister.SaveTable(e.id, data); err != nil {
		return err
	}
	log.Debug().
		Str("game", e.id).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("table saved")
	return nil
}

func (s *Store) saveLogged(e *entry) {
	if err := s.save(e); err != nil {
		log.Error().Err(err).Str("game", e.id).Msg("saving table failed")
	}
}

// Evict removes gameID from memory, saving its table first. It reports
// whether the game had a table in memory.
func (s *Store) Evict(gameID string) bool {
	s.mu.Lock()
	e, ok := s.live[gameID]
	delete(s.live, gameID)
	s.mu.Unlock()

	s.cache.Del(gameID)
	s.cache.Wait()
	if ok {
		s.saveLogged(e)
	}
	return ok
}

// Forget drops gameID from memory and from the persister without saving.
func (s *Store) Forget(gameID string) error {
	s.mu.Lock()
	delete(s.live, gameID)
	s.mu.Unlock()
	s.cache.Del(gameID)
	s.cache.Wait()

	if s.persister == nil {
		return nil
	}
	return s.persister.DeleteTable(gameID)
}

// Len returns the number of tables in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Stats summarizes the tables in memory.
type Stats struct {
	Sessions  int    `json:"sessions"`
	Bytes     uint64 `json:"bytes"`
	Size      string `json:"size"`
	CacheHits uint64 `json:"cacheHits"`
	CacheMiss uint64 `json:"cacheMisses"`
}

// Stats returns the current memory use of the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	st := Stats{Sessions: len(s.live)}
	for _, e := range s.live {
		st.Bytes += e.tt.Bytes()
	}
	s.mu.Unlock()

	st.Size = humanize.Bytes(st.Bytes)
	if m := s.cache.Metrics; m != nil {
		st.CacheHits = m.Hits()
		st.CacheMiss = m.Misses()
	}
	return st
}

// Close saves every table still in memory and releases the cache.
func (s *Store) Close() error {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.live))
	for _, e := range s.live {
		entries = append(entries, e)
	}
	s.live = make(map[string]*entry)
	s.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := s.save(e); err != nil {
			errs = append(errs, fmt.Errorf("game %s: %w", e.id, err))
		}
	}
	s.cache.Close()
	return errors.Join(errs...)
}

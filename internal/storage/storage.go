package storage

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/seega/internal/board"
)

// Storage keys
const (
	keyStats    = "stats"
	tablePrefix = "tt/"
)

// DefaultTableTTL is how long a saved transposition table survives.
const DefaultTableTTL = 24 * time.Hour

// GameStats stores aggregated results of finished games.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	AIGames       int            `json:"ai_games"`
	AIWins        int            `json:"ai_wins"`
	AILosses      int            `json:"ai_losses"`
	WinsByPlayer  map[string]int `json:"wins_by_player"`
	AIWinsByDiff  map[string]int `json:"ai_wins_by_difficulty"`
	TotalPlies    int            `json:"total_plies"`
	LongestGame   int            `json:"longest_game"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByPlayer: make(map[string]int),
		AIWinsByDiff: make(map[string]int),
	}
}

// GameResult represents the result of a completed game
type GameResult struct {
	Winner     board.Player
	AIPlayer   board.Player // NoPlayer when no side was played by the engine
	Difficulty int
	Plies      int
	Duration   time.Duration
}

// Options configures Open.
type Options struct {
	Dir      string        // database directory, platform default if empty
	InMemory bool          // keep everything in memory (Dir is ignored)
	TableTTL time.Duration // lifetime of saved tables, DefaultTableTTL if zero
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db       *badger.DB
	tableTTL time.Duration
}

// Open opens (or creates) the database described by o.
func Open(o Options) (*Storage, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := o.Dir
		if dir == "" {
			var err error
			if dir, err = GetDatabaseDir(); err != nil {
				return nil, err
			}
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ttl := o.TableTTL
	if ttl <= 0 {
		ttl = DefaultTableTTL
	}
	return &Storage{db: db, tableTTL: ttl}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func tableKey(gameID string) []byte {
	return []byte(tablePrefix + gameID)
}

// SaveTable stores a transposition table snapshot for gameID. The entry
// expires after the table TTL.
func (s *Storage) SaveTable(gameID string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(tableKey(gameID), data).WithTTL(s.tableTTL)
		return txn.SetEntry(e)
	})
}

// LoadTable returns the snapshot saved for gameID, or nil if there is none.
func (s *Storage) LoadTable(gameID string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tableKey(gameID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

// DeleteTable removes the snapshot saved for gameID.
func (s *Storage) DeleteTable(gameID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tableKey(gameID))
	})
}

// TableCount returns the number of saved snapshots and their total size.
func (s *Storage) TableCount() (count int, bytes int64, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(tablePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
			bytes += it.Item().ValueSize()
		}
		return nil
	})
	return count, bytes, err
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return readStats(txn, stats)
	})
	return stats, err
}

func readStats(txn *badger.Txn, stats *GameStats) error {
	item, err := txn.Get([]byte(keyStats))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil // Use empty stats
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	return s.db.Update(func(txn *badger.Txn) error {
		stats := NewGameStats()
		if err := readStats(txn, stats); err != nil {
			return err
		}
		stats.apply(result)

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), data)
	})
}

func (s *GameStats) apply(result GameResult) {
	s.GamesPlayed++
	s.TotalPlayTime += result.Duration
	s.TotalPlies += result.Plies
	if result.Plies > s.LongestGame {
		s.LongestGame = result.Plies
	}
	if result.Winner.IsValid() {
		s.WinsByPlayer[result.Winner.String()]++
	}

	if !result.AIPlayer.IsValid() {
		return
	}
	s.AIGames++
	switch result.Winner {
	case result.AIPlayer:
		s.AIWins++
		s.AIWinsByDiff[strconv.Itoa(result.Difficulty)]++
	case result.AIPlayer.Other():
		s.AILosses++
	}
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
func (s *Storage) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) ||
			errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// AIWinRate returns the engine's win rate as a percentage (0-100)
func (s *GameStats) AIWinRate() float64 {
	if s.AIGames == 0 {
		return 0
	}
	return float64(s.AIWins) / float64(s.AIGames) * 100
}

// AveragePlies returns the mean game length.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

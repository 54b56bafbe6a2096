package engine

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hailam/seega/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
// The values are part of the snapshot format.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTUpperBound               // Failed low
	TTLowerBound               // Failed high (beta cutoff)
)

// Number of shards for TT locking (power of 2 for fast modulo)
const ttShardCount = 256
const ttShardMask = ttShardCount - 1

// Table size bounds, as log2 of the entry count.
const (
	MinTableBits = 10
	MaxTableBits = 24
)

// TTEntrySize is the size of one entry in a table snapshot.
const TTEntrySize = 16

// TTEntry represents an entry in the transposition table.
// A zero Key marks an empty slot.
type TTEntry struct {
	Key   uint64     // Full 64-bit Zobrist hash for verification
	Score int32      // Score (bounded by flag)
	Move  board.Move // Best move found, NoMove if none
	Depth uint8      // Remaining search depth
	Flag  TTFlag     // Type of bound
}

// TranspositionTable is a hash table for storing search results.
// Uses sharded locking so searches sharing one game's table stay safe.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex // Sharded locks
	size    uint64
	mask    uint64

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
	stores atomic.Uint64
}

// NewTranspositionTable creates a transposition table with 2^bits entries.
// bits is clamped to [MinTableBits, MaxTableBits].
func NewTranspositionTable(bits int) *TranspositionTable {
	bits = clamp(bits, MinTableBits, MaxTableBits)
	numEntries := uint64(1) << bits
	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// shardIndex returns the shard index for a given entry index.
func (tt *TranspositionTable) shardIndex(idx uint64) int {
	return int(idx & ttShardMask)
}

// Lookup returns the entry stored for hash, if any.
func (tt *TranspositionTable) Lookup(hash uint64) (TTEntry, bool) {
	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].RLock()
	entry := tt.entries[idx]
	tt.shards[shard].RUnlock()

	if entry.Key == hash && hash != 0 {
		return entry, true
	}
	return TTEntry{}, false
}

// Probe looks up hash for a node searched to depth with window (alpha, beta).
// move is the stored best move whenever the key matches, usable for ordering
// even if the entry is too shallow. ok reports a usable score: exact entries
// return their score, upper bounds at or below alpha return alpha and lower
// bounds at or above beta return beta.
func (tt *TranspositionTable) Probe(hash uint64, depth, alpha, beta int) (score int, move board.Move, ok bool) {
	tt.probes.Add(1)

	entry, found := tt.Lookup(hash)
	if !found {
		return 0, board.NoMove, false
	}
	tt.hits.Add(1)

	if int(entry.Depth) < depth {
		return 0, entry.Move, false
	}
	s := int(entry.Score)
	switch entry.Flag {
	case TTExact:
		return s, entry.Move, true
	case TTUpperBound:
		if s <= alpha {
			return alpha, entry.Move, true
		}
	case TTLowerBound:
		if s >= beta {
			return beta, entry.Move, true
		}
	}
	return 0, entry.Move, false
}

// Store saves a position in the transposition table.
//
// Replacement is depth-preferred: the slot is overwritten only if it is
// empty, holds the same position, or the new depth is at least the stored one.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	if hash == 0 {
		return
	}
	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].Lock()
	entry := &tt.entries[idx]
	if entry.Key == 0 || entry.Key == hash || depth >= int(entry.Depth) {
		entry.Key = hash
		entry.Score = int32(score)
		entry.Move = bestMove
		entry.Depth = uint8(clamp(depth, 0, 255))
		entry.Flag = flag
	}
	tt.shards[shard].Unlock()
	tt.stores.Add(1)
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for s := 0; s < ttShardCount; s++ {
		tt.shards[s].Lock()
	}
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	for s := 0; s < ttShardCount; s++ {
		tt.shards[s].Unlock()
	}
	tt.hits.Store(0)
	tt.probes.Store(0)
	tt.stores.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		shard := tt.shardIndex(uint64(i))
		tt.shards[shard].RLock()
		if tt.entries[i].Key != 0 {
			used++
		}
		tt.shards[shard].RUnlock()
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Bytes returns the memory held by the entries.
func (tt *TranspositionTable) Bytes() uint64 {
	return tt.size * TTEntrySize
}

// TableStats is a point-in-time view of table usage.
type TableStats struct {
	Entries  uint64  `json:"entries"`
	HashFull int     `json:"hashFull"`
	Probes   uint64  `json:"probes"`
	Hits     uint64  `json:"hits"`
	Stores   uint64  `json:"stores"`
	HitRate  float64 `json:"hitRate"`
}

// Stats returns the current usage counters.
func (tt *TranspositionTable) Stats() TableStats {
	return TableStats{
		Entries:  tt.size,
		HashFull: tt.HashFull(),
		Probes:   tt.probes.Load(),
		Hits:     tt.hits.Load(),
		Stores:   tt.stores.Load(),
		HitRate:  tt.HitRate(),
	}
}

// MarshalBinary encodes every non-empty entry as a 16-byte record:
// key (8), score (4), move (2), depth (1), flag (1), little endian.
func (tt *TranspositionTable) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64*TTEntrySize)
	var rec [TTEntrySize]byte
	for s := 0; s < ttShardCount; s++ {
		tt.shards[s].RLock()
		for i := uint64(s); i < tt.size; i += ttShardCount {
			e := tt.entries[i]
			if e.Key == 0 {
				continue
			}
			encodeEntry(rec[:], e)
			buf = append(buf, rec[:]...)
		}
		tt.shards[s].RUnlock()
	}
	return buf, nil
}

// UnmarshalBinary merges records produced by MarshalBinary into the table,
// using the normal replacement policy. The table sizes need not match.
func (tt *TranspositionTable) UnmarshalBinary(data []byte) error {
	if len(data)%TTEntrySize != 0 {
		return fmt.Errorf("transposition snapshot: length %d is not a multiple of %d", len(data), TTEntrySize)
	}
	for off := 0; off < len(data); off += TTEntrySize {
		e := decodeEntry(data[off : off+TTEntrySize])
		if e.Flag > TTLowerBound {
			return fmt.Errorf("transposition snapshot: bad flag %d at record %d", e.Flag, off/TTEntrySize)
		}
		tt.Store(e.Key, int(e.Depth), int(e.Score), e.Flag, e.Move)
	}
	return nil
}

func encodeEntry(dst []byte, e TTEntry) {
	binary.LittleEndian.PutUint64(dst[0:8], e.Key)
	binary.LittleEndian.PutUint32(dst[8:12], uint32(e.Score))
	binary.LittleEndian.PutUint16(dst[12:14], uint16(e.Move))
	dst[14] = e.Depth
	dst[15] = uint8(e.Flag)
}

func decodeEntry(src []byte) TTEntry {
	return TTEntry{
		Key:   binary.LittleEndian.Uint64(src[0:8]),
		Score: int32(binary.LittleEndian.Uint32(src[8:12])),
		Move:  board.Move(binary.LittleEndian.Uint16(src[12:14])),
		Depth: src[14],
		Flag:  TTFlag(src[15]),
	}
}

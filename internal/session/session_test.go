package session

import (
	"sync"
	"testing"

	"github.com/hailam/seega/internal/board"
	"github.com/hailam/seega/internal/engine"
)

type memPersister struct {
	mu    sync.Mutex
	saved map[string][]byte
	saves int
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[string][]byte)}
}

func (m *memPersister) SaveTable(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[id] = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memPersister) LoadTable(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[id], nil
}

func (m *memPersister) DeleteTable(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	return nil
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := NewStore(Options{TableBits: engine.MinTableBits, MaxSessions: 8}, p)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTableReuse(t *testing.T) {
	s := newTestStore(t, nil)
	defer s.Close()

	a := s.Table("a")
	if s.Table("a") != a {
		t.Error("Same game got a different table")
	}
	if s.Table("b") == a {
		t.Error("Different games share a table")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestTableConcurrent(t *testing.T) {
	s := newTestStore(t, nil)
	defer s.Close()

	tables := make([]*engine.TranspositionTable, 16)
	var wg sync.WaitGroup
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = s.Table("shared")
		}(i)
	}
	wg.Wait()

	for i, tt := range tables {
		if tt != tables[0] {
			t.Fatalf("Goroutine %d got a different table", i)
		}
	}
}

func TestEvictPersistsAndRestores(t *testing.T) {
	p := newMemPersister()
	s := newTestStore(t, p)
	defer s.Close()

	m := board.NewPlacement(board.NewSquare(1, 1))
	s.Table("g").Store(0xABCDEF, 5, 42, engine.TTExact, m)

	if !s.Evict("g") {
		t.Fatal("Evict reported no table")
	}
	data, _ := p.LoadTable("g")
	if len(data) != engine.TTEntrySize {
		t.Fatalf("Saved %d bytes, want one entry", len(data))
	}

	e, ok := s.Table("g").Lookup(0xABCDEF)
	if !ok {
		t.Fatal("Restored table lost the entry")
	}
	if e.Score != 42 || e.Move != m || e.Depth != 5 {
		t.Errorf("Restored entry %+v", e)
	}

	if s.Evict("missing") {
		t.Error("Evict of unknown game reported a table")
	}
}

func TestForget(t *testing.T) {
	p := newMemPersister()
	s := newTestStore(t, p)
	defer s.Close()

	s.Table("g").Store(1, 1, 1, engine.TTExact, board.NoMove)
	s.Evict("g")
	if err := s.Forget("g"); err != nil {
		t.Fatal(err)
	}
	if data, _ := p.LoadTable("g"); data != nil {
		t.Error("Forget left the snapshot behind")
	}
	if _, ok := s.Table("g").Lookup(1); ok {
		t.Error("Forgotten game still has its entry")
	}
}

func TestCloseSavesLiveTables(t *testing.T) {
	p := newMemPersister()
	s := newTestStore(t, p)

	s.Table("x").Store(7, 1, 1, engine.TTExact, board.NoMove)
	s.Table("y").Store(8, 1, 1, engine.TTExact, board.NoMove)
	s.Table("empty")

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if len(p.saved) != 2 {
		t.Errorf("Saved %d tables, want 2 (empty tables are skipped)", len(p.saved))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t, nil)
	defer s.Close()

	s.Table("a")
	s.Table("b")
	st := s.Stats()
	if st.Sessions != 2 {
		t.Errorf("Sessions = %d", st.Sessions)
	}
	want := 2 * uint64(1<<engine.MinTableBits) * engine.TTEntrySize
	if st.Bytes != want {
		t.Errorf("Bytes = %d, want %d", st.Bytes, want)
	}
	if st.Size == "" {
		t.Error("Size not rendered")
	}
}

package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/seega/internal/board"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(Options{Dir: filepath.Join(t.TempDir(), "db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTables(t *testing.T) {
	s := openTemp(t)

	t.Run("Missing", func(t *testing.T) {
		data, err := s.LoadTable("nope")
		if err != nil || data != nil {
			t.Errorf("Expected nil, nil; got %v, %v", data, err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := bytes.Repeat([]byte{1, 2, 3, 4}, 8)
		if err := s.SaveTable("g1", want); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadTable("g1")
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Loaded %v, want %v", got, want)
		}

		n, size, err := s.TableCount()
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 || size != int64(len(want)) {
			t.Errorf("TableCount = %d, %d", n, size)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.DeleteTable("g1"); err != nil {
			t.Fatal(err)
		}
		data, err := s.LoadTable("g1")
		if err != nil || data != nil {
			t.Errorf("Expected table to be gone, got %v, %v", data, err)
		}
	})
}

func TestRecordGame(t *testing.T) {
	s := openTemp(t)

	results := []GameResult{
		{Winner: board.PlayerA, AIPlayer: board.PlayerA, Difficulty: 4, Plies: 60},
		{Winner: board.PlayerA, AIPlayer: board.PlayerB, Difficulty: 4, Plies: 80},
		{Winner: board.PlayerB, AIPlayer: board.NoPlayer, Plies: 40},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 3 || stats.AIGames != 2 {
		t.Errorf("Games = %d, AI games = %d", stats.GamesPlayed, stats.AIGames)
	}
	if stats.AIWins != 1 || stats.AILosses != 1 {
		t.Errorf("AI wins = %d, losses = %d", stats.AIWins, stats.AILosses)
	}
	if stats.WinsByPlayer["A"] != 2 || stats.WinsByPlayer["B"] != 1 {
		t.Errorf("WinsByPlayer = %v", stats.WinsByPlayer)
	}
	if stats.AIWinsByDiff["4"] != 1 {
		t.Errorf("AIWinsByDiff = %v", stats.AIWinsByDiff)
	}
	if stats.LongestGame != 80 || stats.AveragePlies() != 60 {
		t.Errorf("LongestGame = %d, AveragePlies = %.1f", stats.LongestGame, stats.AveragePlies())
	}
	if stats.AIWinRate() != 50 {
		t.Errorf("Expected 50%% AI win rate, got %.2f%%", stats.AIWinRate())
	}
}

func TestStatsSurviveReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordGame(GameResult{Winner: board.PlayerB, Plies: 30}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 1 {
		t.Errorf("Expected 1 game after reopen, got %d", stats.GamesPlayed)
	}
}

func TestInMemory(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveTable("m", []byte{9}); err != nil {
		t.Fatal(err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv(DataDirEnv, filepath.Join(t.TempDir(), "data"))

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir != os.Getenv(DataDirEnv) {
		t.Errorf("GetDataDir = %s, want override", dataDir)
	}

	// Verify directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(dbDir) != dataDir {
		t.Errorf("Database dir %s not under %s", dbDir, dataDir)
	}
}

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/seega/internal/board"
)

func movementState(t *testing.T, layout string, p board.Player) board.State {
	t.Helper()
	b, err := board.ParseLayout(layout)
	if err != nil {
		t.Fatal(err)
	}
	return board.State{Board: b, Player: p, Phase: board.Movement, MoveIndex: 40}
}

func TestComputeBestMoveImmediateWin(t *testing.T) {
	// a1b1 flanks c1 against d1 and leaves B with one piece.
	st := movementState(t, "A1BA1/5/5/5/4B", board.PlayerA)
	eng := NewEngine(nil, Limits{})

	res, err := eng.ComputeBestMove(context.Background(), Request{State: st, Difficulty: Hard})
	if err != nil {
		t.Fatal(err)
	}
	want := board.NewStep(board.NewSquare(0, 0), board.NewSquare(0, 1))
	if res.Move != want {
		t.Errorf("Move = %s, want %s", res.Move, want)
	}
	if !res.Forced {
		t.Error("Expected the win to be found without search")
	}
}

func TestFindBestMoveCapture(t *testing.T) {
	st := movementState(t, "A1BA1/5/5/B3B/B3B", board.PlayerA)
	eng := NewEngine(nil, Limits{})

	m, err := eng.FindBestMove(context.Background(), st, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := board.NewStep(board.NewSquare(0, 0), board.NewSquare(0, 1))
	if m != want {
		t.Errorf("Move = %s, want capture %s", m, want)
	}
}

func TestComputeBestMoveStuckRemoval(t *testing.T) {
	// Both B pieces are walled in, so B has to remove an A piece.
	st := movementState(t, "BA3/A4/5/4A/3AB", board.PlayerB)
	eng := NewEngine(nil, Limits{})

	res, err := eng.ComputeBestMove(context.Background(), Request{State: st, Difficulty: Medium})
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.HasFrom() {
		t.Fatalf("Expected a removal, got step %s", res.Move)
	}
	if st.Board.At(res.Move.To()) != board.PlayerA {
		t.Errorf("Removal %s does not target an A piece", res.Move)
	}
}

func TestSearchNeverReturnsNoMove(t *testing.T) {
	eng := NewEngine(nil, Limits{})
	eng.SetRandomize(true)

	st := board.NewGame()
	for ply := 0; ply < 60; ply++ {
		legal := st.Board.LegalMoves(st.Player, st.Phase, st.LastMove[board.PlayerA], st.LastMove[board.PlayerB])
		if len(legal) == 0 {
			break
		}
		res, err := eng.ComputeBestMove(context.Background(), Request{State: st, Difficulty: Easy})
		if err != nil {
			t.Fatalf("ply %d: %v", ply, err)
		}
		found := false
		for _, m := range legal {
			if m == res.Move {
				found = true
			}
		}
		if !found {
			t.Fatalf("ply %d: move %s is not legal in\n%s", ply, res.Move, st.Board.String())
		}

		next, err := board.ApplyMove(st, res.Move)
		if err != nil {
			t.Fatalf("ply %d: %v", ply, err)
		}
		if next.GameOver {
			break
		}
		st = next.State()
	}
}

func TestComputeBestMoveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(nil, Limits{})
	res, err := eng.ComputeBestMove(ctx, Request{State: board.NewGame(), Difficulty: Expert})
	if err != nil {
		t.Fatal(err)
	}
	if res.Move == board.NoMove {
		t.Fatal("Cancelled search must still return a move")
	}
	if res.Depth != 1 {
		t.Errorf("Depth = %d, want 1", res.Depth)
	}
}

func TestComputeBestMoveNodeLimit(t *testing.T) {
	eng := NewEngine(nil, Limits{Nodes: 1})
	st := movementState(t, "A1BA1/1A3/5/B3B/B3B", board.PlayerA)

	res, err := eng.ComputeBestMove(context.Background(), Request{State: st, Difficulty: MaxDifficulty})
	if err != nil {
		t.Fatal(err)
	}
	if res.Depth != 1 {
		t.Errorf("Depth = %d, want 1 under a one-node budget", res.Depth)
	}
}

func TestOnInfo(t *testing.T) {
	eng := NewEngine(nil, Limits{})
	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if info.GameID != "g1" {
			t.Errorf("GameID = %q", info.GameID)
		}
	}

	st := board.NewGame()
	if _, err := eng.ComputeBestMove(context.Background(), Request{State: st, Difficulty: Medium, GameID: "g1"}); err != nil {
		t.Fatal(err)
	}
	// Early placement is capped at depth 3.
	if len(depths) != 3 {
		t.Fatalf("Got %d iterations, want 3", len(depths))
	}
	for i, d := range depths {
		if d != i+1 {
			t.Errorf("Iteration %d reported depth %d", i, d)
		}
	}
}

type fixedTables struct {
	tt    *TranspositionTable
	calls int
}

func (f *fixedTables) Table(string) *TranspositionTable {
	f.calls++
	return f.tt
}

func TestEngineUsesGameTable(t *testing.T) {
	src := &fixedTables{tt: NewTranspositionTable(MinTableBits)}
	eng := NewEngine(src, Limits{})

	if _, err := eng.ComputeBestMove(context.Background(), Request{State: board.NewGame(), Difficulty: Easy, GameID: "x"}); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("Table requested %d times, want 1", src.calls)
	}
	if src.tt.Stats().Stores == 0 {
		t.Error("Search did not write to the game table")
	}

	// Anonymous requests get a private table.
	if _, err := eng.ComputeBestMove(context.Background(), Request{State: board.NewGame(), Difficulty: Easy}); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Error("Anonymous request used the game table")
	}
}

func TestComputeBestMoveErrors(t *testing.T) {
	eng := NewEngine(nil, Limits{})

	over := movementState(t, "A4/5/5/5/3BB", board.PlayerB)
	if _, err := eng.ComputeBestMove(context.Background(), Request{State: over}); !errors.Is(err, board.ErrGameOver) {
		t.Errorf("err = %v, want ErrGameOver", err)
	}

	bad := board.NewGame()
	bad.Player = board.NoPlayer
	if _, err := eng.ComputeBestMove(context.Background(), Request{State: bad}); !errors.Is(err, board.ErrInvalidPlayer) {
		t.Errorf("err = %v, want ErrInvalidPlayer", err)
	}
}

func TestAdaptiveDepth(t *testing.T) {
	placement := func(idx int) *board.State {
		return &board.State{Player: board.PlayerA, Phase: board.Placement, MoveIndex: idx}
	}
	mercy := movementState(t, "AAAA1/AAA2/5/5/3BB", board.PlayerA)
	even := movementState(t, "AAAA1/5/5/5/1BBBB", board.PlayerA)
	behind := movementState(t, "AAAA1/5/5/5/1BBBB", board.PlayerB)

	tests := []struct {
		name string
		st   *board.State
		diff Difficulty
		want int
	}{
		{"transition raises", placement(24), Easy, 6},
		{"transition keeps deeper", placement(24), Expert, 8},
		{"late placement capped", placement(18), Easy, 7},
		{"late placement", placement(20), Easy, 6},
		{"last plies shallow", placement(23), Expert, 3},
		{"early placement capped", placement(5), Expert, 3},
		{"early placement easy", placement(5), 1, 1},
		{"mercy rule", &mercy, Expert, 2},
		{"movement", &even, Hard, 6},
		{"movement clamps high", &behind, 99, 10},
		{"movement clamps low", &even, 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AdaptiveDepth(tc.st, tc.diff); got != tc.want {
				t.Errorf("AdaptiveDepth = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", Easy, false},
		{"Hard", Hard, false},
		{"7", 7, false},
		{"0", 0, true},
		{"11", 0, true},
		{"insane", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseDifficulty(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseDifficulty(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func swapColors(b *board.Board) board.Board {
	var out board.Board
	for sq := board.Square(0); sq < board.NumSquares; sq++ {
		if p := b.At(sq); p != board.NoPlayer {
			out.Put(sq, p.Other())
		}
	}
	return out
}

func TestEvaluateColorSymmetry(t *testing.T) {
	layouts := []string{
		"AB3/1A3/2B2/3A1/B4",
		"AABB1/BA3/5/4A/2B2",
		"A1BA1/5/5/B3B/B3B",
	}
	phases := []board.Phase{board.Placement, board.Movement}

	for _, l := range layouts {
		b := board.MustParseLayout(l)
		sw := swapColors(&b)
		for _, ph := range phases {
			for _, idx := range []int{3, 10, 24} {
				a := Evaluate(&b, board.PlayerA, ph, idx)
				s := Evaluate(&sw, board.PlayerB, ph, idx)
				if a != s {
					t.Errorf("%s %s ply %d: A=%d, swapped B=%d", l, ph, idx, a, s)
				}
			}
		}
	}
}

func TestEvaluateMaterial(t *testing.T) {
	b := board.MustParseLayout("A1A1A/5/A3A/5/B3B")
	if s := Evaluate(&b, board.PlayerA, board.Movement, 30); s <= 0 {
		t.Errorf("Material up scores %d for A", s)
	}
	if s := Evaluate(&b, board.PlayerB, board.Movement, 30); s >= 0 {
		t.Errorf("Material down scores %d for B", s)
	}
}

func TestScoreMovesOrdering(t *testing.T) {
	b := board.MustParseLayout("A1BA1/5/5/B3B/B3B")
	var ml board.MoveList
	b.GenerateMoves(&ml, board.PlayerA, board.Movement, board.NoMove)

	capture := board.NewStep(board.NewSquare(0, 0), board.NewSquare(0, 1))
	quiet := board.NewStep(board.NewSquare(0, 3), board.NewSquare(1, 3))

	mo := NewMoveOrderer()
	scores := make([]int, ml.Len())
	mo.ScoreMoves(&b, &ml, scores, board.PlayerA, board.Movement, 1, quiet)
	PickMove(&ml, scores, 0)
	if ml.Get(0) != quiet {
		t.Errorf("TT move not first: %s", ml.Get(0))
	}
	PickMove(&ml, scores, 1)
	if ml.Get(1) != capture {
		t.Errorf("Capture not second: %s", ml.Get(1))
	}
}

func TestHistoryScore(t *testing.T) {
	mo := NewMoveOrderer()
	m := board.NewStep(board.NewSquare(0, 0), board.NewSquare(0, 1))
	mo.UpdateHistory(m, 3)
	mo.UpdateHistory(board.NewPlacement(board.NewSquare(0, 1)), 3)
	if got := mo.HistoryScore(m); got != 9 {
		t.Errorf("HistoryScore after depth 3 = %d, want 9", got)
	}
	if got := mo.HistoryScore(board.NewPlacement(board.NewSquare(0, 1))); got != 0 {
		t.Errorf("placement history = %d, want 0", got)
	}
	mo.Clear()
	if got := mo.HistoryScore(m); got != 4 {
		t.Errorf("aged history = %d, want 4", got)
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{WinScore + 3, "win"},
		{-WinScore - 1, "loss"},
		{MaterialValue, "+1.00"},
		{-MaterialValue / 2, "-0.50"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

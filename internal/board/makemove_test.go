package board

import "testing"

func TestCustodianCapture(t *testing.T) {
	// Scenario: A at a1 and a4, B at a3; A steps a1 -> a2 and flanks a3.
	b := MustParseLayout("A4/5/B4/A4/5")
	m := step(t, "a1", "a2")

	undo := b.MakeMove(m, PlayerA, Movement, 30)
	caps := undo.Captures()
	if len(caps) != 1 || caps[0].Square != sq(t, "a3") || caps[0].Owner != PlayerB {
		t.Fatalf("captures = %+v, want a3 owned by B", caps)
	}
	if !b.IsEmpty(sq(t, "a3")) {
		t.Error("captured square still occupied")
	}
	if b.Count(PlayerB) != 0 {
		t.Errorf("B count = %d, want 0", b.Count(PlayerB))
	}
}

func TestMultiDirectionCapture(t *testing.T) {
	b := MustParseLayout("B3B/2A2/AB3/2B2/2A2")
	m := step(t, "c2", "c3")

	undo := b.MakeMove(m, PlayerA, Movement, 30)
	if undo.NumCaptured != 2 {
		t.Fatalf("captured %d pieces, want 2", undo.NumCaptured)
	}
	for _, name := range []string{"b3", "c4"} {
		if !b.IsEmpty(sq(t, name)) {
			t.Errorf("%s not captured", name)
		}
	}
	if b.Count(PlayerB) != 2 {
		t.Errorf("B count = %d, want 2", b.Count(PlayerB))
	}
}

func TestNoCaptureDuringPlacement(t *testing.T) {
	// b1 is flanked by a1 and c1 once A places a1, but placement never captures.
	b := MustParseLayout("1BA2/5/5/5/5")
	undo := b.MakeMove(NewPlacement(sq(t, "a1")), PlayerA, Placement, 5)
	if undo.NumCaptured != 0 {
		t.Errorf("placement captured %d pieces", undo.NumCaptured)
	}
	if b.At(sq(t, "b1")) != PlayerB {
		t.Error("b1 removed during placement")
	}
}

func TestLastPlacementClearsCenter(t *testing.T) {
	b := MustParseLayout("ABABA/BABAB/ABAAB/ABABA/BABB1")
	before := b
	undo := b.MakeMove(NewPlacement(sq(t, "e5")), PlayerB, Placement, LastPlacementPly)
	if undo.ClearedCenter != PlayerA {
		t.Fatalf("ClearedCenter = %v, want A", undo.ClearedCenter)
	}
	if !b.IsEmpty(Center) {
		t.Error("center still occupied after the last placement")
	}
	b.UnmakeMove(&undo, PlayerB)
	if b != before {
		t.Errorf("unmake did not restore the board:\n%s", b.String())
	}
}

func TestRemoval(t *testing.T) {
	b := MustParseLayout("BA3/A4/2A2/4A/3AB")
	before := b
	target := sq(t, "c3")

	undo := b.MakeMove(NewPlacement(target), PlayerB, StuckRemoval, 30)
	if !b.IsEmpty(target) {
		t.Fatal("removed square still occupied")
	}
	if b.Count(PlayerB) != before.Count(PlayerB) {
		t.Error("removal placed a piece for the remover")
	}
	if caps := undo.Captures(); len(caps) != 1 || caps[0].Owner != PlayerA {
		t.Errorf("captures = %+v, want one A piece", caps)
	}
	b.UnmakeMove(&undo, PlayerB)
	if b != before {
		t.Errorf("unmake did not restore the board:\n%s", b.String())
	}
}

// TestMakeUnmakeRoundTrip plays a game and checks every legal move at every
// position restores the board exactly.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	playout(t, 120, func(st *State) {
		var ml MoveList
		st.Board.GenerateMoves(&ml, st.Player, st.Phase, st.LastMove[st.Player])
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			before := st.Board
			undo := st.Board.MakeMove(m, st.Player, st.Phase, st.MoveIndex)
			st.Board.UnmakeMove(&undo, st.Player)
			if st.Board != before {
				t.Fatalf("ply %d %s %s: board not restored\nbefore:\n%s\nafter:\n%s",
					st.MoveIndex, st.Phase, m, before.String(), st.Board.String())
			}
		}
	})
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		phase  Phase
		want   Player
	}{
		{"A down to one", "A4/5/5/5/3BB", Movement, PlayerB},
		{"B down to one", "AA3/5/5/5/4B", Movement, PlayerA},
		{"never in placement", "A4/5/5/5/3BB", Placement, NoPlayer},
		{"removal phase counts", "A4/5/5/5/3BB", StuckRemoval, PlayerB},
		{"two each", "AA3/5/5/5/3BB", Movement, NoPlayer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := MustParseLayout(tc.layout)
			if got := b.Winner(tc.phase); got != tc.want {
				t.Errorf("Winner = %v, want %v", got, tc.want)
			}
		})
	}
}

// playout drives a deterministic game through ApplyMove, calling visit on
// every position before the move is chosen.
func playout(t *testing.T, plies int, visit func(st *State)) {
	t.Helper()
	st := NewGame()
	for i := 0; i < plies && st.Phase != GameOver; i++ {
		visit(&st)
		moves := st.Board.LegalMoves(st.Player, st.Phase, st.LastMove[PlayerA], st.LastMove[PlayerB])
		if len(moves) == 0 {
			t.Fatalf("ply %d: no legal moves in %s", st.MoveIndex, st.Phase)
		}
		res, err := ApplyMove(st, moves[(i*7+3)%len(moves)])
		if err != nil {
			t.Fatalf("ply %d: ApplyMove: %v", st.MoveIndex, err)
		}
		st = res.State()
	}
}

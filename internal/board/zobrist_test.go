package board

import "testing"

// TestIncrementalHash checks UpdateHash against ComputeHash for every legal
// move of every position along a played game, captures and removals included.
func TestIncrementalHash(t *testing.T) {
	playout(t, 160, func(st *State) {
		h := ComputeHash(&st.Board, st.Player, st.Phase)
		var ml MoveList
		st.Board.GenerateMoves(&ml, st.Player, st.Phase, st.LastMove[st.Player])
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			undo := st.Board.MakeMove(m, st.Player, st.Phase, st.MoveIndex)
			next, nextPhase, _ := NextTurn(st.Player, st.Phase, st.MoveIndex)
			got := UpdateHash(h, &undo, st.Player, next, nextPhase)
			want := ComputeHash(&st.Board, next, nextPhase)
			st.Board.UnmakeMove(&undo, st.Player)
			if got != want {
				t.Fatalf("ply %d %s %s: incremental %016x != scratch %016x",
					st.MoveIndex, st.Phase, m, got, want)
			}
		}
		if got := ComputeHash(&st.Board, st.Player, st.Phase); got != h {
			t.Fatalf("ply %d: hash changed after make/unmake", st.MoveIndex)
		}
	})
}

func TestHashCaptureAndRemoval(t *testing.T) {
	b := MustParseLayout("B3B/2A2/AB3/2B2/2A2")
	h := ComputeHash(&b, PlayerA, Movement)
	undo := b.MakeMove(NewStep(NewSquare(1, 2), Center), PlayerA, Movement, 30)
	if got, want := UpdateHash(h, &undo, PlayerA, PlayerB, Movement), ComputeHash(&b, PlayerB, Movement); got != want {
		t.Errorf("double capture: incremental %016x != scratch %016x", got, want)
	}

	b = MustParseLayout("BA3/A4/2A2/4A/3AB")
	h = ComputeHash(&b, PlayerB, StuckRemoval)
	undo = b.MakeMove(NewPlacement(NewSquare(0, 1)), PlayerB, StuckRemoval, 40)
	if got, want := UpdateHash(h, &undo, PlayerB, PlayerB, Movement), ComputeHash(&b, PlayerB, Movement); got != want {
		t.Errorf("removal: incremental %016x != scratch %016x", got, want)
	}
}

func TestHashDistinguishesPhaseAndSide(t *testing.T) {
	b := MustParseLayout("AA3/5/5/5/3BB")
	seen := make(map[uint64]string)
	for _, p := range []Player{PlayerA, PlayerB} {
		for ph := Phase(0); ph < numPhases; ph++ {
			h := ComputeHash(&b, p, ph)
			key := p.String() + " " + ph.String()
			if prev, ok := seen[h]; ok {
				t.Errorf("%s collides with %s", key, prev)
			}
			seen[h] = key
		}
	}

	var empty Board
	if ComputeHash(&empty, PlayerA, Placement) == 0 {
		t.Error("opening position hashes to 0, the empty-slot key")
	}
}

func TestHashIsKeyComposition(t *testing.T) {
	b := MustParseLayout("5/5/5/5/3B1")
	sq := NewSquare(4, 3)
	want := ZobristPiece(PlayerB, sq) ^ ZobristSideToMove() ^ ZobristPhase(Movement)
	if got := ComputeHash(&b, PlayerB, Movement); got != want {
		t.Errorf("ComputeHash = %016x, want %016x", got, want)
	}
}

func TestZobristKeysDeterministic(t *testing.T) {
	saved := zobristPiece
	initZobrist()
	if zobristPiece != saved {
		t.Error("re-initialising produced different keys")
	}
}

package board

// Perft counts the leaf nodes of the game tree below s at the given depth.
// It is the standard way to verify move generation. A side left without a
// movement step expands its removals in place of steps, as play would.
// s.Board is mutated during the walk and restored before returning.
func Perft(s *State, depth int) int64 {
	return perft(&s.Board, s.Player, s.Phase, s.MoveIndex, s.LastMove, depth)
}

func perft(b *Board, p Player, ph Phase, idx int, last [3]Move, depth int) int64 {
	if depth == 0 {
		return 1
	}
	if ph == GameOver || b.Winner(ph) != NoPlayer {
		return 0
	}

	var ml MoveList
	b.GenerateMoves(&ml, p, ph, last[p])
	if ml.Len() == 0 && ph == Movement {
		ph = StuckRemoval
		b.GenerateMoves(&ml, p, ph, last[p])
	}
	if depth == 1 {
		return int64(ml.Len())
	}

	var nodes int64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := b.MakeMove(m, p, ph, idx)
		next, nextPhase, _ := NextTurn(p, ph, idx)
		nextLast := last
		if ph == Movement {
			nextLast[p] = m
		}
		nodes += perft(b, next, nextPhase, idx+1, nextLast, depth-1)
		b.UnmakeMove(&undo, p)
	}
	return nodes
}

package board

// GenerateMoves fills ml with the legal moves of p in phase ph.
// last is p's own previous movement step; its exact reverse is not allowed.
// The opponent's history is never consulted.
func (b *Board) GenerateMoves(ml *MoveList, p Player, ph Phase, last Move) {
	ml.Clear()
	switch ph {
	case Placement:
		b.generatePlacements(ml)
	case Movement:
		b.generateSteps(ml, p, last)
	case StuckRemoval:
		b.generateRemovals(ml, p)
	}
}

// LegalMoves returns the legal moves of p, picking p's own entry from the
// per-player last-move hints.
func (b *Board) LegalMoves(p Player, ph Phase, lastA, lastB Move) []Move {
	last := lastA
	if p == PlayerB {
		last = lastB
	}
	var ml MoveList
	b.GenerateMoves(&ml, p, ph, last)
	moves := make([]Move, ml.Len())
	copy(moves, ml.Slice())
	return moves
}

// HasStep reports whether p has at least one movement-phase move.
func (b *Board) HasStep(p Player, last Move) bool {
	forbidden := last.Reverse()
	for from := Square(0); from < NumSquares; from++ {
		if b.cells[from] != p {
			continue
		}
		for _, to := range neighbors[from] {
			if b.cells[to] == NoPlayer && NewStep(from, to) != forbidden {
				return true
			}
		}
	}
	return false
}

// generatePlacements adds every empty cell except the center.
func (b *Board) generatePlacements(ml *MoveList) {
	for sq := Square(0); sq < NumSquares; sq++ {
		if sq != Center && b.cells[sq] == NoPlayer {
			ml.Add(NewPlacement(sq))
		}
	}
}

// generateSteps adds one-square orthogonal moves into empty cells.
func (b *Board) generateSteps(ml *MoveList, p Player, last Move) {
	forbidden := last.Reverse()
	for from := Square(0); from < NumSquares; from++ {
		if b.cells[from] != p {
			continue
		}
		for _, to := range neighbors[from] {
			if debugChecks && !to.IsValid() {
				panic("board: neighbor off board from " + from.String())
			}
			if b.cells[to] != NoPlayer {
				continue
			}
			m := NewStep(from, to)
			if m == forbidden {
				continue
			}
			ml.Add(m)
		}
	}
}

// generateRemovals adds every cell held by the opponent of the stuck player p.
func (b *Board) generateRemovals(ml *MoveList, p Player) {
	op := p.Other()
	for sq := Square(0); sq < NumSquares; sq++ {
		if b.cells[sq] == op {
			ml.Add(NewPlacement(sq))
		}
	}
}

// CaptureCount predicts how many pieces the movement step m by p would
// capture, without making it. Only the destination's four rays matter.
func (b *Board) CaptureCount(m Move, p Player) int {
	op := p.Other()
	to := m.To()
	n := 0
	for d := 0; d < 4; d++ {
		near, far := Ray(to, d)
		if far == NoSquare {
			continue
		}
		if b.cells[near] == op && b.cells[far] == p {
			n++
		}
	}
	return n
}

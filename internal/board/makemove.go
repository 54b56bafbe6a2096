package board

// Capture records a piece taken off the board and who owned it.
type Capture struct {
	Square Square
	Owner  Player
}

// Undo stores exactly what MakeMove changed. It is the only input needed to
// reverse the move and must be consumed once, by the matching UnmakeMove.
type Undo struct {
	Move          Move
	Captured      [4]Capture
	NumCaptured   int
	ClearedCenter Player // piece removed by the last-placement rule, if any
	PrevPhase     Phase
}

// Captures returns the captured (or removed) pieces, in direction order.
func (u *Undo) Captures() []Capture {
	return u.Captured[:u.NumCaptured]
}

func (u *Undo) addCapture(sq Square, owner Player) {
	u.Captured[u.NumCaptured] = Capture{Square: sq, Owner: owner}
	u.NumCaptured++
}

// MakeMove applies m for player p in phase ph, mutating the board in place.
// moveIndex is the 1-based ply number of m.
func (b *Board) MakeMove(m Move, p Player, ph Phase, moveIndex int) Undo {
	undo := Undo{Move: m, PrevPhase: ph}
	to := m.To()
	if debugChecks && !to.IsValid() {
		panic("board: MakeMove to off-board square")
	}

	if ph == StuckRemoval {
		// The stuck player lifts one enemy piece; nothing is placed.
		if owner := b.removePiece(to); owner != NoPlayer {
			undo.addCapture(to, owner)
		}
		return undo
	}

	if m.HasFrom() {
		b.removePiece(m.From())
	}
	b.setPiece(to, p)

	switch ph {
	case Placement:
		if moveIndex == LastPlacementPly {
			undo.ClearedCenter = b.removePiece(Center)
		}
	case Movement:
		b.resolveCaptures(&undo, to, p)
	}
	return undo
}

// resolveCaptures removes every opponent piece flanked between to and
// another piece of p, one check per direction.
func (b *Board) resolveCaptures(undo *Undo, to Square, p Player) {
	op := p.Other()
	for d := 0; d < 4; d++ {
		near, far := Ray(to, d)
		if far == NoSquare {
			continue
		}
		if b.cells[near] == op && b.cells[far] == p {
			b.removePiece(near)
			undo.addCapture(near, op)
		}
	}
}

// UnmakeMove reverses the MakeMove that produced undo. Calls must nest like a stack.
func (b *Board) UnmakeMove(undo *Undo, p Player) {
	m := undo.Move
	if undo.PrevPhase == StuckRemoval {
		for _, c := range undo.Captures() {
			b.setPiece(c.Square, c.Owner)
		}
		return
	}

	if debugChecks && b.cells[m.To()] != p {
		panic("board: UnmakeMove destination not owned by mover")
	}
	b.removePiece(m.To())
	if m.HasFrom() {
		b.setPiece(m.From(), p)
	}
	for _, c := range undo.Captures() {
		b.setPiece(c.Square, c.Owner)
	}
	if undo.ClearedCenter != NoPlayer {
		b.setPiece(Center, undo.ClearedCenter)
	}
}

// Winner returns the side whose opponent has fewer than two pieces left.
// It is never evaluated during placement.
func (b *Board) Winner(ph Phase) Player {
	if ph == Placement {
		return NoPlayer
	}
	switch {
	case b.count[PlayerA] < 2:
		return PlayerB
	case b.count[PlayerB] < 2:
		return PlayerA
	}
	return NoPlayer
}

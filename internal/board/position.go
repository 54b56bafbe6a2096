package board

import "strings"

// Board is the 5x5 grid of cell owners plus cached piece counts.
// It is a plain value: assignment copies it and == compares it cell by cell.
type Board struct {
	cells [NumSquares]Player
	count [3]int
}

// At returns the owner of sq, NoPlayer if empty.
func (b *Board) At(sq Square) Player {
	return b.cells[sq]
}

// IsEmpty returns true if the square is empty.
func (b *Board) IsEmpty(sq Square) bool {
	return b.cells[sq] == NoPlayer
}

// Count returns the number of pieces p has on the board.
func (b *Board) Count(p Player) int {
	return b.count[p]
}

// Put sets the owner of sq, keeping the counts in sync. It is meant for
// setting up positions; play goes through MakeMove.
func (b *Board) Put(sq Square, p Player) {
	assert(sq.IsValid(), "Put on off-board square %d", sq)
	if old := b.cells[sq]; old != NoPlayer {
		b.count[old]--
	}
	b.cells[sq] = p
	if p != NoPlayer {
		b.count[p]++
	}
}

// setPiece places p on an empty square (does not update hash).
func (b *Board) setPiece(sq Square, p Player) {
	if debugChecks && b.cells[sq] != NoPlayer {
		panic("board: setPiece on occupied " + sq.String())
	}
	b.cells[sq] = p
	b.count[p]++
}

// removePiece empties sq and returns its previous owner (does not update hash).
func (b *Board) removePiece(sq Square) Player {
	p := b.cells[sq]
	if p != NoPlayer {
		b.cells[sq] = NoPlayer
		b.count[p]--
	}
	return p
}

// Squares appends every square owned by p to dst.
func (b *Board) Squares(dst []Square, p Player) []Square {
	for sq := Square(0); sq < NumSquares; sq++ {
		if b.cells[sq] == p {
			dst = append(dst, sq)
		}
	}
	return dst
}

// String renders the board with row 0 on top, e.g. "A...B\n.....\n...".
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b.cells[r*Size+c] {
			case PlayerA:
				sb.WriteByte('A')
			case PlayerB:
				sb.WriteByte('B')
			default:
				sb.WriteByte('.')
			}
		}
		if r < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// State is everything the rules need to continue a game from a position.
// The engine is stateless across calls, so callers resend it every time.
type State struct {
	Board     Board
	Player    Player // side to act
	Phase     Phase
	MoveIndex int     // 1-based number of the ply about to be made
	LastMove  [3]Move // indexed by Player: that side's previous movement step
}

// NewGame returns the opening state: empty board, player A to place ply 1.
func NewGame() State {
	return State{Player: PlayerA, Phase: Placement, MoveIndex: 1}
}

// LastMoveOf returns the recorded last move of p.
func (s *State) LastMoveOf(p Player) Move {
	return s.LastMove[p]
}

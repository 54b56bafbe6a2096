package board

import (
	"fmt"
	"strings"
)

// Move encodes a Seega move in 16 bits:
// bits 8-15: origin square (0-24), or 255 when the move has no origin
// bits 0-7:  destination square (0-24)
//
// Placements and stuck removals have no origin. The value 0 is NoMove;
// no legal move packs to 0 because a move never starts and ends on a1.
type Move uint16

// NoMove represents an absent move.
const NoMove Move = 0

// NewPlacement creates a move without origin (a placement or a removal).
func NewPlacement(to Square) Move {
	return Move(NoSquare)<<8 | Move(to)
}

// NewStep creates a movement-phase move from one square to an adjacent one.
func NewStep(from, to Square) Move {
	return Move(from)<<8 | Move(to)
}

// From returns the origin square, NoSquare for placements and removals.
func (m Move) From() Square {
	return Square(m >> 8)
}

// To returns the destination (or removed) square.
func (m Move) To() Square {
	return Square(m & 0xFF)
}

// HasFrom reports whether the move has an origin square.
func (m Move) HasFrom() bool {
	return m != NoMove && m.From() != NoSquare
}

// Reverse returns the move going back from To to From.
// Moves without origin have no reverse.
func (m Move) Reverse() Move {
	if !m.HasFrom() {
		return NoMove
	}
	return NewStep(m.To(), m.From())
}

// String returns "c3" for placements/removals, "c3c4" for steps and "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	if !m.HasFrom() {
		return m.To().String()
	}
	return m.From().String() + m.To().String()
}

// ParseMove parses the notation produced by String.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 2:
		to, err := ParseSquare(s)
		if err != nil {
			return NoMove, err
		}
		return NewPlacement(to), nil
	case 4:
		from, err := ParseSquare(s[0:2])
		if err != nil {
			return NoMove, err
		}
		to, err := ParseSquare(s[2:4])
		if err != nil {
			return NoMove, err
		}
		return NewStep(from, to), nil
	}
	return NoMove, fmt.Errorf("invalid move string: %s", s)
}

// maxMoves bounds any move list: 24 placements, 12 pieces x 4 steps, 12 removals.
const maxMoves = 64

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [maxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

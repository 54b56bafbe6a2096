package board

import "errors"

// Rule violations reported by ApplyMove. Wrapped errors carry details;
// test with errors.Is.
var (
	ErrSquareOccupied = errors.New("square is occupied")
	ErrCenterReserved = errors.New("center cannot be claimed during placement")
	ErrIllegalMove    = errors.New("illegal move")
	ErrOffBoard       = errors.New("square is off the board")
	ErrGameOver       = errors.New("game is over")
	ErrInvalidPlayer  = errors.New("invalid player")
)

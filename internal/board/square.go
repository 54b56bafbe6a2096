// Package board implements the Seega board, its rules and position hashing.
package board

import "fmt"

// Board geometry.
const (
	Size       = 5
	NumSquares = Size * Size
	CenterRow  = 2
	CenterCol  = 2
)

// Square indexes a cell of the 5x5 board in row-major order: (0,0)=0, (4,4)=24.
type Square uint8

// Center is the middle cell; it stays empty during placement.
const Center Square = CenterRow*Size + CenterCol

// NoSquare is the sentinel for "no square". It doubles as the packed
// "no origin" marker of placement and removal moves.
const NoSquare Square = 255

// NewSquare creates a square from a row and column (0-indexed).
// The caller must ensure both are on the board; see SquareAt for the checked form.
func NewSquare(row, col int) Square {
	assert(InBounds(row, col), "NewSquare(%d,%d) off board", row, col)
	return Square(row*Size + col)
}

// SquareAt converts untrusted coordinates into a square.
func SquareAt(row, col int) (Square, bool) {
	if !InBounds(row, col) {
		return NoSquare, false
	}
	return Square(row*Size + col), true
}

// InBounds reports whether (row, col) lies on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Row returns the row of the square (0-4).
func (sq Square) Row() int {
	return int(sq) / Size
}

// Col returns the column of the square (0-4).
func (sq Square) Col() int {
	return int(sq) % Size
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NumSquares
}

// String returns the square name: column letter then row digit, (0,0) is "a1".
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '1'+sq.Row())
}

// ParseSquare parses a square name such as "c3".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: invalid square %q", ErrOffBoard, s)
	}
	sq, ok := SquareAt(int(s[1])-'1', int(s[0])-'a')
	if !ok {
		return NoSquare, fmt.Errorf("%w: invalid square %q", ErrOffBoard, s)
	}
	return sq, nil
}

// Distance returns the Manhattan distance between two squares.
func Distance(a, b Square) int {
	dr := a.Row() - b.Row()
	dc := a.Col() - b.Col()
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// CenterDistance returns the Manhattan distance from sq to the center.
func CenterDistance(sq Square) int {
	return Distance(sq, Center)
}

// Direction offsets in (row, col): up, down, left, right.
var (
	dirRow = [4]int{-1, 1, 0, 0}
	dirCol = [4]int{0, 0, -1, 1}
)

// rays[sq][dir] holds the neighbor and the cell behind it in that direction,
// NoSquare where the board ends. Precomputed so capture tests stay O(1).
var rays [NumSquares][4][2]Square

// neighbors[sq] lists the orthogonal neighbors of sq.
var neighbors [NumSquares][]Square

func init() {
	for sq := Square(0); sq < NumSquares; sq++ {
		r, c := sq.Row(), sq.Col()
		for d := 0; d < 4; d++ {
			rays[sq][d] = [2]Square{NoSquare, NoSquare}
			if n, ok := SquareAt(r+dirRow[d], c+dirCol[d]); ok {
				rays[sq][d][0] = n
				neighbors[sq] = append(neighbors[sq], n)
			}
			if f, ok := SquareAt(r+2*dirRow[d], c+2*dirCol[d]); ok {
				rays[sq][d][1] = f
			}
		}
	}
}

// Neighbors returns the orthogonal neighbors of sq. The slice must not be modified.
func Neighbors(sq Square) []Square {
	return neighbors[sq]
}

// Ray returns the adjacent square and the square beyond it in direction d (0-3).
// Either may be NoSquare near the edge.
func Ray(sq Square, d int) (near, far Square) {
	r := rays[sq][d]
	return r[0], r[1]
}

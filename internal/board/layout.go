package board

import (
	"fmt"
	"strings"
)

// ParseLayout builds a board from a FEN-like layout: five rows separated by
// '/', row 0 first, 'A'/'B' for pieces, '.' or a digit run for empty cells.
//
//	ParseLayout("A4/5/B4/A4/5")
func ParseLayout(layout string) (Board, error) {
	var b Board
	rows := strings.Split(strings.TrimSpace(layout), "/")
	if len(rows) != Size {
		return b, fmt.Errorf("invalid layout: need %d rows, got %d", Size, len(rows))
	}
	for r, row := range rows {
		c := 0
		for _, ch := range row {
			if c >= Size {
				return b, fmt.Errorf("invalid layout: row %d too long", r)
			}
			switch {
			case ch == 'A':
				b.Put(NewSquare(r, c), PlayerA)
				c++
			case ch == 'B':
				b.Put(NewSquare(r, c), PlayerB)
				c++
			case ch == '.':
				c++
			case ch >= '1' && ch <= '5':
				c += int(ch - '0')
			default:
				return b, fmt.Errorf("invalid layout character %q in row %d", ch, r)
			}
		}
		if c != Size {
			return b, fmt.Errorf("invalid layout: row %d has %d cells", r, c)
		}
	}
	if b.Count(PlayerA) > PiecesPerPlayer || b.Count(PlayerB) > PiecesPerPlayer {
		return b, fmt.Errorf("invalid layout: more than %d pieces for a side", PiecesPerPlayer)
	}
	return b, nil
}

// MustParseLayout is ParseLayout for fixed inputs; it panics on error.
func MustParseLayout(layout string) Board {
	b, err := ParseLayout(layout)
	if err != nil {
		panic(err)
	}
	return b
}

// Layout returns the compact layout string of the board, the inverse of ParseLayout.
func (b *Board) Layout() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		empty := 0
		for c := 0; c < Size; c++ {
			p := b.cells[r*Size+c]
			if p == NoPlayer {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < Size-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

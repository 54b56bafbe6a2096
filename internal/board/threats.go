package board

// Vulnerability counts the axes on which the piece at sq has an opponent
// piece on one side and an empty cell on the other. During placement such
// a piece can be flanked as soon as movement starts.
func (b *Board) Vulnerability(sq Square, op Player) int {
	n := 0
	for d := 0; d < 4; d++ {
		near, _ := Ray(sq, d)
		back, _ := Ray(sq, d^1)
		if near == NoSquare || back == NoSquare {
			continue
		}
		if b.cells[near] == op && b.cells[back] == NoPlayer {
			n++
		}
	}
	return n
}

// AtRisk reports whether the piece of me at sq can be captured by the
// opponent's next step: on one axis an opponent piece sits on one side and
// the other side is an empty cell an opponent piece stands next to.
func (b *Board) AtRisk(sq Square, me Player) bool {
	op := me.Other()
	// Directions 0/1 and 2/3 are the two halves of the vertical and horizontal axes.
	for d := 0; d < 4; d += 2 {
		a, _ := Ray(sq, d)
		c, _ := Ray(sq, d+1)
		if a == NoSquare || c == NoSquare {
			continue
		}
		if b.cells[a] == op && b.cells[c] == NoPlayer && b.touches(c, op) {
			return true
		}
		if b.cells[a] == NoPlayer && b.cells[c] == op && b.touches(a, op) {
			return true
		}
	}
	return false
}

// touches reports whether p has a piece orthogonally adjacent to sq.
func (b *Board) touches(sq Square, p Player) bool {
	for _, n := range neighbors[sq] {
		if b.cells[n] == p {
			return true
		}
	}
	return false
}

// StepExposes reports whether the step m would leave p's moved piece at risk.
// The board is restored before returning.
func (b *Board) StepExposes(m Move, p Player) bool {
	if !m.HasFrom() {
		return false
	}
	from, to := m.From(), m.To()
	savedFrom, savedTo := b.cells[from], b.cells[to]
	b.cells[from], b.cells[to] = NoPlayer, p
	risk := b.AtRisk(to, p)
	b.cells[from], b.cells[to] = savedFrom, savedTo
	return risk
}

// OpeningKillExposed reports whether placing p on sq, a cell next to the
// center, faces an opponent piece across the center. That piece can step
// into the freed center on the first movement move and flank sq.
func (b *Board) OpeningKillExposed(sq Square, p Player) bool {
	if CenterDistance(sq) != 1 {
		return false
	}
	opposite := Square(2*int(Center) - int(sq))
	return b.cells[opposite] == p.Other()
}

// EmptyNeighbors counts the empty cells orthogonally adjacent to sq.
func (b *Board) EmptyNeighbors(sq Square) int {
	n := 0
	for _, nb := range neighbors[sq] {
		if b.cells[nb] == NoPlayer {
			n++
		}
	}
	return n
}

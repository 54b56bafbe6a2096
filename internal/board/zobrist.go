package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility. The tables are written once
// by init and only read afterwards, so every search shares them freely.
var (
	zobristPiece      [3][NumSquares]uint64 // [Player][Square], NoPlayer row unused
	zobristSideToMove uint64                // XOR when player B is to act
	zobristPhase      [numPhases]uint64     // one key per phase
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x5EE6A0C0FFEE1688) // Fixed seed

	for p := PlayerA; p <= PlayerB; p++ {
		for sq := Square(0); sq < NumSquares; sq++ {
			zobristPiece[p][sq] = rng.next()
		}
	}
	zobristSideToMove = rng.next()
	for ph := Phase(0); ph < numPhases; ph++ {
		zobristPhase[ph] = rng.next()
	}
}

// ZobristPiece returns the key for p occupying sq.
func ZobristPiece(p Player, sq Square) uint64 {
	return zobristPiece[p][sq]
}

// ZobristSideToMove returns the key toggled when the acting side changes.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}

// ZobristPhase returns the key of a phase.
func ZobristPhase(ph Phase) uint64 {
	return zobristPhase[ph]
}

// ComputeHash hashes a position from scratch: every occupied cell, the side
// to act and the active phase.
func ComputeHash(b *Board, toMove Player, ph Phase) uint64 {
	var h uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		if p := b.cells[sq]; p != NoPlayer {
			h ^= ZobristPiece(p, sq)
		}
	}
	if toMove == PlayerB {
		h ^= ZobristSideToMove()
	}
	return h ^ ZobristPhase(ph)
}

// UpdateHash returns the hash after p played undo.Move, given who acts next
// and in which phase. It must agree with ComputeHash on the resulting board.
//
// Captured and removed pieces come only from undo.Captured. In a removal
// the destination is the removed cell itself, so it is not also XOR-ed in
// as a placed piece.
func UpdateHash(h uint64, undo *Undo, p, next Player, nextPhase Phase) uint64 {
	m := undo.Move
	if undo.PrevPhase != StuckRemoval {
		if m.HasFrom() {
			h ^= zobristPiece[p][m.From()]
		}
		h ^= zobristPiece[p][m.To()]
	}
	for _, c := range undo.Captures() {
		h ^= zobristPiece[c.Owner][c.Square]
	}
	if undo.ClearedCenter != NoPlayer {
		h ^= zobristPiece[undo.ClearedCenter][Center]
	}
	if next != p {
		h ^= zobristSideToMove
	}
	if nextPhase != undo.PrevPhase {
		h ^= zobristPhase[undo.PrevPhase] ^ zobristPhase[nextPhase]
	}
	return h
}

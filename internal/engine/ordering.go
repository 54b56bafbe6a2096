package engine

import (
	"github.com/hailam/seega/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore    = 10000000 // TT move gets highest priority
	CaptureScore   = 15000    // predicted capture
	KillerScore1   = 9000     // First killer move
	KillerScore2   = 8000     // Second killer move
	SuicideScore   = -25000   // step that leaves the piece flankable
	historyMax     = 4000
	openingKillDef = -50000 // placement next to the center facing an enemy across it
)

// Root-only weights for the heavy ordering.
const (
	heavyCaptureWeight  = 2000
	suffocateBonus      = 3000
	removalMobility     = 10
	removalCaptureBonus = 5000
)

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic for steps (indexed by [from][to])
	history [board.NumSquares][board.NumSquares]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}

	// Age history scores
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}
}

// ScoreMoves assigns fast ordering scores for an inner node. Each score is
// computed from the destination's neighborhood only, never by making the move.
func (mo *MoveOrderer) ScoreMoves(b *board.Board, moves *board.MoveList, scores []int, p board.Player, ph board.Phase, ply int, ttMove board.Move) {
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreFast(b, moves.Get(i), p, ph, ply, ttMove)
	}
}

func (mo *MoveOrderer) scoreFast(b *board.Board, m board.Move, p board.Player, ph board.Phase, ply int, ttMove board.Move) int {
	// TT move gets highest priority
	if m == ttMove {
		return TTMoveScore
	}

	to := m.To()
	switch ph {
	case board.Placement:
		score := 10 - board.CenterDistance(to)
		if b.OpeningKillExposed(to, p) {
			score += openingKillDef
		}
		return score
	case board.StuckRemoval:
		// Freeing a cell next to our own pieces restores mobility.
		score := 0
		for _, n := range board.Neighbors(to) {
			if b.At(n) == p {
				score += removalMobility
			}
		}
		return score
	}

	score := 10 - board.CenterDistance(to)
	if b.CaptureCount(m, p) > 0 {
		return score + CaptureScore
	}
	if b.StepExposes(m, p) {
		score += SuicideScore
	}
	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return score + KillerScore1
		}
		if m == mo.killers[ply][1] {
			return score + KillerScore2
		}
	}
	return score + mo.HistoryScore(m)
}

// ScoreRootMoves assigns the heavy ordering used once per search at the
// root. Steps are simulated with make/unmake to count captures and to see
// whether the opponent is left without a move.
func ScoreRootMoves(b *board.Board, moves *board.MoveList, scores []int, st *board.State, ttMove board.Move) {
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m == ttMove {
			scores[i] = TTMoveScore
			continue
		}
		scores[i] = scoreHeavy(b, m, st)
	}
}

func scoreHeavy(b *board.Board, m board.Move, st *board.State) int {
	p := st.Player
	switch st.Phase {
	case board.Placement:
		if b.OpeningKillExposed(m.To(), p) {
			return openingKillDef
		}
		return 100 - board.CenterDistance(m.To())*10
	case board.StuckRemoval:
		return EvaluateRemovalMove(b, m, p, st.LastMove[p])
	}

	op := p.Other()
	undo := b.MakeMove(m, p, board.Movement, st.MoveIndex)
	score := undo.NumCaptured * heavyCaptureWeight
	if b.Winner(board.Movement) == board.NoPlayer {
		if !b.HasStep(op, st.LastMove[op]) {
			score += suffocateBonus
		}
	}
	b.UnmakeMove(&undo, p)
	if score == 0 && b.StepExposes(m, p) {
		score += SuicideScore
	}
	return score
}

// EvaluateRemovalMove scores removing the piece at m.To() for the stuck
// player p: mobility regained plus a bonus per follow-up step that captures.
func EvaluateRemovalMove(b *board.Board, m board.Move, p board.Player, last board.Move) int {
	undo := b.MakeMove(m, p, board.StuckRemoval, 0)
	var ml board.MoveList
	b.GenerateMoves(&ml, p, board.Movement, last)
	score := ml.Len() * removalMobility
	for i := 0; i < ml.Len(); i++ {
		if b.CaptureCount(ml.Get(i), p) > 0 {
			score += removalCaptureBonus
		}
	}
	b.UnmakeMove(&undo, p)
	return score
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || !m.HasFrom() {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0] == m {
		return
	}

	// Shift killers
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet step that caused a cutoff.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	if !m.HasFrom() {
		return
	}
	h := &mo.history[m.From()][m.To()]
	*h = clamp(*h+depth*depth, 0, historyMax)
}

// HistoryScore returns the history value of a step.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	if !m.HasFrom() {
		return 0
	}
	return mo.history[m.From()][m.To()]
}

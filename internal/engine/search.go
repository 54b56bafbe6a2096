package engine

import (
	"sync/atomic"

	"github.com/hailam/seega/internal/board"
)

// Search constants
const (
	MaxPly = 64
)

// Late move reduction: after lmrMinMoves moves at depth >= lmrMinDepth,
// quiet non-combo moves are first tried lmrReduction plies shallower with
// a null window.
const (
	lmrMinMoves  = 4
	lmrMinDepth  = 3
	lmrReduction = 2
)

// checkInterval is how many nodes pass between budget checks (power of 2).
const checkInterval = 1024

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	next := ply + 1
	n := next
	if next < MaxPly {
		for n = next; n < pv.length[next]; n++ {
			pv.moves[ply][n] = pv.moves[next][n]
		}
	}
	pv.length[ply] = n
}

// node is the part of the game state that changes from ply to ply.
// The board itself is shared and mutated with make/unmake.
type node struct {
	hash   uint64
	player board.Player
	phase  board.Phase
	index  int
	last   [3]board.Move
}

// child returns the node reached after the current player made m, and
// whether the same player acts again.
func (n *node) child(m board.Move, undo *board.Undo) (node, bool) {
	next, nextPhase, combo := board.NextTurn(n.player, n.phase, n.index)
	c := node{
		hash:   board.UpdateHash(n.hash, undo, n.player, next, nextPhase),
		player: next,
		phase:  nextPhase,
		index:  n.index + 1,
		last:   n.last,
	}
	if n.phase == board.Movement {
		c.last[n.player] = m
	}
	return c, combo
}

// Searcher performs the alpha-beta search on one board.
// A Searcher is not safe for concurrent use; the table it writes to is.
type Searcher struct {
	b       board.Board
	tt      *TranspositionTable
	orderer *MoveOrderer
	budget  *Budget

	nodes     uint64
	abortable bool
	stopped   bool
	stopFlag  atomic.Bool

	pv     PVTable
	lists  [MaxPly]board.MoveList
	scores [MaxPly][64]int
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
	}
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	s.nodes = 0
	s.stopped = false
	s.stopFlag.Store(false)
	s.orderer.Clear()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// IsStopped returns true if the last iteration was aborted.
func (s *Searcher) IsStopped() bool {
	return s.stopped
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// tick counts a node and polls the budget every checkInterval nodes.
// Depth-1 iterations are never abortable, so a move is always found.
func (s *Searcher) tick() bool {
	s.nodes++
	if s.stopped {
		return true
	}
	if s.abortable && s.nodes&(checkInterval-1) == 0 {
		if s.stopFlag.Load() || (s.budget != nil && s.budget.Exceeded(s.nodes)) {
			s.stopped = true
		}
	}
	return s.stopped
}

// SearchRoot searches st to depth and returns the best move and its score.
// moves must be st's legal moves; they are reordered in place.
func (s *Searcher) SearchRoot(st *board.State, moves *board.MoveList, depth int) (board.Move, int) {
	s.b = st.Board
	s.abortable = depth > 1
	s.pv.length[0] = 0

	root := node{
		hash:   board.ComputeHash(&s.b, st.Player, st.Phase),
		player: st.Player,
		phase:  st.Phase,
		index:  st.MoveIndex,
		last:   st.LastMove,
	}

	_, ttMove, _ := s.tt.Probe(root.hash, depth, -Infinity, Infinity)
	ttMove = filterTTMove(ttMove, st.Phase, moves)

	scores := s.scores[0][:moves.Len()]
	ScoreRootMoves(&s.b, moves, scores, st, ttMove)

	bestMove := board.NoMove
	bestScore := -Infinity
	alpha := -Infinity

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := s.b.MakeMove(m, root.player, root.phase, root.index)
		c, combo := root.child(m, &undo)

		var score int
		switch {
		case root.phase == board.StuckRemoval:
			// Removal and the following step are one turn.
			score = s.negamax(&c, depth, alpha, Infinity, 1)
		case combo:
			score = s.negamax(&c, depth-1, alpha, Infinity, 1)
		default:
			score = -s.negamax(&c, depth-1, -Infinity, -alpha, 1)
		}
		s.b.UnmakeMove(&undo, root.player)

		if s.stopped {
			return board.NoMove, 0
		}
		if score > bestScore {
			bestScore = score
			bestMove = m
			s.pv.update(0, m)
		}
		if score > alpha {
			alpha = score
		}
	}

	if bestMove != board.NoMove {
		s.tt.Store(root.hash, depth, bestScore, TTExact, bestMove)
	}
	return bestMove, bestScore
}

// negamax returns the score of n from n.player's perspective.
func (s *Searcher) negamax(n *node, depth, alpha, beta, ply int) int {
	if s.tick() {
		return 0
	}
	s.pv.length[ply] = ply

	if w := s.b.Winner(n.phase); w != board.NoPlayer {
		if w == n.player {
			return WinScore + depth
		}
		return -WinScore - depth
	}

	ttScore, ttMove, ok := s.tt.Probe(n.hash, depth, alpha, beta)
	if ok {
		return ttScore
	}

	if depth <= 0 || ply >= MaxPly-1 {
		return s.quiesce(n, alpha, beta, ply)
	}

	moves := &s.lists[ply]
	s.b.GenerateMoves(moves, n.player, n.phase, n.last[n.player])
	if moves.Len() == 0 {
		if n.phase == board.Movement {
			return s.searchRemoval(n, depth, alpha, beta, ply)
		}
		return Evaluate(&s.b, n.player, n.phase, n.index) + StuckAdvantage
	}

	ttMove = filterTTMove(ttMove, n.phase, moves)
	scores := s.scores[ply][:moves.Len()]
	s.orderer.ScoreMoves(&s.b, moves, scores, n.player, n.phase, ply, ttMove)

	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := s.b.MakeMove(m, n.player, n.phase, n.index)
		c, combo := n.child(m, &undo)

		var score int
		switch {
		case combo:
			score = s.negamax(&c, depth-1, alpha, beta, ply+1)
		case i >= lmrMinMoves && depth >= lmrMinDepth && undo.NumCaptured == 0:
			score = -s.negamax(&c, depth-lmrReduction, -alpha-1, -alpha, ply+1)
			if score > alpha {
				score = -s.negamax(&c, depth-1, -beta, -alpha, ply+1)
			}
		default:
			score = -s.negamax(&c, depth-1, -beta, -alpha, ply+1)
		}
		s.b.UnmakeMove(&undo, n.player)

		if s.stopped {
			return 0
		}
		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			s.pv.update(ply, m)
		}
		if alpha >= beta {
			if undo.NumCaptured == 0 {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(m, depth)
			}
			break
		}
	}

	flag := TTExact
	if bestScore <= origAlpha {
		flag = TTUpperBound
	} else if bestScore >= beta {
		flag = TTLowerBound
	}
	s.tt.Store(n.hash, depth, bestScore, flag, bestMove)
	return bestScore
}

// searchRemoval handles a side with no step in MOVEMENT: it removes one
// enemy piece and moves again. The pair counts as one turn, so the depth
// is not reduced and the score is not negated.
func (s *Searcher) searchRemoval(n *node, depth, alpha, beta, ply int) int {
	r := *n
	r.phase = board.StuckRemoval
	r.hash ^= board.ZobristPhase(board.Movement) ^ board.ZobristPhase(board.StuckRemoval)

	moves := &s.lists[ply]
	s.b.GenerateMoves(moves, r.player, r.phase, board.NoMove)
	if moves.Len() == 0 {
		return Evaluate(&s.b, n.player, board.Movement, n.index)
	}
	scores := s.scores[ply][:moves.Len()]
	s.orderer.ScoreMoves(&s.b, moves, scores, r.player, r.phase, ply, board.NoMove)

	bestScore := -Infinity
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := s.b.MakeMove(m, r.player, r.phase, r.index)
		c, _ := r.child(m, &undo)
		score := s.negamax(&c, depth, alpha, beta, ply+1)
		s.b.UnmakeMove(&undo, r.player)

		if s.stopped {
			return 0
		}
		if score > bestScore {
			bestScore = score
		}
		if score > alpha {
			alpha = score
			s.pv.update(ply, m)
		}
		if alpha >= beta {
			break
		}
	}
	return bestScore
}

// quiesce searches captures only until the position is quiet, using the
// static evaluation as a stand-pat lower bound.
func (s *Searcher) quiesce(n *node, alpha, beta, ply int) int {
	if s.tick() {
		return 0
	}
	s.pv.length[ply] = ply

	if w := s.b.Winner(n.phase); w != board.NoPlayer {
		if w == n.player {
			return WinScore
		}
		return -WinScore
	}

	ttScore, _, ok := s.tt.Probe(n.hash, 0, alpha, beta)
	if ok {
		return ttScore
	}

	standPat := Evaluate(&s.b, n.player, n.phase, n.index)
	if standPat >= beta {
		return beta
	}
	origAlpha := alpha
	if standPat > alpha {
		alpha = standPat
	}
	if n.phase != board.Movement || ply >= MaxPly-1 {
		return alpha
	}

	moves := &s.lists[ply]
	s.b.GenerateMoves(moves, n.player, n.phase, n.last[n.player])
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if s.b.CaptureCount(m, n.player) == 0 {
			continue
		}

		undo := s.b.MakeMove(m, n.player, n.phase, n.index)
		c, _ := n.child(m, &undo)
		score := -s.quiesce(&c, -beta, -alpha, ply+1)
		s.b.UnmakeMove(&undo, n.player)

		if s.stopped {
			return 0
		}
		if score >= beta {
			s.tt.Store(n.hash, 0, beta, TTLowerBound, m)
			return beta
		}
		if score > alpha {
			alpha = score
			bestMove = m
			s.pv.update(ply, m)
		}
	}

	flag := TTExact
	if alpha <= origAlpha {
		flag = TTUpperBound
	}
	s.tt.Store(n.hash, 0, alpha, flag, bestMove)
	return alpha
}

// filterTTMove drops a cached move that cannot be played here: steps
// outside MOVEMENT, origin-less moves in MOVEMENT and anything not in moves.
func filterTTMove(m board.Move, ph board.Phase, moves *board.MoveList) board.Move {
	if m == board.NoMove {
		return board.NoMove
	}
	if m.HasFrom() != (ph == board.Movement) {
		return board.NoMove
	}
	if !moves.Contains(m) {
		return board.NoMove
	}
	return m
}

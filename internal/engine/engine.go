package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/hailam/seega/internal/board"
)

// SearchInfo contains information about a completed iteration.
type SearchInfo struct {
	GameID   string
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Difficulty is the nominal search depth requested by a client.
type Difficulty int

const (
	MinDifficulty Difficulty = 1
	MaxDifficulty Difficulty = 10

	Easy   Difficulty = 2
	Medium Difficulty = 4
	Hard   Difficulty = 6
	Expert Difficulty = 8
)

var difficultyNames = map[string]Difficulty{
	"easy":   Easy,
	"medium": Medium,
	"hard":   Hard,
	"expert": Expert,
}

// ParseDifficulty accepts a preset name or a number in [1, 10].
func ParseDifficulty(s string) (Difficulty, error) {
	if d, ok := difficultyNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
	d := Difficulty(n)
	if d < MinDifficulty || d > MaxDifficulty {
		return 0, fmt.Errorf("difficulty %d out of range [%d, %d]", n, MinDifficulty, MaxDifficulty)
	}
	return d, nil
}

// Adaptive depth policy.
const (
	transitionMinDepth  = 6 // ply 24 decides who gets the first capture
	latePlacementPly    = 18
	latePlacementMin    = 3
	latePlacementMax    = 7
	earlyPlacementMax   = 3
	mercyLead           = 5
	mercyOpponentPieces = 4
	mercyDepth          = 2
)

// AdaptiveDepth returns the root depth to search st at for difficulty diff.
func AdaptiveDepth(st *board.State, diff Difficulty) int {
	d := clamp(int(diff), int(MinDifficulty), int(MaxDifficulty))
	if st.Phase == board.Placement {
		switch idx := st.MoveIndex; {
		case idx == board.LastPlacementPly:
			return max(d, transitionMinDepth)
		case idx >= latePlacementPly:
			return clamp(board.LastPlacementPly-idx+2, latePlacementMin, latePlacementMax)
		default:
			return min(d, earlyPlacementMax)
		}
	}
	mine := st.Board.Count(st.Player)
	theirs := st.Board.Count(st.Player.Other())
	if mine-theirs >= mercyLead && theirs <= mercyOpponentPieces {
		return mercyDepth
	}
	return d
}

// TableSource hands out the transposition table kept for a game.
// Implementations must be safe for concurrent use.
type TableSource interface {
	Table(gameID string) *TranspositionTable
}

// Request is one call for an AI move.
type Request struct {
	State      board.State
	Difficulty Difficulty
	GameID     string // selects the table; empty means a fresh one
	Depth      int    // fixed target depth; zero picks the adaptive depth
}

// Result is the engine's answer to a Request.
type Result struct {
	Move   board.Move
	Score  int
	Depth  int // deepest completed iteration, 0 for forced answers
	Nodes  uint64
	Time   time.Duration
	PV     []board.Move
	Forced bool // only move or immediate win, no search was run
}

// Engine is the Seega AI. It keeps no position between calls; the
// per-game state it reuses is the transposition table from its TableSource.
type Engine struct {
	tables    TableSource
	limits    Limits
	tableBits int
	randomize bool

	// Callbacks
	OnInfo func(SearchInfo)
}

// DefaultTableBits is the size of tables created for calls without a game id.
const DefaultTableBits = 16

// NewEngine creates an engine drawing tables from tables, which may be nil.
func NewEngine(tables TableSource, limits Limits) *Engine {
	return &Engine{
		tables:    tables,
		limits:    limits,
		tableBits: DefaultTableBits,
	}
}

// SetLimits sets the per-move budget.
func (e *Engine) SetLimits(l Limits) {
	e.limits = l
}

// SetTableBits sets the size of tables created for anonymous calls.
func (e *Engine) SetTableBits(bits int) {
	e.tableBits = bits
}

// SetRandomize shuffles root moves before ordering so equal scores do not
// always resolve to the same move.
func (e *Engine) SetRandomize(on bool) {
	e.randomize = on
}

func (e *Engine) table(gameID string) *TranspositionTable {
	if e.tables != nil && gameID != "" {
		if tt := e.tables.Table(gameID); tt != nil {
			return tt
		}
	}
	return NewTranspositionTable(e.tableBits)
}

// ComputeBestMove answers req with the best move found within the
// engine's limits and ctx. The last-move hints in req are sanitized first.
func (e *Engine) ComputeBestMove(ctx context.Context, req Request) (Result, error) {
	st, err := prepare(req.State)
	if err != nil {
		return Result{}, err
	}
	depth := req.Depth
	if depth <= 0 {
		depth = AdaptiveDepth(&st, req.Difficulty)
	}
	res := e.search(ctx, &st, depth, req.GameID)

	log.Debug().
		Str("game", req.GameID).
		Str("phase", st.Phase.String()).
		Int("ply", st.MoveIndex).
		Int("target", depth).
		Int("depth", res.Depth).
		Int("score", res.Score).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Time).
		Stringer("move", res.Move).
		Msg("search finished")
	return res, nil
}

// FindBestMove searches st to exactly depth plies with a fresh table.
// It returns NoMove only when st has no legal move.
func (e *Engine) FindBestMove(ctx context.Context, st board.State, depth int) (board.Move, error) {
	res, err := e.ComputeBestMove(ctx, Request{State: st, Depth: max(depth, 1)})
	return res.Move, err
}

// prepare validates st and normalizes it: untrusted hints are dropped and a
// side without a step in MOVEMENT is put into STUCK_REMOVAL.
func prepare(st board.State) (board.State, error) {
	if !st.Player.IsValid() {
		return st, fmt.Errorf("%w: %d", board.ErrInvalidPlayer, st.Player)
	}
	if st.Phase == board.GameOver || st.Board.Winner(st.Phase) != board.NoPlayer {
		return st, board.ErrGameOver
	}
	switch st.Phase {
	case board.Placement, board.Movement, board.StuckRemoval:
	default:
		return st, fmt.Errorf("unknown phase %d", st.Phase)
	}
	st.Normalize()
	return st, nil
}

func (e *Engine) search(ctx context.Context, st *board.State, depth int, gameID string) Result {
	var moves board.MoveList
	st.Board.GenerateMoves(&moves, st.Player, st.Phase, st.LastMove[st.Player])
	if moves.Len() == 0 {
		return Result{Move: board.NoMove}
	}
	if moves.Len() == 1 {
		return Result{Move: moves.Get(0), Forced: true}
	}
	if m, ok := immediateWin(st, &moves); ok {
		return Result{Move: m, Score: WinScore, Forced: true}
	}
	if e.randomize {
		frand.Shuffle(moves.Len(), moves.Swap)
	}

	tt := e.table(gameID)
	s := NewSearcher(tt)
	s.Reset()
	s.budget = NewBudget(ctx, e.limits)

	res := Result{Move: board.NoMove}
	for d := 1; d <= depth; d++ {
		if d > 1 && !s.budget.StartNext(s.Nodes()) {
			break
		}
		m, score := s.SearchRoot(st, &moves, d)
		if s.IsStopped() {
			break
		}
		if m != board.NoMove {
			res.Move = m
			res.Score = score
			res.Depth = d
			res.PV = s.GetPV()
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				GameID:   gameID,
				Depth:    d,
				Score:    score,
				Nodes:    s.Nodes(),
				Time:     s.budget.Elapsed(),
				PV:       res.PV,
				HashFull: tt.HashFull(),
			})
		}

		// Decided positions do not get better with depth.
		if abs(score) >= WinScore {
			break
		}
	}
	res.Nodes = s.Nodes()
	res.Time = s.budget.Elapsed()

	// Safety fallback: never answer without a move when one exists.
	if res.Move == board.NoMove {
		log.Error().
			Str("game", gameID).
			Str("position", st.Board.Layout()).
			Int("moves", moves.Len()).
			Msg("search returned no move, using first legal move")
		res.Move = moves.Get(0)
	}
	return res
}

// immediateWin looks for a step (or removal) that wins on the spot.
func immediateWin(st *board.State, moves *board.MoveList) (board.Move, bool) {
	if st.Phase == board.Placement {
		return board.NoMove, false
	}
	b := st.Board
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := b.MakeMove(m, st.Player, st.Phase, st.MoveIndex)
		won := b.Winner(board.Movement) == st.Player
		b.UnmakeMove(&undo, st.Player)
		if won {
			return m, true
		}
	}
	return board.NoMove, false
}

// Evaluate returns the static evaluation of st from the side to act.
func (e *Engine) Evaluate(st *board.State) int {
	return Evaluate(&st.Board, st.Player, st.Phase, st.MoveIndex)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= WinScore {
		return "win"
	}
	if score <= -WinScore {
		return "loss"
	}
	return fmt.Sprintf("%+.2f", float64(score)/MaterialValue)
}

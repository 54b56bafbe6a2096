package board

import "fmt"

// LastPlacementPly is the ply that fills the board and starts the movement phase.
const LastPlacementPly = 2 * PiecesPerPlayer

// IsComboPly reports whether the player who makes ply moveIndex in phase ph
// acts again afterwards: placement plies 1, 3 and 24 and every stuck removal.
func IsComboPly(ph Phase, moveIndex int) bool {
	switch ph {
	case Placement:
		return moveIndex == 1 || moveIndex == 3 || moveIndex == LastPlacementPly
	case StuckRemoval:
		return true
	}
	return false
}

// NextTurn returns who acts after p makes ply moveIndex in phase ph, and in
// which phase. It does not look at the board: the caller still has to check
// whether the next player is stuck and whether the game is over.
func NextTurn(p Player, ph Phase, moveIndex int) (next Player, nextPhase Phase, combo bool) {
	switch ph {
	case Placement:
		if moveIndex == LastPlacementPly {
			return p, Movement, true
		}
		if IsComboPly(ph, moveIndex) {
			return p, Placement, true
		}
		return p.Other(), Placement, false
	case StuckRemoval:
		return p, Movement, true
	}
	return p.Other(), ph, false
}

// firstPlayerPly reports whether ply moveIndex belongs to the player who
// opened the game: plies 1-2, then 5, 7, 9 and so on.
func firstPlayerPly(moveIndex int) bool {
	if moveIndex <= 4 {
		return moveIndex <= 2
	}
	return moveIndex%2 == 1
}

// MovementLeader returns the player who will make the first movement move,
// given the side p about to make placement ply moveIndex. That is the second
// player, who also places the 24th piece.
func MovementLeader(p Player, moveIndex int) Player {
	if moveIndex <= 0 {
		return PlayerB
	}
	if firstPlayerPly(moveIndex) {
		return p.Other()
	}
	return p
}

// SanitizeLastMove drops a last-move hint that cannot be p's previous step on b.
// Clients are stateless and may resend stale hints, so a bad hint is ignored
// rather than reported.
func SanitizeLastMove(b *Board, m Move, p Player) Move {
	if m == NoMove || !m.HasFrom() {
		return NoMove
	}
	from, to := m.From(), m.To()
	if !to.IsValid() || !from.IsValid() {
		return NoMove
	}
	if b.At(to) != p || Distance(from, to) != 1 {
		return NoMove
	}
	return m
}

// Normalize drops unusable last-move hints and puts a side without a step
// in MOVEMENT into STUCK_REMOVAL.
func (s *State) Normalize() {
	s.LastMove[PlayerA] = SanitizeLastMove(&s.Board, s.LastMove[PlayerA], PlayerA)
	s.LastMove[PlayerB] = SanitizeLastMove(&s.Board, s.LastMove[PlayerB], PlayerB)
	if s.Phase == Movement && s.Player.IsValid() && !s.Board.HasStep(s.Player, s.LastMoveOf(s.Player)) {
		s.Phase = StuckRemoval
	}
}

// Result is the outcome of ApplyMove.
type Result struct {
	Board         Board
	Move          Move
	Captured      []Square
	NextPlayer    Player
	NextPhase     Phase
	NextMoveIndex int
	LastMove      [3]Move
	Winner        Player
	GameOver      bool
}

// State returns the state to continue the game from.
func (r *Result) State() State {
	return State{
		Board:     r.Board,
		Player:    r.NextPlayer,
		Phase:     r.NextPhase,
		MoveIndex: r.NextMoveIndex,
		LastMove:  r.LastMove,
	}
}

// ApplyMove validates m against st and returns the resulting position.
// st is not modified. Invalid input is reported through the returned error,
// which wraps one of the package sentinel errors.
func ApplyMove(st State, m Move) (Result, error) {
	p := st.Player
	if !p.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidPlayer, p)
	}
	if st.Phase == GameOver || st.Board.Winner(st.Phase) != NoPlayer {
		return Result{}, ErrGameOver
	}

	var last [3]Move
	last[PlayerA] = SanitizeLastMove(&st.Board, st.LastMove[PlayerA], PlayerA)
	last[PlayerB] = SanitizeLastMove(&st.Board, st.LastMove[PlayerB], PlayerB)

	if err := validateMove(&st.Board, m, p, st.Phase, last[p]); err != nil {
		return Result{}, err
	}

	b := st.Board
	undo := b.MakeMove(m, p, st.Phase, st.MoveIndex)
	if st.Phase == Movement {
		last[p] = m
	}

	res := Result{
		Move:          m,
		NextMoveIndex: st.MoveIndex + 1,
	}
	for _, c := range undo.Captures() {
		res.Captured = append(res.Captured, c.Square)
	}

	next, nextPhase, _ := NextTurn(p, st.Phase, st.MoveIndex)
	if w := b.Winner(nextPhase); w != NoPlayer {
		res.Winner = w
		res.GameOver = true
		nextPhase = GameOver
	} else if nextPhase == Movement && !b.HasStep(next, last[next]) {
		nextPhase = StuckRemoval
	}

	res.Board = b
	res.NextPlayer = next
	res.NextPhase = nextPhase
	res.LastMove = last
	return res, nil
}

// validateMove checks m for p in phase ph, reporting the most specific reason.
func validateMove(b *Board, m Move, p Player, ph Phase, last Move) error {
	to := m.To()
	if m == NoMove || !to.IsValid() {
		return fmt.Errorf("%w: %s", ErrOffBoard, m)
	}
	if m.HasFrom() && !m.From().IsValid() {
		return fmt.Errorf("%w: %s", ErrOffBoard, m)
	}

	switch ph {
	case Placement:
		if m.HasFrom() {
			return fmt.Errorf("%w: %s is not a placement", ErrIllegalMove, m)
		}
		if to == Center {
			return fmt.Errorf("%w: %s", ErrCenterReserved, to)
		}
		if !b.IsEmpty(to) {
			return fmt.Errorf("%w: %s", ErrSquareOccupied, to)
		}
	case Movement:
		if !m.HasFrom() {
			return fmt.Errorf("%w: %s has no origin", ErrIllegalMove, m)
		}
		if !b.IsEmpty(to) {
			return fmt.Errorf("%w: %s", ErrSquareOccupied, to)
		}
	case StuckRemoval:
		if m.HasFrom() || b.At(to) != p.Other() {
			return fmt.Errorf("%w: %s is not an opponent piece", ErrIllegalMove, to)
		}
	}

	var ml MoveList
	b.GenerateMoves(&ml, p, ph, last)
	if !ml.Contains(m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	return nil
}

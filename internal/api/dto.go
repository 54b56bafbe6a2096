package api

import (
	"encoding/json"
	"fmt"

	"github.com/hailam/seega/internal/board"
)

// Coord is a cell on the wire: row and column from the top-left corner.
type Coord struct {
	R int `json:"r"`
	C int `json:"c"`
}

// MoveDTO is a move on the wire. From is null for placements and removals.
type MoveDTO struct {
	From *Coord `json:"from"`
	To   Coord  `json:"to"`
}

// Phase is a board.Phase that travels as its name. Numbers are accepted
// on input too.
type Phase board.Phase

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(board.Phase(p).String())
}

func (p *Phase) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		ph, err := board.ParsePhase(name)
		if err != nil {
			return err
		}
		*p = Phase(ph)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid phase %s", b)
	}
	if n < int(board.Placement) || n > int(board.GameOver) {
		return fmt.Errorf("invalid phase %d", n)
	}
	*p = Phase(n)
	return nil
}

// GameDTO is the client's view of a game, resent with every request.
type GameDTO struct {
	GameID        string      `json:"gameId,omitempty"`
	Board         [][]*string `json:"board"`
	CurrentPlayer string      `json:"currentPlayer"`
	Phase         Phase       `json:"phase"`
	MoveIndex     int         `json:"moveIndex"`
	LastMoveA     *MoveDTO    `json:"lastMoveA,omitempty"`
	LastMoveB     *MoveDTO    `json:"lastMoveB,omitempty"`
}

// PlayerMoveRequest asks the server to apply a human move.
type PlayerMoveRequest struct {
	GameDTO
	Move     *MoveDTO `json:"move"`
	AIPlayer string   `json:"aiPlayer,omitempty"` // side played by the AI, for statistics
}

// AIMoveRequest asks the engine to choose and apply a move.
type AIMoveRequest struct {
	GameDTO
	Difficulty int `json:"difficulty"`
}

// MoveResponse is the outcome of a played move.
type MoveResponse struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
	Error          string      `json:"error,omitempty"`
	Move           *MoveDTO    `json:"move,omitempty"`
	NewBoard       [][]*string `json:"newBoard,omitempty"`
	CapturedPieces []Coord     `json:"capturedPieces"`
	CapturedCount  int         `json:"capturedCount"`
	NextPlayer     string      `json:"nextPlayer,omitempty"`
	NextPhase      *Phase      `json:"nextPhase,omitempty"`
	MoveIndex      int         `json:"moveIndex,omitempty"`
	LastMoveA      *MoveDTO    `json:"lastMoveA,omitempty"`
	LastMoveB      *MoveDTO    `json:"lastMoveB,omitempty"`
	Winner         *string     `json:"winner"`
	IsGameOver     bool        `json:"isGameOver"`

	// Set for AI moves.
	Score *int   `json:"score,omitempty"`
	Depth *int   `json:"depth,omitempty"`
	Nodes uint64 `json:"nodes,omitempty"`
}

// LegalMovesResponse lists the moves available to the side to act.
type LegalMovesResponse struct {
	Success bool      `json:"success"`
	Phase   Phase     `json:"phase"` // STUCK_REMOVAL when a stuck side must remove
	Moves   []MoveDTO `json:"moves"`
}

// NewGameResponse is a fresh game.
type NewGameResponse struct {
	GameDTO
	Success bool `json:"success"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func parseBoard(rows [][]*string) (board.Board, error) {
	var b board.Board
	if len(rows) != board.Size {
		return b, fmt.Errorf("board must have %d rows, got %d", board.Size, len(rows))
	}
	for r, row := range rows {
		if len(row) != board.Size {
			return b, fmt.Errorf("board row %d must have %d cells, got %d", r, board.Size, len(row))
		}
		for c, cell := range row {
			if cell == nil || *cell == "" {
				continue
			}
			p, err := board.ParsePlayer(*cell)
			if err != nil {
				return b, fmt.Errorf("board cell (%d,%d): %w", r, c, err)
			}
			b.Put(board.NewSquare(r, c), p)
		}
	}
	if b.Count(board.PlayerA) > board.PiecesPerPlayer || b.Count(board.PlayerB) > board.PiecesPerPlayer {
		return b, fmt.Errorf("board has more than %d pieces for a side", board.PiecesPerPlayer)
	}
	return b, nil
}

func boardDTO(b *board.Board) [][]*string {
	a, bb := board.PlayerA.String(), board.PlayerB.String()
	rows := make([][]*string, board.Size)
	for r := range rows {
		rows[r] = make([]*string, board.Size)
		for c := range rows[r] {
			switch b.At(board.NewSquare(r, c)) {
			case board.PlayerA:
				rows[r][c] = &a
			case board.PlayerB:
				rows[r][c] = &bb
			}
		}
	}
	return rows
}

func (c Coord) square() (board.Square, error) {
	sq, ok := board.SquareAt(c.R, c.C)
	if !ok {
		return board.NoSquare, fmt.Errorf("%w: (%d,%d)", board.ErrOffBoard, c.R, c.C)
	}
	return sq, nil
}

func coordOf(sq board.Square) Coord {
	return Coord{R: sq.Row(), C: sq.Col()}
}

func parseMove(m *MoveDTO) (board.Move, error) {
	if m == nil {
		return board.NoMove, fmt.Errorf("%w: move is missing", board.ErrIllegalMove)
	}
	to, err := m.To.square()
	if err != nil {
		return board.NoMove, err
	}
	if m.From == nil {
		return board.NewPlacement(to), nil
	}
	from, err := m.From.square()
	if err != nil {
		return board.NoMove, err
	}
	return board.NewStep(from, to), nil
}

// parseHint reads an untrusted last-move hint; anything unusable is dropped.
func parseHint(m *MoveDTO) board.Move {
	if m == nil || m.From == nil {
		return board.NoMove
	}
	mv, err := parseMove(m)
	if err != nil {
		return board.NoMove
	}
	return mv
}

func moveDTO(m board.Move) *MoveDTO {
	if m == board.NoMove {
		return nil
	}
	dto := &MoveDTO{To: coordOf(m.To())}
	if m.HasFrom() {
		from := coordOf(m.From())
		dto.From = &from
	}
	return dto
}

// state converts the client's game into a rules state.
func (g *GameDTO) state() (board.State, error) {
	var st board.State
	b, err := parseBoard(g.Board)
	if err != nil {
		return st, err
	}
	p, err := board.ParsePlayer(g.CurrentPlayer)
	if err != nil {
		return st, fmt.Errorf("%w: %q", board.ErrInvalidPlayer, g.CurrentPlayer)
	}
	st = board.State{
		Board:     b,
		Player:    p,
		Phase:     board.Phase(g.Phase),
		MoveIndex: g.MoveIndex,
	}
	// Placement plies are numbered by the pieces already placed.
	if st.MoveIndex <= 0 && st.Phase == board.Placement {
		st.MoveIndex = b.Count(board.PlayerA) + b.Count(board.PlayerB) + 1
	}
	st.LastMove[board.PlayerA] = parseHint(g.LastMoveA)
	st.LastMove[board.PlayerB] = parseHint(g.LastMoveB)
	return st, nil
}

// moveResponse renders the outcome of ApplyMove.
func moveResponse(res *board.Result) MoveResponse {
	next := Phase(res.NextPhase)
	resp := MoveResponse{
		Success:        true,
		Message:        "ok",
		Move:           moveDTO(res.Move),
		NewBoard:       boardDTO(&res.Board),
		CapturedPieces: make([]Coord, 0, len(res.Captured)),
		CapturedCount:  len(res.Captured),
		NextPlayer:     res.NextPlayer.String(),
		NextPhase:      &next,
		MoveIndex:      res.NextMoveIndex,
		LastMoveA:      moveDTO(res.LastMove[board.PlayerA]),
		LastMoveB:      moveDTO(res.LastMove[board.PlayerB]),
		IsGameOver:     res.GameOver,
	}
	for _, sq := range res.Captured {
		resp.CapturedPieces = append(resp.CapturedPieces, coordOf(sq))
	}
	if res.GameOver {
		w := res.Winner.String()
		resp.Winner = &w
		resp.Message = "game over"
	}
	return resp
}

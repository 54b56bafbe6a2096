package api

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"lukechampine.com/frand"

	"github.com/hailam/seega/internal/board"
	"github.com/hailam/seega/internal/engine"
	"github.com/hailam/seega/internal/session"
	"github.com/hailam/seega/internal/storage"
)

var errNoLegalMove = errors.New("no legal move")

func (s *Server) fail(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// readGame decodes dst and returns the normalized state of its game.
func (s *Server) readGame(w http.ResponseWriter, r *http.Request, dst any, game *GameDTO) (board.State, bool) {
	if err := decodeJSON(w, r, dst); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return board.State{}, false
	}
	st, err := game.state()
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid game state", err)
		return board.State{}, false
	}
	st.Normalize()
	return st, true
}

// NewGameID returns a random game id.
func NewGameID() string {
	return hex.EncodeToString(frand.Bytes(16))
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	st := board.NewGame()
	writeJSON(w, http.StatusOK, NewGameResponse{
		Success: true,
		GameDTO: GameDTO{
			GameID:        NewGameID(),
			Board:         boardDTO(&st.Board),
			CurrentPlayer: st.Player.String(),
			Phase:         Phase(st.Phase),
			MoveIndex:     st.MoveIndex,
		},
	})
}

func (s *Server) handlePlayerMove(w http.ResponseWriter, r *http.Request) {
	var req PlayerMoveRequest
	st, ok := s.readGame(w, r, &req, &req.GameDTO)
	if !ok {
		return
	}
	m, err := parseMove(req.Move)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid move", err)
		return
	}
	res, err := board.ApplyMove(st, m)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "move rejected", err)
		return
	}

	if res.GameOver {
		ai, _ := board.ParsePlayer(req.AIPlayer)
		s.recordGame(req.GameID, &res, ai, 0)
	}
	writeJSON(w, http.StatusOK, moveResponse(&res))
}

func (s *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	var req AIMoveRequest
	st, ok := s.readGame(w, r, &req, &req.GameDTO)
	if !ok {
		return
	}
	diff := engine.Difficulty(req.Difficulty)
	if diff == 0 {
		diff = engine.Medium
	}

	found, err := s.engine.ComputeBestMove(r.Context(), engine.Request{
		State:      st,
		Difficulty: diff,
		GameID:     req.GameID,
	})
	if err != nil {
		s.fail(w, http.StatusBadRequest, "cannot search this position", err)
		return
	}
	if found.Move == board.NoMove {
		s.fail(w, http.StatusBadRequest, "AI has no legal move", errNoLegalMove)
		return
	}

	res, err := board.ApplyMove(st, found.Move)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("game", req.GameID).
			Stringer("move", found.Move).
			Str("position", st.Board.Layout()).
			Msg("engine chose an illegal move")
		s.fail(w, http.StatusInternalServerError, "engine error", err)
		return
	}

	if res.GameOver {
		s.recordGame(req.GameID, &res, st.Player, int(diff))
	}
	resp := moveResponse(&res)
	resp.Score = &found.Score
	resp.Depth = &found.Depth
	resp.Nodes = found.Nodes
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	var req GameDTO
	st, ok := s.readGame(w, r, &req, &req)
	if !ok {
		return
	}
	moves := st.Board.LegalMoves(st.Player, st.Phase, st.LastMove[board.PlayerA], st.LastMove[board.PlayerB])
	resp := LegalMovesResponse{
		Success: true,
		Phase:   Phase(st.Phase),
		Moves:   make([]MoveDTO, 0, len(moves)),
	}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, *moveDTO(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	Success      bool               `json:"success"`
	Games        *storage.GameStats `json:"games,omitempty"`
	AIWinRate    float64            `json:"aiWinRate"`
	AveragePlies float64            `json:"averagePlies"`
	Sessions     *session.Stats     `json:"sessions,omitempty"`
	SavedTables  int                `json:"savedTables"`
	SavedSize    string             `json:"savedSize"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Success: true, SavedSize: humanize.Bytes(0)}
	if s.tables != nil {
		st := s.tables.Stats()
		resp.Sessions = &st
	}
	if s.stats != nil {
		games, err := s.stats.LoadStats()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, "loading statistics failed", err)
			return
		}
		resp.Games = games
		resp.AIWinRate = games.AIWinRate()
		resp.AveragePlies = games.AveragePlies()

		n, size, err := s.stats.TableCount()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, "counting tables failed", err)
			return
		}
		resp.SavedTables = n
		resp.SavedSize = humanize.Bytes(uint64(size))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	evicted := s.tables != nil && s.tables.Evict(id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "evicted": evicted})
}

func (s *Server) recordGame(gameID string, res *board.Result, ai board.Player, difficulty int) {
	s.hub.Publish(gameID, "gameOver", map[string]string{"winner": res.Winner.String()})
	if s.stats == nil {
		return
	}
	err := s.stats.RecordGame(storage.GameResult{
		Winner:     res.Winner,
		AIPlayer:   ai,
		Difficulty: difficulty,
		Plies:      res.NextMoveIndex - 1,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("game", gameID).Msg("recording game failed")
	}
}

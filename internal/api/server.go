// Package api is the HTTP boundary of the Seega service: JSON handlers for
// playing moves and asking the engine, plus a websocket search stream.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hailam/seega/internal/engine"
	"github.com/hailam/seega/internal/session"
	"github.com/hailam/seega/internal/storage"
)

// maxBodyBytes bounds request bodies; a full game state is well below it.
const maxBodyBytes = 64 << 10

// Tables is the per-game table cache the server drives.
type Tables interface {
	engine.TableSource
	Evict(gameID string) bool
	Stats() session.Stats
}

// StatsStore records finished games. It may be nil.
type StatsStore interface {
	RecordGame(storage.GameResult) error
	LoadStats() (*storage.GameStats, error)
	TableCount() (int, int64, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	engine *engine.Engine
	tables Tables
	stats  StatsStore
	hub    *Hub
	log    zerolog.Logger
}

// NewServer wires the engine's progress callback to the websocket hub.
// tables and stats may be nil.
func NewServer(eng *engine.Engine, tables Tables, stats StatsStore, log zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		tables: tables,
		stats:  stats,
		hub:    NewHub(log),
		log:    log,
	}
	eng.OnInfo = s.hub.SearchInfo
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/player-move", s.handlePlayerMove)
		r.Post("/ai-move", s.handleAIMove)
		r.Post("/legal-moves", s.handleLegalMoves)
		r.Delete("/{id}/cache", s.handleEvict)
	})
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/ws", s.hub.ServeWS)
	return r
}

// requestLogger logs one line per request with zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

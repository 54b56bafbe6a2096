package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hailam/seega/internal/engine"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsSendBuffer       = 16
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SearchProgress is sent once per completed search iteration.
type SearchProgress struct {
	GameID   string    `json:"gameId"`
	Depth    int       `json:"depth"`
	Score    int       `json:"score"`
	Nodes    uint64    `json:"nodes"`
	TimeMs   int64     `json:"timeMs"`
	HashFull int       `json:"hashFull"`
	BestMove *MoveDTO  `json:"bestMove,omitempty"`
	PV       []MoveDTO `json:"pv"`
}

// Hub fans search progress out to the websocket clients watching a game.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]struct{}
	log     zerolog.Logger
}

type client struct {
	game string
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.game]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.game] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.game]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.game)
		}
	}
	h.mu.Unlock()
}

// Watchers returns the number of clients following gameID.
func (h *Hub) Watchers(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[gameID])
}

// Publish sends msg to every client of gameID. Slow clients drop messages.
func (h *Hub) Publish(gameID, typ string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[gameID]
	if len(set) == 0 {
		return
	}
	data, err := json.Marshal(wsMessage{Type: typ, Payload: mustMarshal(payload)})
	if err != nil {
		h.log.Error().Err(err).Msg("encoding websocket message failed")
		return
	}
	for c := range set {
		select {
		case c.send <- data:
		default:
		}
	}
}

// SearchInfo is an engine.Engine OnInfo callback.
func (h *Hub) SearchInfo(info engine.SearchInfo) {
	if info.GameID == "" {
		return
	}
	p := SearchProgress{
		GameID:   info.GameID,
		Depth:    info.Depth,
		Score:    info.Score,
		Nodes:    info.Nodes,
		TimeMs:   info.Time.Milliseconds(),
		HashFull: info.HashFull,
		PV:       make([]MoveDTO, 0, len(info.PV)),
	}
	for _, m := range info.PV {
		if dto := moveDTO(m); dto != nil {
			p.PV = append(p.PV, *dto)
		}
	}
	if len(p.PV) > 0 {
		p.BestMove = &p.PV[0]
	}
	h.Publish(info.GameID, "search", p)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ServeWS upgrades r and streams the game named by the "game" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	game := r.URL.Query().Get("game")
	if game == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "game query parameter is required"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{game: game, send: make(chan []byte, wsSendBuffer)}
	h.register(c)
	c.send <- mustMarshal(wsMessage{Type: "subscribed", Payload: mustMarshal(map[string]string{"gameId": game})})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			h.log.Debug().Err(err).Str("game", game).Msg("websocket write failed")
		}
	}()

	// Reads only detect the close; clients have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

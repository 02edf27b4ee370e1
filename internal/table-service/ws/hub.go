package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

const (
	sendBuffer   = 64
	readTimeout  = 120 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Tables resolve uma mesa hospedada neste processo
type Tables interface {
	Get(id string) (*table.Table, error)
}

// client é uma conexão inscrita em uma mesa; a escrita passa sempre pelo canal send
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	tableID  string
	playerID string
}

// Hub gerencia conexões WebSocket por mesa
// subs: mapeia tableID para o conjunto de clientes conectados
type Hub struct {
	upgrader websocket.Upgrader
	tables   Tables
	validate *validator.Validate
	metrics  *metrics.TableMetrics
	log      *zap.Logger
	// relay: não hospeda mesas, só repassa eventos (EDGE_MODE)
	relay bool

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(tables Tables, m *metrics.TableMetrics, log *zap.Logger, relay bool, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		tables:   tables,
		validate: validator.New(),
		metrics:  m,
		log:      log,
		relay:    relay,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS atende /ws/tables/{id}?playerId=...; sem playerId a conexão é de espectador
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	if !h.relay {
		if _, err := h.tables.Get(tableID); err != nil {
			p, status := dto.ErrorCode(err)
			http.Error(w, p.Msg, status)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		tableID:  tableID,
		playerID: r.URL.Query().Get("playerId"),
	}
	h.add(c)
	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	if _, ok := h.subs[c.tableID]; !ok {
		h.subs[c.tableID] = make(map[*client]struct{})
	}
	h.subs[c.tableID][c] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSConnections.Inc()
}

// remove fecha o canal de envio uma única vez; o writePump encerra a conexão
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	set, ok := h.subs[c.tableID]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			h.metrics.WSConnections.Dec()
		}
		if len(set) == 0 {
			delete(h.subs, c.tableID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, ServerMsg{Type: "error", Error: &dto.ErrPayload{Code: dto.CodeValidation, Msg: "invalid json"}})
			continue
		}
		h.reply(c, h.handle(context.WithoutCancel(ctx), c, msg))
	}
}

func (h *Hub) handle(ctx context.Context, c *client, msg ClientMsg) ServerMsg {
	if err := h.validate.Struct(msg); err != nil {
		return errorMsg(msg.ReqID, err)
	}
	if msg.Type == "ping" {
		return ServerMsg{Type: "pong", ReqID: msg.ReqID}
	}

	t, err := h.tables.Get(c.tableID)
	if err != nil {
		return errorMsg(msg.ReqID, err)
	}

	var data any
	switch msg.Type {
	case "state":
		data, err = t.State(ctx, c.playerID)
	case "place_bets":
		if c.playerID == "" {
			return errorMsg(msg.ReqID, errSpectator)
		}
		data, err = t.PlaceBets(ctx, c.playerID, msg.Bets)
	case "clear_bets":
		if c.playerID == "" {
			return errorMsg(msg.ReqID, errSpectator)
		}
		data, err = t.ClearBets(ctx, c.playerID)
	case "ask_road":
		data, err = t.AskRoad(msg.Outcome)
	}
	if err != nil {
		p, status := dto.ErrorCode(err)
		if status == http.StatusInternalServerError {
			h.log.Error("ws request failed", zap.String("table_id", c.tableID), zap.String("type", msg.Type), zap.Error(err))
		}
		return ServerMsg{Type: "error", ReqID: msg.ReqID, Error: &p}
	}
	return ServerMsg{Type: "reply", ReqID: msg.ReqID, Data: data}
}

var errSpectator = &game.ValidationError{Field: "playerId", Reason: "required to bet"}

func errorMsg(reqID string, err error) ServerMsg {
	p, _ := dto.ErrorCode(err)
	return ServerMsg{Type: "error", ReqID: reqID, Error: &p}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) reply(c *client, msg ServerMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("ws reply encode", zap.Error(err))
		return
	}
	h.enqueue(c, b)
}

// enqueue nunca bloqueia: cliente lento perde mensagens em vez de travar a mesa
func (h *Hub) enqueue(c *client, b []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.subs[c.tableID][c]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
		h.log.Debug("ws client too slow, dropping message", zap.String("table_id", c.tableID))
	}
}

// Broadcast envia o evento aos clientes da mesa. Eventos com PlayerID vão só
// para as conexões daquele jogador.
func (h *Hub) Broadcast(env events.Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("ws broadcast encode", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[env.TableID] {
		if env.PlayerID != "" && env.PlayerID != c.playerID {
			continue
		}
		select {
		case c.send <- b:
		default:
		}
	}
}

// Count devolve o número de conexões abertas na mesa
func (h *Hub) Count(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tableID])
}

// Package bot é um jogador automático: entra numa mesa pelo WebSocket e aposta
// a cada janela de apostas. Usado para carga e para manter mesas de demo vivas.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/internal/table-service/ws"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

const reqState = "state"

// frame cobre tanto respostas (reply/error/pong) quanto envelopes de evento
type frame struct {
	Type    string          `json:"type"`
	ReqID   string          `json:"reqId"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrPayload `json:"error"`
	Payload json.RawMessage `json:"payload"`
}

// Bot conecta em URL (ex: ws://host/ws/tables/bac-1?playerId=bot-1)
type Bot struct {
	URL       string
	Log       *zap.Logger
	Stake     int64
	Rand      *rand.Rand    // opcional
	Reconnect time.Duration // espera entre reconexões

	OnAccepted func()
	OnRejected func(code string)

	variant game.Variant
	seq     int
}

// Start mantém a conexão até o cancelamento, reconectando com espera fixa
func (b *Bot) Start(ctx context.Context) {
	wait := b.Reconnect
	if wait <= 0 {
		wait = 3 * time.Second
	}
	for {
		if err := b.play(ctx); err != nil {
			b.Log.Warn("connection closed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			b.Log.Info("context canceled, stopping bot")
			return
		case <-time.After(wait):
		}
	}
}

func (b *Bot) play(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	b.Log.Info("connected to table", zap.String("url", b.URL))

	// fecha a conexão no cancelamento para destravar o ReadMessage
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(ws.ClientMsg{Type: "state", ReqID: reqState}); err != nil {
		return err
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			b.Log.Warn("invalid frame", zap.Error(err))
			continue
		}
		if err := b.handle(conn, f); err != nil {
			return err
		}
	}
}

func (b *Bot) handle(conn *websocket.Conn, f frame) error {
	switch f.Type {
	case "reply":
		if f.ReqID == reqState {
			var st table.State
			if err := json.Unmarshal(f.Data, &st); err != nil {
				return fmt.Errorf("decode state: %w", err)
			}
			b.variant = st.Variant
			if st.Phase == table.PhaseBetting {
				return b.bet(conn)
			}
			return nil
		}
		if strings.HasPrefix(f.ReqID, "bet-") && b.OnAccepted != nil {
			b.OnAccepted()
		}
	case "error":
		code := ""
		if f.Error != nil {
			code = f.Error.Code
		}
		if f.ReqID == reqState {
			return errors.New("state request failed: " + code)
		}
		b.Log.Debug("bet rejected", zap.String("code", code))
		if b.OnRejected != nil {
			b.OnRejected(code)
		}
	case events.TypePhaseChanged:
		var ev events.PhaseChanged
		if err := json.Unmarshal(f.Payload, &ev); err != nil {
			return nil
		}
		if ev.Phase == string(table.PhaseBetting) {
			return b.bet(conn)
		}
	}
	return nil
}

// bet escolhe um tipo de aposta da variante ao acaso
func (b *Bot) bet(conn *websocket.Conn) error {
	types := b.variant.BetTypes()
	if len(types) == 0 {
		return nil
	}
	r := b.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		b.Rand = r
	}
	b.seq++
	return conn.WriteJSON(ws.ClientMsg{
		Type:  "place_bets",
		ReqID: fmt.Sprintf("bet-%d", b.seq),
		Bets:  []ledger.Bet{{BetType: types[r.IntN(len(types))], Amount: b.Stake}},
	})
}

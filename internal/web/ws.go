package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jaminalder/codex-five-in-a-row/internal/app"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ws streams the game as JSON: once on connect, then after every change.
// Incoming messages are read only to notice the peer going away.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		h.log.Debug("websocket upgrade failed", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.log.With(zap.String("game_id", id))
	log.Debug("websocket opened")
	defer log.Debug("websocket closed")

	send := func(gs *app.GameState) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(gs)
	}
	if err := send(gs); err != nil {
		return
	}
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case _, ok := <-ch:
			if !ok {
				return
			}
			gs, ok := h.svc.Get(id)
			if !ok {
				return
			}
			if err := send(gs); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

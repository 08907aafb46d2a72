package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

func (a *API) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || a.opts.AllowedOrigin == "*" || strings.EqualFold(origin, a.opts.AllowedOrigin)
		},
	}
}

// handleEvents streams storage change notifications as JSON text frames.
// Browsers cannot set headers on a websocket handshake, so the access token
// is taken from the token query parameter.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	if a.opts.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("change stream is not enabled"))
		return
	}
	actor, err := a.auth.ParseToken(strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	up := a.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("events: websocket upgrade failed")
		return
	}
	defer conn.Close()

	changes, unsubscribe := a.opts.Hub.Subscribe(32)
	defer unsubscribe()
	log.Debug().Str("user", actor.Username).Msg("events: client connected")

	// The read loop only services control frames; it ends when the client
	// goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(change); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

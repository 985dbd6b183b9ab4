package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream upgrades to a WebSocket and pushes frames to the client, at
// most streamRate per second. Frames beyond the rate are skipped.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("stream upgrade from %s failed: %v", c.ClientIP(), err)
		return
	}
	defer conn.Close()

	id, frames := s.state.Subscribe()
	defer s.state.Unsubscribe(id)

	s.metrics.streamClients.Inc()
	defer s.metrics.streamClients.Dec()

	remote := c.ClientIP()
	s.log.Info("stream client %d connected from %s", id, remote)
	defer func() {
		s.log.Info("stream client %d disconnected (%d frames dropped)", id, s.state.Dropped(id))
	}()

	// The read side only handles control frames and notices disconnects.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	limiter := rate.NewLimiter(s.streamRate, 1)
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case fs, ok := <-frames:
			if !ok {
				return
			}
			if !limiter.Allow() {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s.placeFrame(fs)); err != nil {
				s.log.Debug("stream client %d write failed: %v", id, err)
				return
			}
		}
	}
}

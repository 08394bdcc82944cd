package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

const (
	streamWriteWait    = 5 * time.Second
	streamPongWait     = 60 * time.Second
	streamPingInterval = (streamPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamState pushes every published snapshot to a websocket client, starting
// with the current one. Snapshots are sent in version order; a slow client
// skips intermediate versions.
func streamState(store *state.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		updates, cancel := store.Subscribe()
		defer cancel()

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).Warn("State stream upgrade failed")
			return
		}
		defer conn.Close()

		log := logger.WithField("remote", conn.RemoteAddr().String())
		log.Debug("State stream opened")

		// The read loop only serves control frames and notices the client leaving.
		closed := make(chan struct{})
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(streamPingInterval)
		defer ping.Stop()

		var sent uint64
		send := func(snap models.PublishedState) bool {
			if sent != 0 && snap.Version <= sent {
				return true
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				log.WithError(err).Debug("State stream write failed")
				return false
			}
			sent = snap.Version
			return true
		}

		if !send(store.Load()) {
			return
		}
		for {
			select {
			case <-closed:
				log.Debug("State stream closed by client")
				return
			case snap, ok := <-updates:
				if !ok || !send(snap) {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/fanout"
	"github.com/beacon-dev/beacon/internal/status"
	"github.com/beacon-dev/beacon/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocket subscribes the connection to one organization's status channel.
// Subscription is implicit: connecting is the whole protocol. Each event the
// hub delivers is written in order; if this subscriber falls too far behind,
// the hub closes its channel and the connection is reset so the client
// reconnects and re-fetches the snapshot.
func WebSocket(c *gin.Context) {
	orgID, err := resolveOrgID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Organization could not be determined"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sub := fanout.Subscribe(orgID)

	defer func() {
		fanout.Unsubscribe(sub)
		conn.Close()
		log.Printf("WebSocket connection %s closed for organization %d", sub.ID, orgID)
	}()

	// Set up connection parameters
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	// Welcome message, then the current snapshot so the subscriber never
	// starts from stale state.
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":            "connected",
		"message":         "WebSocket connection established",
		"organization_id": orgID,
	}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	if snapshot, err := status.BuildSnapshot(db.DB, orgID); err == nil {
		initial := types.Event{
			Type:           types.EventStatusUpdate,
			Version:        types.EventSchemaVersion,
			OrganizationID: orgID,
			Snapshot:       snapshot,
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(initial); err != nil {
			log.Printf("Failed to send initial snapshot: %v", err)
			return
		}
	}

	// Reader goroutine: consume pongs and detect the client going away.
	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}

			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error for organization %d: %v", orgID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				// Dropped by the hub as a slow subscriber.
				return
			}

			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Failed to deliver event to subscriber %s: %v", sub.ID, err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/umeet/watchparty/internal/models"
	"github.com/umeet/watchparty/internal/watch"
)

const (
	// pingInterval and pongWait are the heartbeat timings in seconds.
	pingInterval = 30
	pongWait     = 60

	writeWait     = 10 * time.Second
	maxMessageLen = 65536
	sendBuffer    = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// IdentityValidator resolves a connect token to an identity.
type IdentityValidator func(token string) (models.Identity, error)

// Client is a single WebSocket connection with a bound identity. It belongs
// exclusively to the Hub; room sessions reference it only by ID.
type Client struct {
	ID       string
	Identity models.Identity
	// RoomID is the room this connection has joined, "" when none. Only
	// touched from readPump, so no lock is needed.
	RoomID string

	hub    *Hub
	coord  *watch.Coordinator
	conn   *websocket.Conn
	send   chan WSMessage
	logger *zap.Logger
}

// ServeWs upgrades the request, binds the identity carried by the connect
// token and runs the client loop. The token travels in the query string
// because browsers cannot set headers on WebSocket requests.
func ServeWs(hub *Hub, coord *watch.Coordinator, validate IdentityValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		identity, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			Identity: identity,
			hub:      hub,
			coord:    coord,
			conn:     conn,
			send:     make(chan WSMessage, sendBuffer),
			logger:   logger,
		}
		hub.Register(client)
		hub.SendTo(client.ID, watch.EventConnectSuccess, connectSuccessPayload{ConnectionID: client.ID})

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.RoomID != "" {
			c.coord.Disconnect(c.RoomID, c.Identity.UserID, c.ID)
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageLen)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait * time.Second))
		c.dispatch(msg)
	}
}

// dispatch handles one inbound event. Every failure is recovered here and
// surfaced only to this connection as an error event; nothing crosses over
// to other rooms or members.
func (c *Client) dispatch(msg WSMessage) {
	switch msg.Event {
	case evJoinRoom:
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.RoomID == "" {
			c.sendError(watch.ErrMalformedEvent)
			return
		}
		if err := c.coord.Join(context.Background(), p.RoomID, c.Identity, c.ID); err != nil {
			c.logger.Warn("join failed",
				zap.String("room_id", p.RoomID),
				zap.String("user_id", c.Identity.UserID),
				zap.Error(err),
			)
			c.sendError(err)
			return
		}
		c.RoomID = p.RoomID

	case evLeaveRoom:
		var p leaveRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.RoomID == "" {
			c.sendError(watch.ErrMalformedEvent)
			return
		}
		c.coord.Leave(p.RoomID, c.Identity.UserID, c.ID)
		if c.RoomID == p.RoomID {
			c.RoomID = ""
		}

	case evChatMessage:
		var p chatMessagePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.RoomID == "" || p.Message.Text == "" {
			c.sendError(watch.ErrMalformedEvent)
			return
		}
		if p.Message.ID == "" {
			p.Message.ID = uuid.New().String()
		}
		c.coord.Relay(p.RoomID, c.Identity, p.Message)

	case evVideoStateChange:
		var p videoStateChangePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.RoomID == "" {
			c.sendError(watch.ErrMalformedEvent)
			return
		}
		if _, err := c.coord.ApplyStateChange(p.RoomID, c.Identity.UserID, p.StateChange); err != nil {
			c.sendError(err)
		}

	default:
		// unknown events are ignored
	}
}

func (c *Client) sendError(err error) {
	c.hub.SendTo(c.ID, watch.EventError, watch.ErrorEvent{Message: errorMessage(err)})
}

// errorMessage maps the error taxonomy to the client-facing message. Anything
// outside the taxonomy is reported generically.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, watch.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, watch.ErrNotAuthorized):
		return "Only the host can control playback"
	case errors.Is(err, watch.ErrAuthRequired):
		return "Authentication required"
	case errors.Is(err, watch.ErrMalformedEvent):
		return "Malformed event"
	default:
		return "Operation failed"
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	// writeWait is how long a single socket write may take.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before dropping the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds an inbound frame.
	maxMessageSize = 1 << 20

	// sendBuffer is the per-client outbound queue. A client that falls
	// this far behind starts losing events rather than blocking the room.
	sendBuffer = 256
)

// Client is one websocket connection owned by an authenticated user. The
// read loop runs on the connection's handler goroutine; the write loop runs
// on its own goroutine and is the only writer to the socket.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
}

// NewClient wraps an upgraded connection for the given user.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue hands a marshaled event to the client's write loop without
// blocking the hub. The hub only calls this while holding its mutex, so
// once Leave has run the channel can be closed without racing a send.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		// Backpressured client. Delivery is best effort; drop.
	}
}

// readPump consumes events from the peer until the connection errors or
// closes, then releases every room membership before tearing down.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: client %s read error: %v", c.id, err)
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			// Malformed frames do not end the session.
			continue
		}

		switch event.Event {
		case EventJoinDocument:
			c.hub.Join(c, uint64(event.DocumentID))
		case EventEditDocument:
			c.hub.BroadcastEdit(c, uint64(event.DocumentID), event.Content)
		default:
			// Unknown event names are ignored.
		}
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

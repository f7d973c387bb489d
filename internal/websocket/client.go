package websocket

import (
	"encoding/json"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Command is what a client may send: {"action":"subscribe","topic":"post:<id>"}.
type Command struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub    *Hub
	UserID string
	Conn   *ws.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// Owned by the hub goroutine.
	topics map[string]bool

	log zerolog.Logger
}

// NewClient prepares a client for registration with hub.
func NewClient(hub *Hub, userID string, conn *ws.Conn) *Client {
	return &Client{
		Hub:    hub,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		topics: make(map[string]bool),
		log:    hub.log.With().Str("user", userID).Logger(),
	}
}

// ReadPump reads subscription commands until the connection drops, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.log.Debug().Err(err).Msg("ignoring malformed command")
		return
	}
	switch cmd.Action {
	case "subscribe":
		if !c.Hub.Subscribe(c, cmd.Topic) {
			c.log.Debug().Str("topic", cmd.Topic).Msg("subscription refused")
		}
	case "unsubscribe":
		c.Hub.Unsubscribe(c, cmd.Topic)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				c.log.Debug().Err(err).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				c.log.Debug().Err(err).Msg("websocket ping error")
				return
			}
		}
	}
}

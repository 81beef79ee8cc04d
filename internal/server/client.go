package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one live socket. It holds at most one room membership, tracked
// by the server's Registry rather than on the client itself.
type Client struct {
	id          string
	conn        *websocket.Conn
	server      *CollabServer
	log         *log.Logger
	displayName string
	send        chan *ServerMessage
	stop        chan struct{}
}

func NewClient(conn *websocket.Conn, cs *CollabServer, l *log.Logger) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		server: cs,
		log:    l,
		send:   make(chan *ServerMessage, 256),
		stop:   make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c

		select {
		case c.server.eventChan <- &msg:
		default:
			c.log.Println("event channel full, dropping message")
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	}
}

// queueMessage is send-and-forget: if the client's send buffer is full the
// message is skipped rather than blocking the relay.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for connection %s, dropping message", c.id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	close(c.stop)
}

func (c *Client) cleanup() {
	c.server.deregisterChan <- c
	c.stopClient()
}

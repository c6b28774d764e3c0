package messaging

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
)

// Client is a single connected dashboard websocket.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient wraps an upgraded connection with a buffered send queue.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{Conn: conn, Send: make(chan []byte, 64)}
}

// WritePump drains the send queue onto the wire until the queue closes or a
// write fails. Runs as its own goroutine, one per client.
func (c *Client) WritePump() {
	defer c.Conn.Close()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// EventBroadcaster fans engine events out to every connected dashboard
// client. Slow clients drop events instead of backpressuring the engine.
type EventBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan Event
	logger     *logging.ChanneledLogger
}

// NewEventBroadcaster creates an idle broadcaster. Run must be started for
// registration and delivery to proceed.
func NewEventBroadcaster(logger *logging.ChanneledLogger) *EventBroadcaster {
	return &EventBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Event, 256),
		logger:     logger,
	}
}

// Run is the broadcaster's main loop. Start it as a goroutine; it exits when
// ctx is cancelled, closing every client queue.
func (b *EventBroadcaster) Run(ctx context.Context) {
	for {
		select {
		case client := <-b.register:
			b.clients[client] = true
			b.logger.Dashboard().Debug("Feed client registered", "clients", len(b.clients))

		case client := <-b.unregister:
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.logger.Dashboard().Debug("Feed client unregistered", "clients", len(b.clients))

		case event := <-b.events:
			message, err := json.Marshal(event)
			if err != nil {
				b.logger.Dashboard().Error("Event marshal failed", "kind", event.Kind, "error", err.Error())
				continue
			}
			for client := range b.clients {
				select {
				case client.Send <- message:
				default:
				}
			}

		case <-ctx.Done():
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Send)
			}
			return
		}
	}
}

// Register queues a client for registration.
func (b *EventBroadcaster) Register(client *Client) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *EventBroadcaster) Unregister(client *Client) {
	b.unregister <- client
}

// Publish queues an event for delivery, dropping it when the loop is behind.
func (b *EventBroadcaster) Publish(event Event) {
	select {
	case b.events <- event:
	default:
	}
}

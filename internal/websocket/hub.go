package websocket

import (
	"context"
	"sync"

	"resume-ai-helper-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Hub fans chat state-change payloads out to every connected presentation
// client. State flows one way: the chat service publishes snapshots on the
// in-process bus, the hub forwards them; clients never mutate state here.
type Hub struct {
	// Registered clients by connection id
	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.Id]; ok {
				delete(h.clients, client.Id)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a state payload to ALL connected clients.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": client.Id})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// ConsumeStateChanges subscribes the hub to the chat state topic and forwards
// every payload to connected clients. Runs until ctx is done.
func (h *Hub) ConsumeStateChanges(ctx context.Context, pubSub *gochannel.GoChannel, topicName string) error {
	messages, err := pubSub.Subscribe(ctx, topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			h.forwardState(msg)
		}
	}()

	return nil
}

func (h *Hub) forwardState(msg *message.Message) {
	h.Broadcast(msg.Payload)
	msg.Ack()
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisChannel is the pub/sub channel used to fan lifecycle frames out to
// the other instances behind the load balancer.
const redisChannel = "response_lifecycle_events"

// LifecycleUpdate is the frame pushed to connected dashboards. Polling stays
// the source of truth; these frames only tell the UI when to refresh.
type LifecycleUpdate struct {
	Type        string    `json:"type"`
	CallId      string    `json:"call_id"`
	InterviewId string    `json:"interview_id"`
	State       string    `json:"lifecycle_state"`
	At          time.Time `json:"at"`
}

type Hub struct {
	// Connected operators: OperatorID -> connections (multi-tab)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil in single-instance mode
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OperatorID] = append(h.clients[client.OperatorID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Operator connected", map[string]interface{}{"operator_id": client.OperatorID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.OperatorID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.OperatorID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.OperatorID]) == 0 {
					delete(h.clients, client.OperatorID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyLifecycle implements the lifecycle notifier used by the analytics
// orchestrator: one frame to every connected dashboard, locally and via
// redis to the other instances.
func (h *Hub) NotifyLifecycle(callId string, interviewId string, state entity.LifecycleState) {
	h.Broadcast(LifecycleUpdate{
		Type:        "lifecycle_update",
		CallId:      callId,
		InterviewId: interviewId,
		State:       string(state),
		At:          time.Now(),
	})
}

func (h *Hub) Broadcast(update LifecycleUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("Hub", "frame marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	// With redis wired up, the local delivery happens through our own
	// subscription so every instance (this one included) handles the frame
	// exactly once.
	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
			h.logger.Warn("Hub", "redis fan-out failed, delivering locally only", map[string]interface{}{"error": err.Error()})
			h.sendLocal(data)
		}
		return
	}

	h.sendLocal(data)
}

func (h *Hub) sendLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Slow consumer: drop the connection rather than block the hub.
				h.logger.Warn("Hub", "send buffer full, dropping connection", map[string]interface{}{"operator_id": client.OperatorID})
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.sendLocal([]byte(msg.Payload))
	}
}

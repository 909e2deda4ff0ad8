// FILE: internal/service/notification_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/websocket"
	"ai-interview-be/pkg/events"
	pktNats "ai-interview-be/pkg/nats"
)

// DashboardDelivery defines how lifecycle frames reach connected operators.
// Implemented by the WebSocket hub.
type DashboardDelivery interface {
	Broadcast(update websocket.LifecycleUpdate)
}

// NotificationService bridges the domain event stream onto operator
// dashboards. Exactly one instance in the cluster consumes each event (the
// durable consumer acts as a queue group); the hub's redis fan-out takes
// care of the other instances.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   DashboardDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery DashboardDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "dashboard-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start dashboard event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Dashboard event subscriber started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", event.EventType()), map[string]interface{}{"type": event.EventType()})

	var state string
	switch event.EventType() {
	case events.TypeResponseRegistered:
		state = "created"
	case events.TypeResponseFailed:
		state = "failed"
	case events.TypeResponseAnalysed, events.TypeAnalysisFailed:
		// Analysed frames are pushed by the orchestrator directly; analysis
		// failures stay off candidate-reachable channels.
		return nil
	default:
		return nil
	}

	if s.delivery == nil {
		return nil
	}

	payload := event.Payload()
	callId, _ := payload["call_id"].(string)
	interviewId, _ := payload["interview_id"].(string)
	if callId == "" {
		s.logger.Warn("NotificationService", "event without call_id, skipping", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	s.delivery.Broadcast(websocket.LifecycleUpdate{
		Type:        "lifecycle_update",
		CallId:      callId,
		InterviewId: interviewId,
		State:       state,
		At:          time.Now(),
	})
	return nil
}

// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/faults"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains analysis jobs off the in-process bus and runs the
// orchestrator away from the webhook thread. Transient failures are Nacked
// for redelivery; permanent ones are Acked so a poison job never loops.
type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	analyticsService IAnalyticsService
	logger           logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	analyticsService IAnalyticsService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		analyticsService: analyticsService,
		logger:           log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.AnalysisJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("ConsumerService", "malformed analysis job", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // never retry a payload that cannot parse
		return
	}

	cs.logger.Info("ConsumerService", "running analysis", map[string]interface{}{
		"call_id": job.CallId,
	})

	_, err := cs.analyticsService.Analyse(ctx, job.CallId)
	if err == nil {
		msg.Ack()
		return
	}

	if faults.IsKind(err, faults.KindTransient) {
		cs.logger.Warn("ConsumerService", "analysis failed transiently, will retry", map[string]interface{}{
			"call_id": job.CallId,
			"code":    faults.CodeOf(err),
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	// Permanent, unauthorized, not-found: retrying the same job cannot
	// succeed. Surface for operators and drop it.
	cs.logger.Error("ConsumerService", "analysis failed permanently", map[string]interface{}{
		"call_id": job.CallId,
		"code":    faults.CodeOf(err),
		"error":   err.Error(),
	})
	msg.Ack()
}

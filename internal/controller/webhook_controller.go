package controller

import (
	"encoding/json"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/internal/service"
	"ai-interview-be/pkg/callprovider"

	"github.com/gofiber/fiber/v2"
)

// signatureHeader carries the provider's HMAC over the raw request body.
const signatureHeader = "X-Signature"

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	HandleCallEvent(ctx *fiber.Ctx) error
}

type webhookController struct {
	responseService  service.IResponseService
	publisherService service.IPublisherService
	callProvider     callprovider.Provider
	logger           logger.ILogger
}

func NewWebhookController(
	responseService service.IResponseService,
	publisherService service.IPublisherService,
	callProvider callprovider.Provider,
	log logger.ILogger,
) IWebhookController {
	return &webhookController{
		responseService:  responseService,
		publisherService: publisherService,
		callProvider:     callProvider,
		logger:           log,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhook")
	h.Post("/call-events", c.HandleCallEvent)
}

// HandleCallEvent ingests signed provider events. The signature is checked
// over the RAW body before anything is parsed; a bad signature changes no
// state and discloses nothing beyond "unauthorized". Heavy work (scoring)
// is handed to the async consumer so the provider gets a sub-second ACK.
func (c *webhookController) HandleCallEvent(ctx *fiber.Ctx) error {
	body := ctx.Body()

	if !c.callProvider.VerifySignature(body, ctx.Get(signatureHeader)) {
		c.logger.Warn("WebhookController", "webhook signature rejected", nil)
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "unauthorized"))
	}

	var envelope dto.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed event payload")
	}

	// call_id is required only for recognized events: unknown event shapes
	// carry whatever payload the provider likes and still get a 200.
	switch envelope.Event {
	case "call_started":
		if envelope.Call.CallId == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing call_id")
		}
		if err := c.responseService.CallStarted(ctx.Context(), envelope.Call.CallId); err != nil {
			return err
		}

	case "call_ended":
		if envelope.Call.CallId == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing call_id")
		}
		if err := c.responseService.CallEnded(ctx.Context(), &envelope.Call); err != nil {
			return err
		}
		if err := c.enqueueAnalysis(ctx, envelope.Call.CallId); err != nil {
			return err
		}

	case "call_analyzed":
		if envelope.Call.CallId == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing call_id")
		}
		if err := c.enqueueAnalysis(ctx, envelope.Call.CallId); err != nil {
			return err
		}

	default:
		// Unknown events are acknowledged, never errored: the provider must
		// not retry forever for events this system doesn't care about.
		c.logger.Debug("WebhookController", "ignoring unknown event type", map[string]interface{}{
			"event": envelope.Event,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{"event": envelope.Event}))
}

func (c *webhookController) enqueueAnalysis(ctx *fiber.Ctx, callId string) error {
	job, err := json.Marshal(dto.AnalysisJob{CallId: callId})
	if err != nil {
		return err
	}
	return c.publisherService.Publish(ctx.Context(), job)
}

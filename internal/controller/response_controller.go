package controller

import (
	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/internal/service"
	"ai-interview-be/pkg/faults"

	"github.com/gofiber/fiber/v2"
)

type IResponseController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	TabSwitch(ctx *fiber.Ctx) error
	SetDisposition(ctx *fiber.Ctx) error
}

type responseController struct {
	responseService  service.IResponseService
	analyticsService service.IAnalyticsService
	logger           logger.ILogger
}

func NewResponseController(
	responseService service.IResponseService,
	analyticsService service.IAnalyticsService,
	log logger.ILogger,
) IResponseController {
	return &responseController{
		responseService:  responseService,
		analyticsService: analyticsService,
		logger:           log,
	}
}

func (c *responseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/responses")
	h.Post("/register", c.Register)
	h.Get("/:call_id", c.Show)
	h.Post("/:call_id/tab-switch", c.TabSwitch)
	h.Patch("/:call_id/disposition", c.SetDisposition)
}

func (c *responseController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterResponseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.responseService.RegisterAttempt(ctx.Context(), &req)
	if err != nil {
		switch faults.CodeOf(err) {
		case service.ReasonAlreadyResponded:
			return ctx.Status(fiber.StatusConflict).JSON(
				serverutils.ReasonResponse(fiber.StatusConflict, service.ReasonAlreadyResponded, "You have already responded to this interview"))
		case service.ReasonNotInvited:
			return ctx.Status(fiber.StatusForbidden).JSON(
				serverutils.ReasonResponse(fiber.StatusForbidden, service.ReasonNotInvited, "This interview is restricted to invited respondents"))
		case service.ReasonInterviewInactive:
			return ctx.Status(fiber.StatusForbidden).JSON(
				serverutils.ReasonResponse(fiber.StatusForbidden, service.ReasonInterviewInactive, "This interview is no longer accepting responses"))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success register response", res))
}

// Show is the poll/refresh fallback for unreliable webhooks. With
// ?analyse=true the idempotent analysis path runs inline, but a scoring
// failure never reaches the candidate: the snapshot is returned without
// analytics and the error stays in the logs.
func (c *responseController) Show(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")

	if ctx.QueryBool("analyse", false) {
		if _, err := c.analyticsService.Analyse(ctx.Context(), callId); err != nil && !faults.IsKind(err, faults.KindNotFound) {
			c.logger.Warn("ResponseController", "inline analyse failed, serving snapshot without analytics", map[string]interface{}{
				"call_id": callId,
				"code":    faults.CodeOf(err),
				"error":   err.Error(),
			})
		}
	}

	snap, err := c.responseService.Snapshot(ctx.Context(), callId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show response", snap))
}

func (c *responseController) TabSwitch(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")

	var req dto.TabSwitchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.responseService.RecordTabSwitch(ctx.Context(), callId, req.Count); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success record tab switch", fiber.Map{"call_id": callId}))
}

func (c *responseController) SetDisposition(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")

	var req dto.DispositionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.responseService.SetDisposition(ctx.Context(), callId, entity.CandidateDisposition(req.Disposition)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set disposition", fiber.Map{"call_id": callId}))
}

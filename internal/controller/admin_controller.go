package controller

import (
	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Analyse(ctx *fiber.Ctx) error
	Fail(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ListByInterview(ctx *fiber.Ctx) error
}

// adminController exposes the manual correction surface. Every action logs
// the operator identity taken from the JWT for later audit.
type adminController struct {
	responseService  service.IResponseService
	analyticsService service.IAnalyticsService
	logger           logger.ILogger
}

func NewAdminController(
	responseService service.IResponseService,
	analyticsService service.IAnalyticsService,
	log logger.ILogger,
) IAdminController {
	return &adminController{
		responseService:  responseService,
		analyticsService: analyticsService,
		logger:           log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/interviews/:interview_id/responses", c.ListByInterview)
	h.Post("/responses/:call_id/analyse", c.Analyse)
	h.Post("/responses/:call_id/fail", c.Fail)
	h.Post("/responses/:call_id/reset", c.Reset)
	h.Delete("/responses/:call_id", c.Delete)
}

func (c *adminController) audit(ctx *fiber.Ctx, action, callId string) {
	c.logger.Info("AdminController", "operator action", map[string]interface{}{
		"operator_id": ctx.Locals("operator_id"),
		"action":      action,
		"call_id":     callId,
	})
}

// Analyse re-runs the scoring pipeline. Idempotent: a record that already
// carries analytics returns them without a provider call.
func (c *adminController) Analyse(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")
	c.audit(ctx, "analyse", callId)

	doc, err := c.analyticsService.Analyse(ctx.Context(), callId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success analyse response", doc))
}

func (c *adminController) Fail(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")

	var req dto.FailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	c.audit(ctx, "fail", callId)
	if err := c.responseService.MarkFailed(ctx.Context(), callId, req.Reason); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success mark response failed", fiber.Map{"call_id": callId}))
}

func (c *adminController) Reset(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")
	c.audit(ctx, "reset", callId)

	if err := c.responseService.ResetFailure(ctx.Context(), callId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reset response", fiber.Map{"call_id": callId}))
}

func (c *adminController) Delete(ctx *fiber.Ctx) error {
	callId := ctx.Params("call_id")
	c.audit(ctx, "delete", callId)

	if err := c.responseService.Delete(ctx.Context(), callId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete response", fiber.Map{"call_id": callId}))
}

func (c *adminController) ListByInterview(ctx *fiber.Ctx) error {
	interviewId, err := uuid.Parse(ctx.Params("interview_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid interview id")
	}

	snaps, err := c.responseService.ListByInterview(ctx.Context(), interviewId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list responses", snaps))
}

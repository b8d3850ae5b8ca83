package controller

import (
	"ai-studynotes-core/internal/dto"
	"ai-studynotes-core/internal/pkg/serverutils"
	"ai-studynotes-core/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Ensure(ctx *fiber.Ctx) error
	SetUploadFlag(ctx *fiber.Ctx) error
	ConsumeUploadFlag(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("", c.Ensure)
	h.Post("upload-flag", c.SetUploadFlag)
	h.Delete("upload-flag", c.ConsumeUploadFlag)
}

// Ensure materialises the caller's session and returns its id. The middleware
// already minted one if the header was missing or malformed.
func (c *sessionController) Ensure(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	res := dto.EnsureSessionResponse{
		SessionId: c.sessionService.Ensure(sessionId),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success ensure session", res))
}

func (c *sessionController) SetUploadFlag(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)
	c.sessionService.SetUploadFlag(sessionId)
	return ctx.JSON(serverutils.SuccessResponse[any]("Success set upload flag", nil))
}

// ConsumeUploadFlag reads and clears the flag in one call, so the dashboard
// greeting only triggers once per upload flow.
func (c *sessionController) ConsumeUploadFlag(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	res := dto.UploadFlagResponse{
		CameFromUpload: c.sessionService.ConsumeUploadFlag(sessionId),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success consume upload flag", res))
}

package controller

import (
	"errors"
	"strconv"

	"resume-ai-helper-be/internal/dto"
	"resume-ai-helper-be/internal/pkg/serverutils"
	"resume-ai-helper-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	NewChat(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	UploadResume(ctx *fiber.Ctx) error
	SelectPreset(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	SelectSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("state", c.GetState)
	h.Post("new", c.NewChat)
	h.Post("message", c.SendMessage)
	h.Post("upload", c.UploadResume)
	h.Post("preset/:id", c.SelectPreset)
	h.Get("sessions", c.GetAllSessions)
	h.Post("sessions/:id/select", c.SelectSession)
	h.Delete("sessions/:id", c.DeleteSession)
}

func (c *chatController) GetState(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get chat state", c.service.Snapshot()))
}

func (c *chatController) NewChat(ctx *fiber.Ctx) error {
	res := c.service.NewChat(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success start new chat", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), req.Text)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) UploadResume(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No resume file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	res, err := c.service.UploadResume(ctx.Context(), fileHeader.Filename, file)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload resume", res))
}

func (c *chatController) SelectPreset(ctx *fiber.Ctx) error {
	presetId, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid preset id")
	}

	res, err := c.service.SelectPreset(ctx.Context(), presetId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select preset chat", res))
}

func (c *chatController) GetAllSessions(ctx *fiber.Ctx) error {
	res := c.service.GetAllSessions(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *chatController) SelectSession(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res := c.service.SelectSession(ctx.Context(), id)
	return ctx.JSON(serverutils.SuccessResponse("Success select session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.service.DeleteSession(ctx.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", res))
}

// mapServiceError translates chat service sentinels into HTTP semantics. A
// busy rejection is 429 so the UI knows to keep affordances disabled.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrBusy):
		return fiber.NewError(fiber.StatusTooManyRequests, "Another operation is in progress")
	case errors.Is(err, service.ErrUnsupportedFile):
		return fiber.NewError(fiber.StatusBadRequest, "Only .pdf, .doc and .docx resumes are accepted")
	case errors.Is(err, service.ErrUnknownPreset):
		return fiber.NewError(fiber.StatusBadRequest, "Unknown preset conversation")
	default:
		return err
	}
}

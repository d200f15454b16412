package controller

import (
	"bufio"
	"context"
	"fmt"

	"riverai-be/internal/dto"
	"riverai-be/internal/pkg/serverutils"
	"riverai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	GetConversations(ctx *fiber.Ctx) error
	GetTurns(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService   service.IChatService
	streamService service.IStreamService
}

func NewChatController(chatService service.IChatService, streamService service.IStreamService) IChatController {
	return &chatController{
		chatService:   chatService,
		streamService: streamService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/conversations", c.GetConversations)
	h.Post("/conversations", c.SendMessage)
	h.Get("/conversations/:id/messages", c.GetTurns)
	h.Put("/conversations/:id", c.Rename)
	h.Delete("/conversations/:id", c.Delete)
	h.Get("/conversations/:id/stream", c.Stream)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) GetConversations(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.GetConversations(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversations", res))
}

func (c *chatController) GetTurns(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.chatService.GetTurns(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatController) Rename(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.RenameConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.Rename(ctx.Context(), userId, id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success rename conversation", nil))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	if err := c.chatService.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

// Stream replays the latest user turn through the agent and pushes the
// answer over SSE. The conversation is resolved before any header is
// written so a missing one still gets a regular JSON error response.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	conversation, turn, err := c.chatService.PrepareStream(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	streamService := c.streamService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := func(eventType string, payload []byte) error {
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
				return err
			}
			// A failed flush is how we learn the client hung up.
			return w.Flush()
		}

		// The fiber context is recycled once this handler returns, so
		// the writer runs on its own context.
		streamService.Stream(context.Background(), conversation, turn, emit)
	}))

	return nil
}

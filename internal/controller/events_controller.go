package controller

import (
	"os"

	"riverai-be/internal/pkg/logger"
	internalWS "riverai-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// EventsController upgrades clients onto the live event hub. Ingestion
// notifications are pushed here.
type EventsController struct {
	hub *internalWS.Hub
	log logger.ILogger
}

func NewEventsController(hub *internalWS.Hub, log logger.ILogger) *EventsController {
	return &EventsController{hub: hub, log: log}
}

func (c *EventsController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", c.ServeWs)
}

func (c *EventsController) ServeWs(ctx *fiber.Ctx) error {
	// Browsers cannot set headers on the WS handshake, so the token may
	// come in a query param instead.
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
	}

	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token missing user_id"})
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid user id in token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.log.Info("events", "WebSocket session started", map[string]interface{}{"user_id": userId.String()})
			internalWS.ServeWs(c.hub, conn, userId)
			c.log.Info("events", "WebSocket session ended", map[string]interface{}{"user_id": userId.String()})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

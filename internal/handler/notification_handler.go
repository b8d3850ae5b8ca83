package handler

import (
	"ai-studynotes-core/internal/pkg/logger"
	"ai-studynotes-core/internal/pkg/serverutils"
	"ai-studynotes-core/internal/service"
	internalWS "ai-studynotes-core/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs handles websocket requests from the peer. Browsers cannot set
// custom headers during the handshake, so the session id may arrive as the
// "session" query parameter instead of the usual header.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	sessionStr := c.Query("session")
	if sessionStr == "" {
		sessionStr = c.Get(serverutils.SessionHeader)
	}
	if sessionStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing session (Query 'session' or Header '" + serverutils.SessionHeader + "')"})
	}

	sessionID, err := uuid.Parse(sessionStr)
	if err != nil {
		h.logger.Warn("NotificationHandler", "Invalid session id in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id format"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID.String()})
			internalWS.ServeWs(h.hub, conn, sessionID.String())
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID.String()})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// GetNotifications returns the session's recent notifications, newest first.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	sessionID := serverutils.SessionId(c)

	notifications := h.service.GetNotifications(sessionID)

	limit := c.QueryInt("limit", 20)
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}

	return c.JSON(serverutils.SuccessResponse("Notifications fetched successfully", notifications))
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Get("/", h.GetNotifications)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}

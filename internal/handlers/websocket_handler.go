package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/middleware"
	"bridge-backend/internal/services"
)

// WebSocketHandler upgrades authenticated sessions to a transfer event stream
type WebSocketHandler struct {
	pushService *services.WebSocketPushService
	upgrader    websocket.Upgrader
	logger      *logrus.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(pushService *services.WebSocketPushService, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHandler{
		pushService: pushService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// HandleWebSocket GET /api/v1/ws, blocks until the client disconnects
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userAddress := middleware.UserAddress(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.WithFields(logrus.Fields{
			"user_address": userAddress,
			"error":        err.Error(),
		}).Warn("WebSocket upgrade failed")
		return
	}

	connection := services.NewConnection(userAddress, conn)
	h.pushService.Register(connection)
	h.pushService.Serve(connection)
}

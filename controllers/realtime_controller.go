package controllers

import (
	"net/http"

	"homeser-core/middleware"
	"homeser-core/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type RealtimeController struct {
	Hub      *realtime.Hub
	Logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewRealtimeController(hub *realtime.Hub, logger *zap.Logger) *RealtimeController {
	return &RealtimeController{
		Hub:    hub,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the API gateway in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the request to a websocket bound to the authenticated
// user on one of the orders/notifications/payments channels. The connection
// stays registered until the client goes away.
func (rc *RealtimeController) Subscribe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	channel := c.Param("channel")

	if !realtime.IsValidChannel(channel) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rc.Logger.Warn("Websocket upgrade failed",
			zap.String("user_id", userID),
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	rc.Hub.Subscribe(userID, channel, conn)
	rc.Logger.Debug("Realtime subscription opened",
		zap.String("user_id", userID),
		zap.String("channel", channel),
	)

	// Reads only serve to detect the close; inbound frames are discarded.
	go func() {
		defer func() {
			rc.Hub.Unsubscribe(userID, channel, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

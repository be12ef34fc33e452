package controllers

import (
	"net/http"

	"homeser-core/apperrors"
	"homeser-core/middleware"
	"homeser-core/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Service *services.NotificationService
}

func NewNotificationController(service *services.NotificationService) *NotificationController {
	return &NotificationController{Service: service}
}

// GetNotifications returns the durable event mirror for the user, the
// polling fallback for missed realtime pushes.
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := pagination(c)

	resp, err := nc.Service.GetUserNotifications(c.Request.Context(), userID, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

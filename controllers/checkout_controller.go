package controllers

import (
	"errors"
	"net/http"

	"homeser-core/apperrors"
	"homeser-core/middleware"
	"homeser-core/services"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	Service *services.CheckoutService
}

func NewCheckoutController(service *services.CheckoutService) *CheckoutController {
	return &CheckoutController{Service: service}
}

// Checkout converts the cart into an order and returns the gateway redirect.
// A duplicate submit for the same cart version gets a 409 carrying the
// existing order id.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)

	result, err := cc.Service.Checkout(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCheckoutInProgress) && result != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":    apperrors.ErrCheckoutInProgress.Message,
				"order_id": result.OrderID,
			})
			return
		}
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

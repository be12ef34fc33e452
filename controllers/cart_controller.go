package controllers

import (
	"net/http"

	"homeser-core/apperrors"
	"homeser-core/middleware"
	"homeser-core/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartController struct {
	Service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{Service: service}
}

type cartMutationRequest struct {
	ServiceID       uuid.UUID `json:"service_id" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1"`
	ExpectedVersion int64     `json:"expected_version" binding:"min=0"`
}

// GetCart returns the current cart for a user
func (cc *CartController) GetCart(c *gin.Context) {
	userID := middleware.GetUserID(c)

	cart, err := cc.Service.Snapshot(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddItem adds or increments an item in the cart; a stale expected_version
// is rejected with 409 and the caller retries with the fresh version.
func (cc *CartController) AddItem(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req cartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cart, err := cc.Service.AddItem(c.Request.Context(), userID, req.ServiceID, req.Quantity, req.ExpectedVersion)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveItem decrements or removes an item from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req cartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cart, err := cc.Service.RemoveItem(c.Request.Context(), userID, req.ServiceID, req.Quantity, req.ExpectedVersion)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

package routes

import (
	"net/http"

	"homeser-core/controllers"
	"homeser-core/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Cart         *controllers.CartController
	Checkout     *controllers.CheckoutController
	Order        *controllers.OrderController
	Payment      *controllers.PaymentController
	Notification *controllers.NotificationController
	Realtime     *controllers.RealtimeController
}

func Register(r *gin.Engine, c Controllers, jwtSecret string) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(jwtSecret)

	cart := r.Group("/cart")
	cart.Use(auth, middleware.RateLimitMiddleware())
	cart.GET("", c.Cart.GetCart)
	cart.POST("/add", c.Cart.AddItem)
	cart.POST("/remove", c.Cart.RemoveItem)

	r.POST("/checkout", auth, middleware.RateLimitMiddleware(), c.Checkout.Checkout)

	orders := r.Group("/orders")
	orders.Use(auth)
	orders.GET("", c.Order.GetOrders)
	orders.GET("/:id", c.Order.GetOrderByID)
	orders.POST("/:id/cancel", c.Order.CancelOrder)

	r.GET("/notifications", auth, c.Notification.GetNotifications)

	// Gateway-originated, unauthenticated by session; signature-verified in
	// the handler.
	r.POST("/api/payments/ipn/", c.Payment.IPN)

	r.GET("/ws/:channel", auth, c.Realtime.Subscribe)
}

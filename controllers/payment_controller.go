package controllers

import (
	"bytes"
	"io"
	"net/http"

	"homeser-core/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	Service *services.PaymentService
	Logger  *zap.Logger
}

func NewPaymentController(service *services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{Service: service, Logger: logger}
}

// IPN receives the gateway's asynchronous payment notification. Any
// structurally valid request is acknowledged with 200 — including integrity
// failures, which are logged server-side — since the gateway retries
// indefinitely on anything else.
func (pc *PaymentController) IPN(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form payload"})
		return
	}
	values := c.Request.PostForm

	// Structural validation: anything missing these fields is not a
	// well-formed notification and gets a hard 400.
	for _, field := range []string{"tran_id", "status", "amount"} {
		if values.Get(field) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing field: " + field})
			return
		}
	}

	if err := pc.Service.HandleIPN(c.Request.Context(), body, values); err != nil {
		// Integrity and anomaly failures are internal; the gateway
		// still gets its acknowledgement.
		pc.Logger.Warn("IPN processing reported an error",
			zap.String("tran_id", values.Get("tran_id")),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"homeser-core/apperrors"
	"homeser-core/realtime"
	"homeser-core/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyIPN(url.Values) error {
	return apperrors.ErrInvalidSignature
}

func newIPNRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	notifier := services.NewNotifier(realtime.NewHub(logger), nil, nil, logger)
	svc := services.NewPaymentService(nil, nil, rejectingVerifier{}, notifier, logger)
	pc := NewPaymentController(svc, logger)

	r := gin.New()
	r.POST("/api/payments/ipn/", pc.IPN)
	return r
}

func postIPN(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/ipn/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIPN_MissingFieldsRejected(t *testing.T) {
	r := newIPNRouter()

	form := url.Values{}
	form.Set("status", "VALID")
	form.Set("amount", "1800.00")

	w := postIPN(r, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tran_id")
}

func TestIPN_IntegrityFailureStillAcknowledged(t *testing.T) {
	r := newIPNRouter()

	// Structurally valid but failing signature verification: the gateway
	// gets its 200 so it stops retrying; the failure is only logged.
	form := url.Values{}
	form.Set("tran_id", "homeser_x_ab12cd34")
	form.Set("status", "VALID")
	form.Set("amount", "1800.00")

	w := postIPN(r, form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}

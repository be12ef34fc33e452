package gateway

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"homeser-core/apperrors"
	"homeser-core/config"
	"homeser-core/models"

	"github.com/google/uuid"
)

// Session is the result of a successful outbound session-creation request.
type Session struct {
	TransactionID string
	SessionKey    string
	GatewayURL    string
}

// SessionCreator builds outbound payment sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, order *models.Order) (*Session, error)
}

// IPNVerifier validates inbound payment notifications.
type IPNVerifier interface {
	VerifyIPN(values url.Values) error
}

// Client is the SSLCommerz gateway adapter.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// sessionResponse is the gateway's session-initiation reply.
type sessionResponse struct {
	Status         string `json:"status"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// CreateSession posts the session-creation form for an order and returns the
// gateway redirect target. The transaction id embeds the order id so the IPN
// can be tied back to it, with a random suffix to keep retries distinct.
func (c *Client) CreateSession(ctx context.Context, order *models.Order) (*Session, error) {
	tranID := fmt.Sprintf("homeser_%s_%s", order.ID.String(), uuid.NewString()[:8])

	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePassword)
	form.Set("total_amount", order.Total.StringFixed(2))
	form.Set("currency", c.cfg.Currency)
	form.Set("tran_id", tranID)
	form.Set("success_url", c.cfg.CallbackBase+"/api/payments/success/")
	form.Set("fail_url", c.cfg.CallbackBase+"/api/payments/fail/")
	form.Set("cancel_url", c.cfg.CallbackBase+"/api/payments/cancel/")
	form.Set("ipn_url", c.cfg.CallbackBase+"/api/payments/ipn/")
	form.Set("product_category", "service")
	form.Set("product_name", "HomeSer Service")
	form.Set("product_profile", "general")
	form.Set("num_of_item", fmt.Sprintf("%d", len(order.Items)))
	form.Set("shipping_method", "NO")
	form.Set("cus_name", order.UserID)
	form.Set("cus_email", "unknown@homeser.local")
	form.Set("cus_add1", "")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_postcode", "1000")
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", "")

	endpoint := c.cfg.BaseURL + "/gwprocess/v4/api.php"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.ErrGateway.With(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ErrGateway.With(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrGateway.With(fmt.Errorf("gateway returned %d", resp.StatusCode))
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, apperrors.ErrGateway.With(err)
	}

	if !strings.EqualFold(sr.Status, "SUCCESS") {
		reason := sr.FailedReason
		if reason == "" {
			reason = "payment session creation failed"
		}
		return nil, apperrors.ErrGateway.With(fmt.Errorf("%s", reason))
	}

	return &Session{
		TransactionID: tranID,
		SessionKey:    sr.SessionKey,
		GatewayURL:    sr.GatewayPageURL,
	}, nil
}

// VerifyIPN recomputes the gateway's signing hash over the notification
// fields and compares it to verify_sign. The hash covers the fields listed
// in verify_key plus the md5 of the store password, sorted by key and joined
// as k=v pairs.
func (c *Client) VerifyIPN(values url.Values) error {
	verifySign := values.Get("verify_sign")
	verifyKey := values.Get("verify_key")
	if verifySign == "" || verifyKey == "" {
		return apperrors.ErrInvalidSignature
	}

	keys := strings.Split(verifyKey, ",")
	pairs := make(map[string]string, len(keys)+1)
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		pairs[k] = values.Get(k)
	}
	pairs["store_passwd"] = md5Hex([]byte(c.cfg.StorePassword))

	sorted := make([]string, 0, len(pairs))
	for k := range pairs {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	parts := make([]string, 0, len(sorted))
	for _, k := range sorted {
		parts = append(parts, k+"="+pairs[k])
	}
	computed := md5Hex([]byte(strings.Join(parts, "&")))

	if subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(verifySign))) != 1 {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// md5 is what the gateway protocol signs with; not used for anything else.
func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"art-market/internal/models"
	"art-market/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatedPrefix marks payment ids issued without provider credentials
const SimulatedPrefix = "sim-"

// PaymentRequest is the amount/memo/metadata triple sent to the provider
type PaymentRequest struct {
	Amount   decimal.Decimal
	Memo     string
	Metadata map[string]string
}

// Gateway creates payment sessions
type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*models.PaymentSession, error)
}

// PiClient talks to the Pi Network payments API. Without an API key it
// runs in simulated mode and never leaves the process.
type PiClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPiClient creates a payments client; timeout 0 keeps the transport default
func NewPiClient(apiKey, url string, timeout time.Duration) *PiClient {
	return &PiClient{
		apiKey:     apiKey,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.Named("gateway"),
	}
}

// Simulated reports whether the client issues local payment ids only
func (c *PiClient) Simulated() bool {
	return c.apiKey == ""
}

type createPaymentBody struct {
	Amount   json.Number       `json:"amount"`
	Memo     string            `json:"memo"`
	Metadata map[string]string `json:"metadata"`
}

// CreatePayment issues a new payment session. It never persists anything.
func (c *PiClient) CreatePayment(ctx context.Context, req PaymentRequest) (*models.PaymentSession, error) {
	if c.Simulated() {
		return &models.PaymentSession{
			PaymentID: SimulatedPrefix + uuid.New().String(),
			Simulated: true,
			Amount:    req.Amount,
			Memo:      req.Memo,
			Metadata:  req.Metadata,
		}, nil
	}

	ctx, span := util.StartSpan(ctx, "PiClient.CreatePayment")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(createPaymentBody{
		Amount:   json.Number(req.Amount.String()),
		Memo:     req.Memo,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pi createPayment request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Payment provider rejected createPayment",
			zap.Int("status", resp.StatusCode),
			zap.String("memo", req.Memo))
		return nil, &models.GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedGatewayResponse, err)
	}

	paymentID, ok := FirstOf(doc, PaymentIDPaths...)
	if !ok {
		return nil, models.ErrMalformedGatewayResponse
	}

	c.logger.Info("Payment created", zap.String("payment_id", paymentID))

	return &models.PaymentSession{
		PaymentID: paymentID,
		Amount:    req.Amount,
		Memo:      req.Memo,
		Metadata:  req.Metadata,
		Provider:  doc,
	}, nil
}

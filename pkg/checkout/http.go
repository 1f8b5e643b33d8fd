package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/qrdine/pkg/models"
)

// HTTPSubmitter posts orders to a running gateway's /api/orders.
type HTTPSubmitter struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSubmitter(baseURL string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSubmitter{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (h *HTTPSubmitter) SubmitOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusCreated || !out.Success {
		if out.Details != "" {
			return "", fmt.Errorf("order rejected (status %d): %s: %s", resp.StatusCode, out.Error, out.Details)
		}
		return "", fmt.Errorf("order rejected (status %d): %s", resp.StatusCode, out.Error)
	}
	return out.OrderID, nil
}

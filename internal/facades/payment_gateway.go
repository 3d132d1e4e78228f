package facades

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
)

const (
	initiateOrderPath   = "/api/initiate2"
	executeTransferPath = "/api/transact"
	maxErrorBody        = 4 << 10
)

// ErrGatewayUnavailable marks failures where the gateway refused the request
// before acting on it, so repeating the call is safe.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayError is returned for non-2xx gateway responses.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: http %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrGatewayUnavailable) match refusals.
func (e *GatewayError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrGatewayUnavailable
	}
	return nil
}

// PaymentGatewayHTTPFacade talks to the mobile-money gateway over JSON/HTTP.
type PaymentGatewayHTTPFacade struct {
	baseURL         string
	apiToken        string
	orderService    string
	transferService string
	client          *http.Client
}

// Option configures PaymentGatewayHTTPFacade.
type Option func(*PaymentGatewayHTTPFacade)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *PaymentGatewayHTTPFacade) { f.client = c }
}

// WithServices sets the gateway service names for order and transfer calls.
func WithServices(order, transfer string) Option {
	return func(f *PaymentGatewayHTTPFacade) {
		f.orderService = order
		f.transferService = transfer
	}
}

// NewPaymentGatewayHTTPFacade creates a gateway client.
func NewPaymentGatewayHTTPFacade(baseURL, apiToken string, timeout time.Duration, opts ...Option) *PaymentGatewayHTTPFacade {
	f := &PaymentGatewayHTTPFacade{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		apiToken:        apiToken,
		orderService:    "momo",
		transferService: "mtn-momo",
		client:          &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InitiateOrder asks the gateway for a new order id.
func (f *PaymentGatewayHTTPFacade) InitiateOrder(ctx context.Context) (string, error) {
	body := models.InitiateOrderRequest{
		APIToken: f.apiToken,
		Service:  f.orderService,
	}

	raw, err := f.post(ctx, "initiate order", initiateOrderPath, body)
	if err != nil {
		return "", err
	}

	var resp models.InitiateOrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Log.Errorw("failed to decode initiate order response", "body", string(raw), "error", err)
		return "", fmt.Errorf("decode initiate order response: %w", err)
	}
	if resp.Data.OrderID == "" {
		logger.Log.Errorw("gateway returned no order id", "statuscode", resp.StatusCode, "body", string(raw))
		return "", &GatewayError{Op: "initiate order", StatusCode: int(resp.StatusCode), Body: "missing orderid"}
	}

	logger.Log.Infow("order id received", "order_id", resp.Data.OrderID)
	return resp.Data.OrderID, nil
}

// ExecuteTransfer sends volume to receiver under orderID. A response with a
// non-202 statuscode is returned without error; the caller interprets it.
// An undecodable 2xx body comes back with only Raw set.
func (f *PaymentGatewayHTTPFacade) ExecuteTransfer(ctx context.Context, orderID, receiver string, volume float64) (*models.ExecuteTransferResponse, error) {
	body := models.ExecuteTransferRequest{
		APIToken:    f.apiToken,
		Service:     f.transferService,
		Destination: receiver,
		CashAmount:  strconv.FormatFloat(volume, 'f', -1, 64),
		OrderID:     orderID,
	}

	raw, err := f.post(ctx, "execute transfer", executeTransferPath, body)
	if err != nil {
		return nil, err
	}

	var resp models.ExecuteTransferResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Log.Errorw("failed to decode transfer response", "order_id", orderID, "body", string(raw), "error", err)
		return &models.ExecuteTransferResponse{Raw: storableJSON(raw)}, nil
	}
	resp.Raw = raw

	logger.Log.Infow("transfer executed", "order_id", orderID, "statuscode", resp.StatusCode)
	return &resp, nil
}

// storableJSON returns raw when it is valid JSON and raw quoted as a JSON string otherwise.
func storableJSON(raw []byte) json.RawMessage {
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

func (f *PaymentGatewayHTTPFacade) post(ctx context.Context, op, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("payment gateway request failed", "op", op, "error", err)
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b := raw
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		gwErr := &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: string(b)}
		logger.Log.Errorw("payment gateway returned error status", "op", op, "status", resp.StatusCode, "error", gwErr)
		return nil, gwErr
	}

	return raw, nil
}

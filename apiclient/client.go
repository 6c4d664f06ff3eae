// Package apiclient is a typed client for the Art Corner cart, order and payment endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kariqs/artcorner-api/stock"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = 15 * time.Second

var (
	// ErrUnexpectedPayload is returned when a 2xx body does not have the documented shape.
	ErrUnexpectedPayload = errors.New("unexpected response payload")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("art corner api unavailable")

	errServer = errors.New("server error")
)

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	log     *zap.Logger
}

type Option func(*Client)

// WithToken sends token as the bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreakerSettings replaces the circuit breaker configuration.
func WithBreakerSettings(settings gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = newBreaker(settings, c) }
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "artcorner-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

func newBreaker(settings gobreaker.Settings, c *Client) *gobreaker.CircuitBreaker[*resty.Response] {
	// A caller giving up is not a failure of the API.
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.Warn("Circuit breaker state changed",
			zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
	}
	return gobreaker.NewCircuitBreaker[*resty.Response](settings)
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		log: zap.NewNop(),
	}
	c.breaker = newBreaker(defaultBreakerSettings(), c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServer
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		c.log.Debug("Request rejected",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return resp.Body(), nil
}

func newAPIError(resp *resty.Response) *APIError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body(), &body)

	message := body.Error
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return &APIError{Status: resp.StatusCode(), Message: message}
}

func decodeCart(body []byte) ([]CartItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("cart: %w", ErrUnexpectedPayload)
	}
	items := []CartItem{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("cart: %w: %v", ErrUnexpectedPayload, err)
	}
	return items, nil
}

func (c *Client) cartCall(ctx context.Context, method, path string, body any) ([]CartItem, error) {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return decodeCart(raw)
}

func (c *Client) GetCart(ctx context.Context, userID string) ([]CartItem, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart/"+userID, nil)
}

func (c *Client) AddToCart(ctx context.Context, userID, itemID string, quantity int, itemType stock.ItemType) ([]CartItem, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/add-to-cart", map[string]any{
		"userId":   userID,
		"itemId":   itemID,
		"quantity": quantity,
		"itemType": itemType.OrDefault(),
	})
}

func (c *Client) UpdateCart(ctx context.Context, userID, productID string, quantity int, itemType stock.ItemType) ([]CartItem, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/update", map[string]any{
		"productId": productID,
		"quantity":  quantity,
		"userId":    userID,
		"itemType":  itemType.OrDefault(),
	})
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, productID string, itemType stock.ItemType) ([]CartItem, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/remove", map[string]any{
		"userId":    userID,
		"productId": productID,
		"itemType":  itemType.OrDefault(),
	})
}

func (c *Client) CreateCheckoutSession(ctx context.Context, items []LineItem) (*CheckoutSession, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/payment/create-checkout-session", map[string]any{"items": items})
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil || session.SessionID == "" {
		return nil, fmt.Errorf("checkout session: %w", ErrUnexpectedPayload)
	}
	return &session, nil
}

// SubmitOrder posts an order to path, either DirectOrderPath or PaymentSuccessPath.
func (c *Client) SubmitOrder(ctx context.Context, path string, req OrderRequest) (*Order, error) {
	raw, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil || order.ID == "" {
		return nil, fmt.Errorf("order: %w", ErrUnexpectedPayload)
	}
	return &order, nil
}

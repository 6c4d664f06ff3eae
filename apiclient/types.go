package apiclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Kariqs/artcorner-api/stock"
)

const PaymentSuccessPath = "/api/payment/payment-success"

func DirectOrderPath(userID string) string {
	return "/api/orders/" + userID
}

// Product is the catalog view embedded in a cart line. Capacity is only set for events.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Capacity int     `json:"capacity"`
	Image    string  `json:"image,omitempty"`
}

type CartItem struct {
	ID       string         `json:"_id,omitempty"`
	Product  *Product       `json:"product"`
	Quantity int            `json:"quantity"`
	ItemType stock.ItemType `json:"itemType"`
}

// StockLine describes the line for the stock rules. A line without a product has no stock.
func (c CartItem) StockLine() stock.Line {
	line := stock.Line{ItemType: c.ItemType.OrDefault(), Requested: c.Quantity}
	if c.Product != nil {
		line.ID = c.Product.ID
		line.Name = c.Product.Name
		line.Quantity = c.Product.Quantity
		line.Capacity = c.Product.Capacity
	}
	return line
}

// LineItem is one entry of an online payment. Price is in minor currency units.
type LineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type OrderLine struct {
	ProductID string         `json:"productId"`
	ItemType  stock.ItemType `json:"itemType"`
	Name      string         `json:"name"`
	Price     float64        `json:"price"`
	Quantity  int            `json:"quantity"`
}

type OrderRequest struct {
	UserID         string      `json:"userId"`
	Items          []OrderLine `json:"items"`
	TotalAmount    float64     `json:"totalAmount"`
	PaymentMethod  string      `json:"paymentMethod"`
	DeliveryMethod string      `json:"deliveryMethod,omitempty"`
	FullName       string      `json:"fullName,omitempty"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Address        string      `json:"address,omitempty"`
	City           string      `json:"city,omitempty"`
	PostalCode     string      `json:"postalCode,omitempty"`
	SessionID      string      `json:"sessionId,omitempty"`
}

type OrderItem struct {
	ItemID   string         `json:"itemId"`
	ItemType stock.ItemType `json:"itemType"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity int            `json:"quantity"`
}

type Order struct {
	ID            string      `json:"_id"`
	Reference     string      `json:"reference,omitempty"`
	UserID        string      `json:"userId"`
	TotalAmount   float64     `json:"totalAmount"`
	PaymentMethod string      `json:"paymentMethod"`
	PaymentStatus string      `json:"paymentStatus"`
	Status        string      `json:"status"`
	SessionID     string      `json:"sessionId,omitempty"`
	OrderItems    []OrderItem `json:"orderItems"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// APIError is a non-2xx answer. Message is the server's own text when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Conflict reports whether the server rejected the request because of stock.
func (e *APIError) Conflict() bool {
	return e.Status == http.StatusConflict
}

// Package snapshot keeps the pending order of an online checkout across the
// redirect to the payment page.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/Kariqs/artcorner-api/apiclient"
)

var ErrNotFound = errors.New("no pending order")

// PendingOrder is a copy of the cart and checkout details taken right before the
// buyer leaves for the payment page.
type PendingOrder struct {
	UserID         string               `json:"userId"`
	Items          []apiclient.CartItem `json:"items"`
	TotalAmount    float64              `json:"totalAmount"`
	PaymentMethod  string               `json:"paymentMethod"`
	DeliveryMethod string               `json:"deliveryMethod,omitempty"`
	FullName       string               `json:"fullName,omitempty"`
	Email          string               `json:"email,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	Address        string               `json:"address,omitempty"`
	City           string               `json:"city,omitempty"`
	PostalCode     string               `json:"postalCode,omitempty"`
	SessionID      string               `json:"sessionId,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Repository stores at most one PendingOrder per key. Save overwrites, Clear of a
// missing key succeeds and Load of a missing key returns ErrNotFound.
type Repository interface {
	Save(ctx context.Context, key string, order PendingOrder) error
	Load(ctx context.Context, key string) (PendingOrder, error)
	Clear(ctx context.Context, key string) error
}

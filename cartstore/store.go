// Package cartstore holds a user's cart as last reported by the Art Corner API.
//
// The server is the only authority: every successful call replaces the whole local
// cart with the array the server answered with, and nothing is changed locally before
// a call succeeds.
package cartstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMissingProduct  = errors.New("cart item has no product reference")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrStockExceeded   = errors.New("requested quantity exceeds available stock")
)

// CartAPI is the part of apiclient.Client the store talks to.
type CartAPI interface {
	GetCart(ctx context.Context, userID string) ([]apiclient.CartItem, error)
	AddToCart(ctx context.Context, userID, itemID string, quantity int, itemType stock.ItemType) ([]apiclient.CartItem, error)
	UpdateCart(ctx context.Context, userID, productID string, quantity int, itemType stock.ItemType) ([]apiclient.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, productID string, itemType stock.ItemType) ([]apiclient.CartItem, error)
}

type Store struct {
	api    CartAPI
	userID string
	log    *zap.Logger

	// mu serializes calls that replace the cart, so responses apply in request order.
	mu      sync.Mutex
	fetches singleflight.Group

	stateMu sync.RWMutex
	items   []apiclient.CartItem
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(api CartAPI, userID string, opts ...Option) *Store {
	s := &Store{
		api:    api,
		userID: userID,
		log:    zap.NewNop(),
		items:  []apiclient.CartItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) UserID() string {
	return s.userID
}

func (s *Store) replace(items []apiclient.CartItem) {
	if items == nil {
		items = []apiclient.CartItem{}
	}
	s.stateMu.Lock()
	s.items = items
	s.stateMu.Unlock()
}

// apply runs call under the mutation lock and installs its result. A result that
// arrives after ctx is done is discarded.
func (s *Store) apply(ctx context.Context, call func() ([]apiclient.CartItem, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	items, err := call()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		s.log.Debug("Discarding cart response for cancelled call", zap.String("userId", s.userID))
		return err
	}
	s.replace(items)
	return nil
}

// Refresh loads the authoritative cart. On failure the local cart is left as it was.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.fetches.Do(s.userID, func() (any, error) {
		return nil, s.apply(ctx, func() ([]apiclient.CartItem, error) {
			return s.api.GetCart(ctx, s.userID)
		})
	})
	return err
}

// FetchCart loads the authoritative cart and returns it. Any failure other than
// cancellation resets the cart to empty; it never reports an error.
func (s *Store) FetchCart(ctx context.Context) []apiclient.CartItem {
	if err := s.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			s.log.Warn("Failed to fetch cart, showing an empty cart", zap.String("userId", s.userID), zap.Error(err))
			s.replace(nil)
		}
	}
	return s.Items()
}

// AddToCart adds item.Quantity units of item.Product. When the product is already in
// the cart the merged quantity is checked against stock before any call is made.
func (s *Store) AddToCart(ctx context.Context, item apiclient.CartItem) error {
	if item.Product == nil || item.Product.ID == "" {
		s.log.Warn("Ignoring cart item without a product", zap.String("userId", s.userID))
		return ErrMissingProduct
	}
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	itemType := item.ItemType.OrDefault()
	productID := item.Product.ID

	return s.apply(ctx, func() ([]apiclient.CartItem, error) {
		requested := item.Quantity
		existing, found := s.line(productID, itemType)
		if found {
			requested += existing.Quantity
		}

		line := item.StockLine()
		if !stock.IsFulfillable(line, requested) {
			s.log.Warn("Requested quantity exceeds stock",
				zap.String("productId", productID),
				zap.Int("requested", requested),
				zap.Int("available", stock.Ceiling(line.ItemType, line.Quantity, line.Capacity)))
			return nil, fmt.Errorf("%s: %w", item.Product.Name, ErrStockExceeded)
		}

		if found {
			return s.api.UpdateCart(ctx, s.userID, productID, requested, itemType)
		}
		return s.api.AddToCart(ctx, s.userID, productID, requested, itemType)
	})
}

// UpdateCartQuantity sets the absolute quantity of a line. The server removes the
// line when quantity is zero or less.
func (s *Store) UpdateCartQuantity(ctx context.Context, productID string, quantity int, itemType stock.ItemType) error {
	err := s.apply(ctx, func() ([]apiclient.CartItem, error) {
		return s.api.UpdateCart(ctx, s.userID, productID, quantity, itemType.OrDefault())
	})
	if err != nil {
		s.log.Warn("Failed to update cart", zap.String("productId", productID), zap.Error(err))
	}
	return err
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string, itemType stock.ItemType) error {
	err := s.apply(ctx, func() ([]apiclient.CartItem, error) {
		return s.api.RemoveFromCart(ctx, s.userID, productID, itemType.OrDefault())
	})
	if err != nil {
		s.log.Warn("Failed to remove cart item", zap.String("productId", productID), zap.Error(err))
	}
	return err
}

// Clear empties the local cart. Only a finalized order may call it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(nil)
}

func (s *Store) line(productID string, itemType stock.ItemType) (apiclient.CartItem, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	for _, item := range s.items {
		if item.Product != nil && item.Product.ID == productID && item.ItemType.OrDefault() == itemType {
			return item, true
		}
	}
	return apiclient.CartItem{}, false
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []apiclient.CartItem {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	items := make([]apiclient.CartItem, len(s.items))
	for i, item := range s.items {
		if item.Product != nil {
			product := *item.Product
			item.Product = &product
		}
		items[i] = item
	}
	return items
}

func (s *Store) Len() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return len(s.items)
}

// TicketOnly reports whether the cart is non-empty and holds nothing but event tickets.
func (s *Store) TicketOnly() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if len(s.items) == 0 {
		return false
	}
	for _, item := range s.items {
		if item.ItemType.OrDefault() != stock.ItemEvent {
			return false
		}
	}
	return true
}

// Total is the cart value in major currency units. Lines without a product count as zero.
func (s *Store) Total() decimal.Decimal {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return Total(s.items)
}

func Total(items []apiclient.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		price := decimal.NewFromFloat(item.Product.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

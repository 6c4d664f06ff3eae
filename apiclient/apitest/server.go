// Package apitest runs an in-memory Art Corner API for client tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/gin-gonic/gin"
)

type catalogEntry struct {
	product  apiclient.Product
	itemType stock.ItemType
}

type cartLine struct {
	id       string
	itemType stock.ItemType
	quantity int
}

type failure struct {
	status  int
	message string
}

// Server mirrors the cart, order and payment routes of the real API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	catalog  map[string]*catalogEntry
	carts    map[string][]cartLine
	orders   []apiclient.OrderRequest
	sessions []apiclient.LineItem
	calls    map[string]int
	failures map[string]failure
	hooks    map[string]func()
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		catalog:  map[string]*catalogEntry{},
		carts:    map[string][]cartLine{},
		calls:    map[string]int{},
		failures: map[string]failure{},
		hooks:    map[string]func(){},
	}

	r := gin.New()
	r.Use(s.track)
	r.GET("/api/cart/:userId", s.getCart)
	r.POST("/api/cart/add-to-cart", s.addToCart)
	r.POST("/api/cart/update", s.updateCart)
	r.DELETE("/api/cart/remove", s.removeFromCart)
	r.POST("/api/payment/create-checkout-session", s.createSession)
	r.POST("/api/payment/payment-success", s.placeOrder)
	r.POST("/api/orders/:userId", s.placeOrder)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func routeKey(ctx *gin.Context) string {
	return ctx.Request.Method + " " + ctx.FullPath()
}

// track counts calls, runs hooks and answers with a queued failure when one is set.
func (s *Server) track(ctx *gin.Context) {
	key := routeKey(ctx)

	s.mu.Lock()
	s.calls[key]++
	hook := s.hooks[key]
	delete(s.hooks, key)
	fail, failing := s.failures[key]
	delete(s.failures, key)
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failing {
		ctx.AbortWithStatusJSON(fail.status, gin.H{"error": fail.message})
		return
	}
	ctx.Next()
}

func (s *Server) AddProduct(p apiclient.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[p.ID] = &catalogEntry{product: p, itemType: stock.ItemProduct}
}

func (s *Server) AddEvent(p apiclient.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[p.ID] = &catalogEntry{product: p, itemType: stock.ItemEvent}
}

// SetStock changes the units on hand of a product, or the capacity of an event.
func (s *Server) SetStock(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.catalog[id]
	if entry.itemType == stock.ItemEvent {
		entry.product.Capacity = n
	} else {
		entry.product.Quantity = n
	}
}

func (s *Server) Stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.catalog[id]
	return stock.Ceiling(entry.itemType, entry.product.Quantity, entry.product.Capacity)
}

// PutInCart stores a line directly, bypassing the stock rules.
func (s *Server) PutInCart(userID, itemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append(s.carts[userID], cartLine{id: itemID, itemType: s.catalog[itemID].itemType, quantity: quantity})
}

func (s *Server) Cart(userID string) []apiclient.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(userID)
}

func (s *Server) Orders() []apiclient.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apiclient.OrderRequest(nil), s.orders...)
}

// Sessions returns every line item sent to the checkout session route.
func (s *Server) Sessions() []apiclient.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apiclient.LineItem(nil), s.sessions...)
}

// Calls reports how often route, such as "POST /api/cart/update", was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next call to route answer with status and message.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// BeforeNext runs fn when the next call to route arrives, before it is handled.
func (s *Server) BeforeNext(route string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[route] = fn
}

func (s *Server) cartLocked(userID string) []apiclient.CartItem {
	items := []apiclient.CartItem{}
	for i, line := range s.carts[userID] {
		item := apiclient.CartItem{ID: fmt.Sprint(i + 1), Quantity: line.quantity, ItemType: line.itemType}
		if entry, ok := s.catalog[line.id]; ok {
			product := entry.product
			item.Product = &product
		}
		items = append(items, item)
	}
	return items
}

func (s *Server) ceilingLocked(id string) (string, int, bool) {
	entry, ok := s.catalog[id]
	if !ok {
		return "", 0, false
	}
	return entry.product.Name, stock.Ceiling(entry.itemType, entry.product.Quantity, entry.product.Capacity), true
}

func (s *Server) setLineLocked(userID, id string, itemType stock.ItemType, next func(existing int) int) (int, string) {
	name, ceiling, ok := s.ceilingLocked(id)
	if !ok {
		return http.StatusNotFound, "Item not found"
	}

	lines := s.carts[userID]
	index := -1
	for i, line := range lines {
		if line.id == id && line.itemType == itemType {
			index = i
		}
	}

	existing := 0
	if index >= 0 {
		existing = lines[index].quantity
	}
	quantity := next(existing)
	switch {
	case quantity <= 0 && index >= 0:
		s.carts[userID] = append(lines[:index], lines[index+1:]...)
	case quantity <= 0:
	case quantity > ceiling:
		return http.StatusConflict, fmt.Sprintf("Only %d of %s available", ceiling, name)
	case index >= 0:
		lines[index].quantity = quantity
	default:
		s.carts[userID] = append(lines, cartLine{id: id, itemType: itemType, quantity: quantity})
	}
	return http.StatusOK, ""
}

func (s *Server) getCart(ctx *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx.JSON(http.StatusOK, s.cartLocked(ctx.Param("userId")))
}

type cartRequest struct {
	UserID    string         `json:"userId"`
	ItemID    string         `json:"itemId"`
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	ItemType  stock.ItemType `json:"itemType"`
}

func (s *Server) mutateCart(ctx *gin.Context, id func(cartRequest) string, next func(cartRequest, int) int) {
	var req cartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	status, message := s.setLineLocked(req.UserID, id(req), req.ItemType.OrDefault(), func(existing int) int {
		return next(req, existing)
	})
	if status != http.StatusOK {
		ctx.JSON(status, gin.H{"error": message})
		return
	}
	ctx.JSON(http.StatusOK, s.cartLocked(req.UserID))
}

func (s *Server) addToCart(ctx *gin.Context) {
	s.mutateCart(ctx,
		func(r cartRequest) string { return r.ItemID },
		func(r cartRequest, existing int) int { return existing + r.Quantity })
}

func (s *Server) updateCart(ctx *gin.Context) {
	s.mutateCart(ctx,
		func(r cartRequest) string { return r.ProductID },
		func(r cartRequest, _ int) int { return r.Quantity })
}

func (s *Server) removeFromCart(ctx *gin.Context) {
	s.mutateCart(ctx,
		func(r cartRequest) string { return r.ProductID },
		func(cartRequest, int) int { return 0 })
}

func (s *Server) createSession(ctx *gin.Context) {
	var req struct {
		Items []apiclient.LineItem `json:"items"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid items to pay for"})
		return
	}

	var total int64
	for _, item := range req.Items {
		total += item.Price * item.Quantity
	}
	if total < 50 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Order total is below the minimum charge"})
		return
	}

	s.mu.Lock()
	s.sessions = append(s.sessions, req.Items...)
	id := fmt.Sprintf("cs_test_%d", s.calls["POST /api/payment/create-checkout-session"])
	s.mu.Unlock()

	ctx.JSON(http.StatusOK, apiclient.CheckoutSession{SessionID: id, URL: "https://pay.test/" + id})
}

func (s *Server) placeOrder(ctx *gin.Context) {
	var req apiclient.OrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range req.Items {
		name, ceiling, ok := s.ceilingLocked(item.ProductID)
		if !ok || item.Quantity > ceiling {
			if name == "" {
				name = item.Name
			}
			ctx.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Not enough stock for %q", name)})
			return
		}
	}

	order := apiclient.Order{
		ID:            fmt.Sprintf("order-%d", len(s.orders)+1),
		UserID:        req.UserID,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: "pending",
		Status:        "Pending",
		SessionID:     req.SessionID,
	}
	if strings.HasPrefix(ctx.FullPath(), "/api/payment") {
		order.PaymentStatus = "paid"
	}
	for _, item := range req.Items {
		entry := s.catalog[item.ProductID]
		if entry.itemType == stock.ItemEvent {
			entry.product.Capacity -= item.Quantity
		} else {
			entry.product.Quantity -= item.Quantity
		}
		order.OrderItems = append(order.OrderItems, apiclient.OrderItem{
			ItemID: item.ProductID, ItemType: entry.itemType, Name: entry.product.Name,
			Price: entry.product.Price, Quantity: item.Quantity,
		})
	}
	s.orders = append(s.orders, req)
	delete(s.carts, req.UserID)

	ctx.JSON(http.StatusCreated, order)
}

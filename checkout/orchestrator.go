// Package checkout turns a user's cart into an order, either directly for cash and
// card payments or through a hosted payment page for online payments.
//
// An online payment leaves the process, so the order details are written to a
// snapshot.Repository before the redirect and read back when the buyer returns. Stock
// is checked again on return because other buyers may have emptied it meanwhile.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/cartstore"
	"github.com/Kariqs/artcorner-api/snapshot"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MinimumChargeMinor is the smallest online payment, in minor currency units.
const MinimumChargeMinor = 50

const DefaultReconcileTimeout = 30 * time.Second

const (
	msgCartUnavailable = "We could not load your cart. Please try again."
	msgPaymentStart    = "We could not start the payment. Please try again."
	msgNoPendingOrder  = "We could not find the order for this payment. Please check your orders or contact us."
	msgOrderFailed     = "Something went wrong while placing your order. Please try again."
	msgUnavailable     = "The shop is temporarily unavailable. Please try again in a moment."
	msgNoLineItems     = "None of the items in your cart can be paid for online."
	msgEmptyCart       = "Your cart is empty."
)

// PaymentAPI is the part of apiclient.Client used at checkout.
type PaymentAPI interface {
	OrderAPI
	CreateCheckoutSession(ctx context.Context, items []apiclient.LineItem) (*apiclient.CheckoutSession, error)
}

// Redirector sends the buyer to the hosted payment page.
type Redirector interface {
	Redirect(ctx context.Context, url string) error
}

type RedirectFunc func(ctx context.Context, url string) error

func (f RedirectFunc) Redirect(ctx context.Context, url string) error {
	return f(ctx, url)
}

type Orchestrator struct {
	userID    string
	cart      *cartstore.Store
	api       PaymentAPI
	snapshots snapshot.Repository
	redirect  Redirector
	finalizer *Finalizer
	validate  *validator.Validate
	log       *zap.Logger
	now       func() time.Time

	key              string
	reconcileTimeout time.Duration

	// mu serializes checkout steps.
	mu sync.Mutex

	viewMu sync.RWMutex
	state  State
	notice Notice
	order  *apiclient.Order
}

type Option func(*Orchestrator)

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithReconcileTimeout bounds the work done when the buyer returns from payment.
func WithReconcileTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.reconcileTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSnapshotKey sets the key of the pending order record. It defaults to the user id.
func WithSnapshotKey(key string) Option {
	return func(o *Orchestrator) { o.key = key }
}

func New(cart *cartstore.Store, api PaymentAPI, snapshots snapshot.Repository, redirect Redirector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		userID:           cart.UserID(),
		cart:             cart,
		api:              api,
		snapshots:        snapshots,
		redirect:         redirect,
		validate:         newValidator(),
		log:              zap.NewNop(),
		now:              time.Now,
		key:              cart.UserID(),
		reconcileTimeout: DefaultReconcileTimeout,
		state:            StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.finalizer = NewFinalizer(api, cart, snapshots, o.key, o.log)
	return o
}

func (o *Orchestrator) State() State {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.state
}

// Notice is the message for the buyer from the last step.
func (o *Orchestrator) Notice() Notice {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.notice
}

// Order is the order placed by this attempt, or nil.
func (o *Orchestrator) Order() *apiclient.Order {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.order
}

// Reset starts a new attempt after a finished one.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.moveTo(StateIdle); err != nil {
		return err
	}
	o.setNotice(Notice{})
	o.viewMu.Lock()
	o.order = nil
	o.viewMu.Unlock()
	return nil
}

func (o *Orchestrator) moveTo(next State) error {
	o.viewMu.Lock()
	defer o.viewMu.Unlock()
	if !o.state.CanTransitionTo(next) {
		return &transitionError{from: o.state, to: next}
	}
	if o.state != next {
		o.log.Debug("Checkout state changed",
			zap.String("userId", o.userID), zap.Stringer("from", o.state), zap.Stringer("to", next))
	}
	o.state = next
	return nil
}

func (o *Orchestrator) setNotice(n Notice) {
	o.viewMu.Lock()
	o.notice = n
	o.viewMu.Unlock()
}

// fail records n and returns err. A step that was under way falls back to Ready.
func (o *Orchestrator) fail(n Notice, err error) error {
	o.viewMu.Lock()
	switch o.state {
	case StateDirectSubmitting, StateRedirecting, StateReconciling:
		o.state = StateReady
	}
	o.notice = n
	o.viewMu.Unlock()
	return err
}

func (o *Orchestrator) finish(order *apiclient.Order, msg string) {
	o.viewMu.Lock()
	o.state = StateDone
	o.order = order
	o.notice = success(msg)
	o.viewMu.Unlock()
}

// Prepare validates form against the current cart and makes the attempt Ready.
func (o *Orchestrator) Prepare(form Form) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.prepare(form)
	return err
}

func (o *Orchestrator) prepare(form Form) (Form, error) {
	if !o.State().CanTransitionTo(StateReady) {
		return form, &transitionError{from: o.State(), to: StateReady}
	}

	form = form.normalized()
	if o.cart.Len() == 0 {
		return form, o.fail(warning(msgEmptyCart), ErrEmptyCart)
	}

	if err := validateForm(o.validate, form, o.cart.TicketOnly()); err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			return form, o.fail(warning(fieldErr.Message()), err)
		}
		return form, o.fail(failure(msgOrderFailed), err)
	}

	if err := o.moveTo(StateReady); err != nil {
		return form, err
	}
	o.setNotice(Notice{})
	return form, nil
}

// Submit reloads the cart, validates form and checks stock for every line. Cash and
// card orders are placed right away and the placed order is returned. Online
// payments save a pending order and hand the payment page URL to the Redirector;
// they return a nil order and complete in HandleReturn.
func (o *Orchestrator) Submit(ctx context.Context, form Form) (*apiclient.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if state := o.State(); !state.CanTransitionTo(StateReady) {
		return nil, &transitionError{from: state, to: StateReady}
	}
	if err := o.cart.Refresh(ctx); err != nil {
		o.log.Warn("Failed to refresh cart before checkout", zap.String("userId", o.userID), zap.Error(err))
		return nil, o.fail(failure(msgCartUnavailable), fmt.Errorf("refresh cart: %w", err))
	}

	form, err := o.prepare(form)
	if err != nil {
		return nil, err
	}

	items := o.cart.Items()
	if short := shortfall(items, items); len(short) > 0 {
		return nil, o.outOfStock(short)
	}

	if form.PaymentMethod == PaymentOnline {
		return nil, o.startPayment(ctx, form, items)
	}
	return o.submitDirect(ctx, form, items)
}

func (o *Orchestrator) submitDirect(ctx context.Context, form Form, items []apiclient.CartItem) (*apiclient.Order, error) {
	if err := o.moveTo(StateDirectSubmitting); err != nil {
		return nil, err
	}

	req := newOrderRequest(o.userID, form, items, o.cart.TicketOnly())
	order, err := o.finalizer.Finalize(ctx, apiclient.DirectOrderPath(o.userID), req)
	if err != nil {
		return nil, o.fail(failure(orderFailureMessage(err)), err)
	}

	o.finish(order, "Order placed successfully!")
	return order, nil
}

func (o *Orchestrator) startPayment(ctx context.Context, form Form, items []apiclient.CartItem) error {
	lineItems, total := o.lineItems(items)
	if len(lineItems) == 0 {
		return o.fail(warning(msgNoLineItems), ErrNoLineItems)
	}
	if total < MinimumChargeMinor {
		minimum := decimal.New(MinimumChargeMinor, -2).StringFixed(2)
		return o.fail(
			warning(fmt.Sprintf("Online payments must be at least %s.", minimum)),
			fmt.Errorf("%w: %d minor units", ErrBelowMinimum, total))
	}

	req := newOrderRequest(o.userID, form, items, o.cart.TicketOnly())
	pending := snapshot.PendingOrder{
		UserID:         o.userID,
		Items:          items,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		PostalCode:     req.PostalCode,
		CreatedAt:      o.now().UTC(),
	}
	if err := o.snapshots.Save(ctx, o.key, pending); err != nil {
		o.log.Error("Failed to save pending order", zap.String("userId", o.userID), zap.Error(err))
		return o.fail(failure(msgPaymentStart), fmt.Errorf("save pending order: %w", err))
	}

	session, err := o.api.CreateCheckoutSession(ctx, lineItems)
	if err != nil {
		o.log.Error("Failed to create checkout session", zap.String("userId", o.userID), zap.Error(err))
		o.discardPending(ctx)
		return o.fail(failure(paymentFailureMessage(err)), err)
	}

	pending.SessionID = session.SessionID
	if err := o.snapshots.Save(ctx, o.key, pending); err != nil {
		o.log.Error("Failed to save pending order", zap.String("userId", o.userID), zap.Error(err))
		o.discardPending(ctx)
		return o.fail(failure(msgPaymentStart), fmt.Errorf("save pending order: %w", err))
	}

	if err := o.moveTo(StateRedirecting); err != nil {
		o.discardPending(ctx)
		return err
	}
	o.setNotice(info("Redirecting to the payment page..."))

	if err := o.redirect.Redirect(ctx, session.URL); err != nil {
		o.log.Error("Failed to redirect to payment page",
			zap.String("userId", o.userID), zap.String("sessionId", session.SessionID), zap.Error(err))
		o.discardPending(ctx)
		return o.fail(failure(msgPaymentStart), fmt.Errorf("redirect to payment: %w", err))
	}

	o.log.Info("Redirected to payment page",
		zap.String("userId", o.userID), zap.String("sessionId", session.SessionID), zap.Int64("amount", total))
	return nil
}

// lineItems converts the cart to payment lines in minor units. Lines that cannot be
// charged are left out.
func (o *Orchestrator) lineItems(items []apiclient.CartItem) ([]apiclient.LineItem, int64) {
	hundred := decimal.NewFromInt(100)
	var (
		out   []apiclient.LineItem
		total int64
	)
	for i, item := range items {
		switch {
		case item.Product == nil:
			o.log.Error("Dropping cart line without a product", zap.Int("line", i))
			continue
		case strings.TrimSpace(item.Product.Name) == "":
			o.log.Error("Dropping cart line without a name", zap.String("productId", item.Product.ID))
			continue
		case item.Product.Price <= 0:
			o.log.Error("Dropping cart line without a price",
				zap.String("productId", item.Product.ID), zap.Float64("price", item.Product.Price))
			continue
		case item.Quantity <= 0:
			o.log.Error("Dropping cart line without a quantity", zap.String("productId", item.Product.ID))
			continue
		}

		price := decimal.NewFromFloat(item.Product.Price).Mul(hundred).Round(0).IntPart()
		out = append(out, apiclient.LineItem{Name: item.Product.Name, Price: price, Quantity: int64(item.Quantity)})
		total += price * int64(item.Quantity)
	}
	return out, total
}

func (o *Orchestrator) discardPending(ctx context.Context) {
	if err := o.snapshots.Clear(context.WithoutCancel(ctx), o.key); err != nil {
		o.log.Error("Failed to delete pending order", zap.String("userId", o.userID), zap.Error(err))
	}
}

// HandleReturn completes an online payment when the buyer comes back from the payment
// page. query holds the parameters of the return URL: success=true finalizes the
// pending order, canceled=true drops it and keeps the cart.
func (o *Orchestrator) HandleReturn(ctx context.Context, query url.Values) (*apiclient.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case query.Get("success") == "true":
		return o.reconcile(ctx)
	case query.Get("canceled") == "true":
		return nil, o.cancelPayment(ctx)
	}
	return nil, ErrNoReturnIndicator
}

func (o *Orchestrator) cancelPayment(ctx context.Context) error {
	if err := o.moveTo(StateReady); err != nil {
		return err
	}
	if err := o.snapshots.Clear(ctx, o.key); err != nil {
		o.log.Error("Failed to delete pending order", zap.String("userId", o.userID), zap.Error(err))
		return o.fail(failure(msgOrderFailed), fmt.Errorf("delete pending order: %w", err))
	}
	o.log.Info("Payment canceled", zap.String("userId", o.userID))
	o.setNotice(info("Payment was canceled. Your cart has been kept."))
	return nil
}

func (o *Orchestrator) reconcile(ctx context.Context) (*apiclient.Order, error) {
	if err := o.moveTo(StateReconciling); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.reconcileTimeout)
	defer cancel()

	pending, err := o.snapshots.Load(ctx, o.key)
	if errors.Is(err, snapshot.ErrNotFound) {
		o.log.Warn("Returned from payment without a pending order", zap.String("userId", o.userID))
		return nil, o.fail(warning(msgNoPendingOrder), ErrNoPendingOrder)
	}
	if err != nil {
		o.log.Error("Failed to load pending order", zap.String("userId", o.userID), zap.Error(err))
		return nil, o.fail(failure(msgOrderFailed), fmt.Errorf("load pending order: %w", err))
	}
	if pending.UserID != o.userID {
		o.log.Warn("Pending order belongs to another user",
			zap.String("userId", o.userID), zap.String("owner", pending.UserID))
		return nil, o.fail(warning(msgNoPendingOrder), fmt.Errorf("%w: record belongs to another user", ErrNoPendingOrder))
	}

	if err := o.cart.Refresh(ctx); err != nil {
		o.log.Warn("Failed to refresh cart after payment", zap.String("userId", o.userID), zap.Error(err))
		return nil, o.fail(failure(msgCartUnavailable), fmt.Errorf("refresh cart: %w", err))
	}
	if short := shortfall(pending.Items, o.cart.Items()); len(short) > 0 {
		return nil, o.outOfStock(short)
	}

	order, err := o.finalizer.Finalize(ctx, apiclient.PaymentSuccessPath, pendingOrderRequest(pending))
	if err != nil {
		return nil, o.fail(failure(orderFailureMessage(err)), err)
	}

	o.finish(order, "Payment successful! Your order has been placed.")
	return order, nil
}

func (o *Orchestrator) outOfStock(short []stock.Line) error {
	names := make([]string, len(short))
	for i, line := range short {
		names[i] = line.Name
		o.log.Warn("Cart line exceeds stock",
			zap.String("userId", o.userID), zap.String("productId", line.ID),
			zap.Int("requested", line.Requested),
			zap.Int("available", stock.Ceiling(line.ItemType, line.Quantity, line.Capacity)))
	}
	list := strings.Join(names, ", ")
	return o.fail(
		warning(fmt.Sprintf("Sorry, not enough stock for: %s. Please update your cart.", list)),
		fmt.Errorf("%w: %s", ErrStockUnavailable, list))
}

// shortfall returns the lines of want that cannot be supplied, measured against the
// matching line of current. A line missing from current has nothing left to supply.
// Lines without a product are skipped.
func shortfall(want, current []apiclient.CartItem) []stock.Line {
	lines := make([]stock.Line, 0, len(want))
	for _, item := range want {
		if item.Product == nil {
			continue
		}
		line := item.StockLine()
		line.Quantity, line.Capacity = 0, 0
		for _, fresh := range current {
			if fresh.Product != nil && fresh.Product.ID == line.ID && fresh.ItemType.OrDefault() == line.ItemType {
				line = fresh.StockLine()
				line.Requested = item.Quantity
				break
			}
		}
		lines = append(lines, line)
	}
	return stock.Unfulfillable(lines)
}

func orderLines(items []apiclient.CartItem) []apiclient.OrderLine {
	lines := make([]apiclient.OrderLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lines = append(lines, apiclient.OrderLine{
			ProductID: item.Product.ID,
			ItemType:  item.ItemType.OrDefault(),
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

func newOrderRequest(userID string, form Form, items []apiclient.CartItem, ticketOnly bool) apiclient.OrderRequest {
	req := apiclient.OrderRequest{
		UserID:        userID,
		Items:         orderLines(items),
		TotalAmount:   cartstore.Total(items).InexactFloat64(),
		PaymentMethod: form.PaymentMethod,
		Email:         form.Email,
	}
	if !ticketOnly {
		req.DeliveryMethod = form.Delivery.Method
		req.FullName = form.Delivery.FullName
		req.Phone = form.Delivery.Phone
		req.Address = form.Delivery.Address
		req.City = form.Delivery.City
		req.PostalCode = form.Delivery.PostalCode
	}
	return req
}

func pendingOrderRequest(p snapshot.PendingOrder) apiclient.OrderRequest {
	return apiclient.OrderRequest{
		UserID:         p.UserID,
		Items:          orderLines(p.Items),
		TotalAmount:    p.TotalAmount,
		PaymentMethod:  p.PaymentMethod,
		DeliveryMethod: p.DeliveryMethod,
		FullName:       p.FullName,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		City:           p.City,
		PostalCode:     p.PostalCode,
		SessionID:      p.SessionID,
	}
}

// orderFailureMessage prefers the server's own words.
func orderFailureMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, apiclient.ErrUnavailable):
		return msgUnavailable
	}
	return msgOrderFailed
}

func paymentFailureMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, apiclient.ErrUnavailable):
		return msgUnavailable
	}
	return msgPaymentStart
}

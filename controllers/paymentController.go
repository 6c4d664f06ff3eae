package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinimumChargeMinor is the smallest total, in minor currency units, the payment provider accepts.
const MinimumChargeMinor = 50

const maxWebhookBodyBytes = int64(65536)

// PaymentGateway is the subset of the Stripe checkout API the handlers use.
type PaymentGateway interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string) (*stripe.CheckoutSession, error)
}

type stripeGateway struct{}

func (stripeGateway) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (stripeGateway) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return session.Get(id, nil)
}

// Payments is replaced in tests.
var Payments PaymentGateway = stripeGateway{}

type checkoutLineItem struct {
	Name     string `json:"name" binding:"required"`
	Price    int64  `json:"price" binding:"required,gt=0"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

func CreateCheckoutSession(ctx *gin.Context) {
	var req struct {
		Items []checkoutLineItem `json:"items" binding:"required,min=1,dive"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		initializers.Log.Debug("Invalid checkout items", zap.Error(err))
		sendBusinessError(ctx, http.StatusBadRequest, "No valid items to pay for")
		return
	}

	var total int64
	currency := strings.ToLower(viper.GetString("CURRENCY"))
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		total += item.Price * item.Quantity
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.Price),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	if total < MinimumChargeMinor {
		sendBusinessError(ctx, http.StatusBadRequest, "Order total is below the minimum charge")
		return
	}

	frontend := strings.TrimRight(viper.GetString("FRONTEND_URL"), "/")
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(frontend + "/checkout?success=true"),
		CancelURL:  stripe.String(frontend + "/checkout?canceled=true"),
	}
	if userID := middlewares.UserID(ctx); userID != "" {
		params.ClientReferenceID = stripe.String(userID)
	}

	checkoutSession, err := Payments.CreateCheckoutSession(params)
	if err != nil {
		initializers.Log.Error("Error creating Stripe checkout session", zap.Error(err))
		sendBusinessError(ctx, http.StatusBadGateway, "Failed to create checkout session")
		return
	}

	initializers.Log.Info("Checkout session created", zap.String("sessionId", checkoutSession.ID), zap.Int64("amount", total))
	sendJSONResponse(ctx, http.StatusOK, gin.H{"sessionId": checkoutSession.ID, "url": checkoutSession.URL})
}

func findOrderBySession(db *gorm.DB, sessionID string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("OrderItems").Where("stripe_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PaymentSuccess records the order for a paid checkout session. Retrying with the
// same session returns the order already recorded.
func PaymentSuccess(ctx *gin.Context) {
	req, ok := bindOrderRequest(ctx, "")
	if !ok {
		return
	}
	if req.PaymentMethod != models.PaymentOnline || req.SessionID == "" {
		sendBusinessError(ctx, http.StatusBadRequest, "A paid checkout session is required")
		return
	}

	existing, err := findOrderBySession(initializers.DB, req.SessionID)
	if err == nil {
		sendJSONResponse(ctx, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		handlePlaceOrderError(ctx, err)
		return
	}

	checkoutSession, err := Payments.GetCheckoutSession(req.SessionID)
	if err != nil {
		initializers.Log.Error("Error retrieving checkout session", zap.String("sessionId", req.SessionID), zap.Error(err))
		sendBusinessError(ctx, http.StatusBadGateway, "Unable to verify payment")
		return
	}
	if checkoutSession.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		sendBusinessError(ctx, http.StatusPaymentRequired, "Payment has not been completed")
		return
	}
	if checkoutSession.ClientReferenceID != "" && checkoutSession.ClientReferenceID != req.UserID {
		initializers.Log.Warn("Checkout session belongs to another user",
			zap.String("sessionId", req.SessionID), zap.String("userId", req.UserID))
		sendBusinessError(ctx, http.StatusForbidden, "This payment belongs to another account")
		return
	}

	sessionID := req.SessionID
	order, err := placeOrder(initializers.DB, req, models.PaymentStatusPaid,
		&paidSession{ID: sessionID, AmountMinor: checkoutSession.AmountTotal})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if existing, findErr := findOrderBySession(initializers.DB, sessionID); findErr == nil {
			sendJSONResponse(ctx, http.StatusOK, existing)
			return
		}
	}
	if err != nil {
		handlePlaceOrderError(ctx, err)
		return
	}

	initializers.Log.Info("Paid order created", zap.String("orderId", order.ID), zap.String("sessionId", sessionID))
	go sendOrderConfirmation(*order)
	sendJSONResponse(ctx, http.StatusCreated, order)
}

func StripeWebhook(ctx *gin.Context) {
	secret := viper.GetString("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		initializers.Log.Error("STRIPE_WEBHOOK_SECRET is not set")
		sendErrorResponse(ctx, http.StatusServiceUnavailable, "Webhook not configured")
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		sendErrorResponse(ctx, http.StatusRequestEntityTooLarge, "Unable to read request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, ctx.GetHeader("Stripe-Signature"), secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		initializers.Log.Warn("Webhook signature verification failed", zap.Error(err))
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid signature")
		return
	}

	var paymentStatus string
	switch event.Type {
	case "checkout.session.completed":
		paymentStatus = models.PaymentStatusPaid
	case "checkout.session.expired":
		paymentStatus = models.PaymentStatusUnpaid
	default:
		initializers.Log.Debug("Unhandled event type", zap.String("eventType", string(event.Type)))
		sendJSONResponse(ctx, http.StatusOK, gin.H{"received": true})
		return
	}

	var checkoutSession stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid event payload")
		return
	}
	if paymentStatus == models.PaymentStatusPaid && checkoutSession.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		paymentStatus = models.PaymentStatusPending
	}

	result := initializers.DB.Model(&models.Order{}).
		Where("stripe_session_id = ?", checkoutSession.ID).
		Update("payment_status", paymentStatus)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to update order", result.Error)
		return
	}

	initializers.Log.Info("Checkout session event processed",
		zap.String("eventType", string(event.Type)),
		zap.String("sessionId", checkoutSession.ID),
		zap.Int64("ordersUpdated", result.RowsAffected))
	sendJSONResponse(ctx, http.StatusOK, gin.H{"received": true})
}

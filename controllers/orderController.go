package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/Kariqs/artcorner-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgInvalidOrder      = "Invalid order data"
	msgFailedToSaveOrder = "Failed to save order"
)

type orderLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	ItemType  stock.ItemType `json:"itemType"`
	Name      string         `json:"name"`
	Price     float64        `json:"price"`
	Quantity  int            `json:"quantity" binding:"required,gt=0"`
}

type orderRequest struct {
	UserID         string             `json:"userId"`
	Items          []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount    float64            `json:"totalAmount"`
	PaymentMethod  string             `json:"paymentMethod" binding:"required"`
	DeliveryMethod string             `json:"deliveryMethod"`
	FullName       string             `json:"fullName"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Address        string             `json:"address"`
	City           string             `json:"city"`
	PostalCode     string             `json:"postalCode"`
	SessionID      string             `json:"sessionId"`
}

func (r orderRequest) ticketOnly() bool {
	for _, item := range r.Items {
		if item.ItemType.OrDefault() != stock.ItemEvent {
			return false
		}
	}
	return len(r.Items) > 0
}

// validate enforces delivery details for every order that ships something physical.
func (r orderRequest) validate() error {
	for _, item := range r.Items {
		if !item.ItemType.OrDefault().Valid() {
			return fmt.Errorf("Unknown item type %q", item.ItemType)
		}
	}
	if r.ticketOnly() {
		return nil
	}
	if r.DeliveryMethod != models.DeliveryShipping && r.DeliveryMethod != models.DeliveryPickup {
		return errors.New("Please choose a delivery method")
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"fullName", r.FullName},
		{"phone", r.Phone},
		{"address", r.Address},
		{"city", r.City},
		{"postalCode", r.PostalCode},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("Missing delivery details: %s", strings.Join(missing, ", "))
	}
	return nil
}

// mergedLines folds repeated references to the same item into one line.
func (r orderRequest) mergedLines() []orderLineRequest {
	index := map[catalogKey]int{}
	var lines []orderLineRequest
	for _, item := range r.Items {
		item.ItemType = item.ItemType.OrDefault()
		key := catalogKey{item.ItemType, item.ProductID}
		if i, ok := index[key]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(lines)
		lines = append(lines, item)
	}
	return lines
}

func (r orderRequest) newOrder() models.Order {
	order := models.Order{
		UserID:         r.UserID,
		FullName:       r.FullName,
		Email:          r.Email,
		Phone:          r.Phone,
		PaymentMethod:  r.PaymentMethod,
		Status:         models.OrderStatusPending,
		DeliveryMethod: r.DeliveryMethod,
		Address:        r.Address,
		City:           r.City,
		PostalCode:     r.PostalCode,
	}
	if r.ticketOnly() {
		order.DeliveryMethod, order.Address, order.City, order.PostalCode = "", "", "", ""
	}
	return order
}

// paidSession is a verified checkout session the order is settled against.
type paidSession struct {
	ID          string
	AmountMinor int64
}

type paymentMismatchError struct {
	paid, due int64
}

func (e *paymentMismatchError) Error() string {
	return "Payment amount does not match the order total"
}

// placeOrder reserves stock for every line, records the order with catalog prices
// and empties the buyer's cart, all in one transaction. When payment is set the
// catalog total must equal the amount paid or nothing is written.
func placeOrder(db *gorm.DB, req orderRequest, paymentStatus string, payment *paidSession) (*models.Order, error) {
	order := req.newOrder()
	order.PaymentStatus = paymentStatus
	if payment != nil {
		sessionID := payment.ID
		order.StripeSessionID = &sessionID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		for _, line := range req.mergedLines() {
			item, err := findCatalogItem(tx, line.ItemType, line.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				name := line.Name
				if name == "" {
					name = line.ProductID
				}
				return &insufficientStockError{name: name}
			}
			if err != nil {
				return err
			}

			reserved, err := reserveStock(tx, line.ItemType, item.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !reserved {
				return newInsufficientStock(item)
			}

			price := decimal.NewFromFloat(item.Price)
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			order.OrderItems = append(order.OrderItems, models.OrderItem{
				ItemID:   item.ID,
				ItemType: line.ItemType,
				Name:     item.Name,
				Price:    item.Price,
				Quantity: line.Quantity,
			})
		}
		order.TotalAmount = total.Round(2).InexactFloat64()

		if payment != nil {
			due := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
			if due != payment.AmountMinor {
				return &paymentMismatchError{paid: payment.AmountMinor, due: due}
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("cart_id IN (?)", tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", order.UserID)).
			Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	if req.TotalAmount > 0 && !decimal.NewFromFloat(req.TotalAmount).Round(2).Equal(decimal.NewFromFloat(order.TotalAmount)) {
		initializers.Log.Warn("Client total differs from catalog total",
			zap.String("orderId", order.ID), zap.Float64("client", req.TotalAmount), zap.Float64("catalog", order.TotalAmount))
	}
	return &order, nil
}

func handlePlaceOrderError(ctx *gin.Context, err error) {
	var stockErr *insufficientStockError
	if errors.As(err, &stockErr) {
		sendBusinessError(ctx, http.StatusConflict, stockErr.Error())
		return
	}
	var mismatch *paymentMismatchError
	if errors.As(err, &mismatch) {
		initializers.Log.Warn("Paid amount differs from catalog total",
			zap.Int64("paid", mismatch.paid), zap.Int64("due", mismatch.due))
		sendBusinessError(ctx, http.StatusConflict, mismatch.Error())
		return
	}
	initializers.Log.Error(msgFailedToSaveOrder, zap.Error(err))
	sendBusinessError(ctx, http.StatusInternalServerError, msgFailedToSaveOrder)
}

func bindOrderRequest(ctx *gin.Context, userID string) (orderRequest, bool) {
	var req orderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		initializers.Log.Debug("JSON binding error", zap.Error(err))
		sendBusinessError(ctx, http.StatusBadRequest, msgInvalidOrder)
		return req, false
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	if req.UserID == "" || (userID != "" && req.UserID != userID) {
		sendBusinessError(ctx, http.StatusBadRequest, msgInvalidOrder)
		return req, false
	}
	if !middlewares.CanActFor(ctx, req.UserID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return req, false
	}
	if err := req.validate(); err != nil {
		sendBusinessError(ctx, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func sendOrderConfirmation(order models.Order) {
	if order.Email == "" {
		return
	}

	currency := strings.ToUpper(viper.GetString("CURRENCY"))
	data := utils.EmailData{
		Name:      order.FullName,
		Message:   "Thank you for supporting independent artists! Your order has been received.",
		ActionURL: viper.GetString("FRONTEND_URL") + "/orders",
		LogoURL:   viper.GetString("FRONTEND_URL") + "/images/logo.png",
		OrderID:   order.Reference,
		Total:     decimal.NewFromFloat(order.TotalAmount).StringFixed(2) + " " + currency,
	}
	for _, item := range order.OrderItems {
		data.Lines = append(data.Lines, utils.EmailLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    decimal.NewFromFloat(item.Price).StringFixed(2),
		})
	}

	err := utils.SendEmail(order.Email, "Your Art Corner order", data, filepath.Join("templates", "order_confirmation.html"))
	switch {
	case errors.Is(err, utils.ErrMailNotConfigured):
		initializers.Log.Debug("Skipping order confirmation email", zap.String("orderId", order.ID))
	case err != nil:
		initializers.Log.Warn("Error sending order confirmation", zap.String("orderId", order.ID), zap.Error(err))
	}
}

// CreateOrder places an order paid on delivery, by cash or card.
func CreateOrder(ctx *gin.Context) {
	req, ok := bindOrderRequest(ctx, ctx.Param("userId"))
	if !ok {
		return
	}
	if req.PaymentMethod != models.PaymentCash && req.PaymentMethod != models.PaymentCard {
		sendBusinessError(ctx, http.StatusBadRequest, "Unsupported payment method for direct orders")
		return
	}

	order, err := placeOrder(initializers.DB, req, models.PaymentStatusPending, nil)
	if err != nil {
		handlePlaceOrderError(ctx, err)
		return
	}

	initializers.Log.Info("Order created",
		zap.String("orderId", order.ID), zap.String("userId", order.UserID), zap.String("paymentMethod", order.PaymentMethod))
	go sendOrderConfirmation(*order)
	sendJSONResponse(ctx, http.StatusCreated, order)
}

func sortDirection(ctx *gin.Context) string {
	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return sortOrder
}

func GetOrders(ctx *gin.Context) {
	var orders []models.Order

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 15
	}
	offset := (page - 1) * limit

	query := initializers.DB.Model(&models.Order{})
	if search := ctx.Query("search"); search != "" {
		query = query.Where("reference LIKE ? OR full_name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to count orders", err)
		return
	}

	result := query.Preload("OrderItems").
		Order("created_at " + sortDirection(ctx)).
		Limit(limit).Offset(offset).
		Find(&orders)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch orders", result.Error)
		return
	}

	previousPage := page - 1
	nextPage := page + 1
	totalPages := math.Ceil(float64(count) / float64(limit))

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"metadata": gin.H{
			"total":        count,
			"currentPage":  page,
			"limit":        limit,
			"hasPrevPage":  previousPage > 0,
			"hasNextPage":  int(totalPages) > page,
			"previousPage": previousPage,
			"nextPage":     nextPage,
		},
	})
}

func GetOrdersByCustomer(ctx *gin.Context) {
	userID := ctx.Param("userId")
	if !middlewares.CanActFor(ctx, userID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return
	}

	query := initializers.DB.Preload("OrderItems").Where("user_id = ?", userID)
	if search := ctx.Query("search"); search != "" {
		query = query.Where("reference LIKE ?", "%"+search+"%")
	}

	var orders []models.Order
	if result := query.Order("created_at " + sortDirection(ctx)).Find(&orders); result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to fetch orders.", result.Error)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

func GetOrderById(ctx *gin.Context) {
	var order models.Order
	err := initializers.DB.Preload("OrderItems").Where("id = ?", ctx.Param("orderId")).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendErrorResponse(ctx, http.StatusNotFound, "Order not found.")
		return
	}
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to fetch order.", err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func UpdateOrderStatus(ctx *gin.Context) {
	var orderStatusData struct {
		Status string `json:"status" binding:"required,oneof=Pending Processing Completed Cancelled"`
	}
	if err := ctx.ShouldBindJSON(&orderStatusData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	result := initializers.DB.Model(&models.Order{}).
		Where("id = ?", ctx.Param("orderId")).
		Update("status", orderStatusData.Status)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to update order status", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusNotFound, "Order not found.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order status updated successfully."})
}

func DeleteOrder(ctx *gin.Context) {
	result := initializers.DB.Where("id = ?", ctx.Param("orderId")).Delete(&models.Order{})
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to delete order.", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusNotFound, "Order not found.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}

func GetUndeliveredOrders(ctx *gin.Context) {
	var count int64

	result := initializers.DB.
		Model(&models.Order{}).
		Where("status NOT IN ?", []string{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Count(&count)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to count undelivered orders", result.Error)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"undeliveredOrderCount": count})
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgInvalidCartInput = "Invalid input"
	msgItemNotFound     = "Item not found"
	msgFailedToLoadCart = "Failed to fetch cart"
	msgFailedToSaveCart = "Unable to update cart"
)

type cartProductView struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Capacity int     `json:"capacity"`
	Image    string  `json:"image,omitempty"`
}

// cartLineView is one element of the array every cart endpoint answers with.
// Product is null when the referenced artwork or event no longer exists.
type cartLineView struct {
	ID       string           `json:"_id"`
	Product  *cartProductView `json:"product"`
	Quantity int              `json:"quantity"`
	ItemType stock.ItemType   `json:"itemType"`
}

type insufficientStockError struct {
	name      string
	available int
}

func (e *insufficientStockError) Error() string {
	if e.available <= 0 {
		return fmt.Sprintf("%s is sold out", e.name)
	}
	return fmt.Sprintf("Only %d of %s available", e.available, e.name)
}

func newInsufficientStock(item catalogItem) *insufficientStockError {
	return &insufficientStockError{name: item.Name, available: stock.Ceiling(item.ItemType, item.Quantity, item.Capacity)}
}

func loadCartLines(db *gorm.DB, userID string) ([]cartLineView, error) {
	lines := []cartLineView{}

	var cart models.Cart
	err := db.Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lines, nil
	}
	if err != nil {
		return nil, err
	}

	keys := make([]catalogKey, 0, len(cart.Items))
	for _, item := range cart.Items {
		keys = append(keys, catalogKey{item.ItemType.OrDefault(), item.ItemID})
	}
	catalog, err := findCatalogItems(db, keys)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		line := cartLineView{
			ID:       strconv.FormatUint(uint64(item.ID), 10),
			Quantity: item.Quantity,
			ItemType: item.ItemType.OrDefault(),
		}
		if c, ok := catalog[catalogKey{line.ItemType, item.ItemID}]; ok {
			line.Product = &cartProductView{
				ID:       c.ID,
				Name:     c.Name,
				Price:    c.Price,
				Quantity: c.Quantity,
				Capacity: c.Capacity,
				Image:    c.Image,
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func findOrCreateCart(tx *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	return cart, err
}

func respondWithCart(ctx *gin.Context, userID string) {
	lines, err := loadCartLines(initializers.DB, userID)
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, msgFailedToLoadCart, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, lines)
}

// setCartLine stores quantity for a line, creating the cart and the line when missing.
// A quantity of zero removes the line.
func setCartLine(tx *gorm.DB, userID string, itemType stock.ItemType, itemID string, quantity func(existing int) int, item catalogItem) error {
	cart, err := findOrCreateCart(tx, userID)
	if err != nil {
		return err
	}

	var line models.CartItem
	err = tx.Where("cart_id = ? AND item_id = ? AND item_type = ?", cart.ID, itemID, itemType).First(&line).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		line = models.CartItem{CartID: cart.ID, ItemID: itemID, ItemType: itemType}
	}

	next := quantity(line.Quantity)
	if next <= 0 {
		if line.ID == 0 {
			return nil
		}
		return tx.Delete(&line).Error
	}
	if !stock.IsFulfillable(item.stockLine(next), next) {
		return newInsufficientStock(item)
	}
	line.Quantity = next
	return tx.Save(&line).Error
}

func handleCartWriteError(ctx *gin.Context, err error) {
	var stockErr *insufficientStockError
	if errors.As(err, &stockErr) {
		sendBusinessError(ctx, http.StatusConflict, stockErr.Error())
		return
	}
	respondWithError(ctx, http.StatusInternalServerError, msgFailedToSaveCart, err)
}

func lookupCartItem(ctx *gin.Context, itemType stock.ItemType, itemID string) (catalogItem, bool) {
	if !itemType.Valid() {
		sendErrorResponse(ctx, http.StatusBadRequest, "Unknown item type")
		return catalogItem{}, false
	}
	item, err := findCatalogItem(initializers.DB, itemType, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendBusinessError(ctx, http.StatusNotFound, msgItemNotFound)
		return catalogItem{}, false
	}
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, msgFailedToSaveCart, err)
		return catalogItem{}, false
	}
	return item, true
}

func GetCart(ctx *gin.Context) {
	userID := ctx.Param("userId")
	if !middlewares.CanActFor(ctx, userID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return
	}
	respondWithCart(ctx, userID)
}

func AddToCart(ctx *gin.Context) {
	var req struct {
		UserID   string         `json:"userId" binding:"required"`
		ItemID   string         `json:"itemId" binding:"required"`
		Quantity int            `json:"quantity" binding:"required,gt=0"`
		ItemType stock.ItemType `json:"itemType"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		initializers.Log.Debug("Bind error", zap.Error(err))
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCartInput)
		return
	}
	if !middlewares.CanActFor(ctx, req.UserID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return
	}

	itemType := req.ItemType.OrDefault()
	item, ok := lookupCartItem(ctx, itemType, req.ItemID)
	if !ok {
		return
	}

	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		return setCartLine(tx, req.UserID, itemType, req.ItemID, func(existing int) int {
			return existing + req.Quantity
		}, item)
	})
	if err != nil {
		handleCartWriteError(ctx, err)
		return
	}

	initializers.Log.Info("Item added to cart",
		zap.String("userId", req.UserID), zap.String("itemId", req.ItemID), zap.Int("quantity", req.Quantity))
	respondWithCart(ctx, req.UserID)
}

func UpdateCartItem(ctx *gin.Context) {
	var req struct {
		UserID    string         `json:"userId" binding:"required"`
		ProductID string         `json:"productId" binding:"required"`
		Quantity  int            `json:"quantity"`
		ItemType  stock.ItemType `json:"itemType"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		initializers.Log.Debug("Bind error", zap.Error(err))
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCartInput)
		return
	}
	if !middlewares.CanActFor(ctx, req.UserID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return
	}

	itemType := req.ItemType.OrDefault()
	item, ok := lookupCartItem(ctx, itemType, req.ProductID)
	if !ok {
		return
	}

	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		return setCartLine(tx, req.UserID, itemType, req.ProductID, func(int) int {
			return req.Quantity
		}, item)
	})
	if err != nil {
		handleCartWriteError(ctx, err)
		return
	}

	respondWithCart(ctx, req.UserID)
}

func RemoveCartItem(ctx *gin.Context) {
	var req struct {
		UserID    string         `json:"userId" binding:"required"`
		ProductID string         `json:"productId" binding:"required"`
		ItemType  stock.ItemType `json:"itemType"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		initializers.Log.Debug("Bind error", zap.Error(err))
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCartInput)
		return
	}
	if !middlewares.CanActFor(ctx, req.UserID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return
	}

	err := initializers.DB.
		Where("item_id = ? AND item_type = ? AND cart_id IN (?)", req.ProductID, req.ItemType.OrDefault(),
			initializers.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", req.UserID)).
		Delete(&models.CartItem{}).Error
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, msgFailedToSaveCart, err)
		return
	}

	respondWithCart(ctx, req.UserID)
}

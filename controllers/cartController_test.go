package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kariqs/artcorner-api/models"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCartWithoutCartReturnsEmptyArray(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)

	rec := performRequest(r, http.MethodGet, "/api/cart/"+user.ID, token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCartRejectsOtherUsers(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	owner, _ := createUser(t, db, "owner", models.RoleUser)
	_, intruder := createUser(t, db, "intruder", models.RoleUser)
	_, admin := createUser(t, db, "curator", models.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, performRequest(r, http.MethodGet, "/api/cart/"+owner.ID, intruder, nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/api/cart/"+owner.ID, admin, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(r, http.MethodGet, "/api/cart/"+owner.ID, "", nil).Code)
}

func TestAddToCartMergesQuantityWithinStock(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)
	artwork := createProduct(t, db, "Blue Harbour", 40, 3)

	add := func(qty int) *httptest.ResponseRecorder {
		return performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
			gin.H{"userId": user.ID, "itemId": artwork.ID, "quantity": qty, "itemType": "Product"})
	}

	rec := add(2)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := decodeBody[[]cartLineView](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	require.NotNil(t, lines[0].Product)
	assert.Equal(t, artwork.ID, lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Product.Quantity)

	rec = add(1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeBody[[]cartLineView](t, rec)[0].Quantity, "exactly at stock is allowed")

	rec = add(1)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Only 3 of Blue Harbour available", decodeBody[map[string]string](t, rec)["error"])

	var line models.CartItem
	require.NoError(t, db.Where("item_id = ?", artwork.ID).First(&line).Error)
	assert.Equal(t, 3, line.Quantity)
}

func TestAddToCartUsesCapacityForEvents(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)
	workshop := createEvent(t, db, "Ink Workshop", 15, 2)

	rec := performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": workshop.ID, "quantity": 2, "itemType": "Event"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := decodeBody[[]cartLineView](t, rec)
	assert.Equal(t, stock.ItemEvent, lines[0].ItemType)
	assert.Equal(t, 2, lines[0].Product.Capacity)

	rec = performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": workshop.ID, "quantity": 1, "itemType": "Event"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddToCartUnknownItem(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)

	rec := performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": "missing", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": "missing", "quantity": 1, "itemType": "Gallery"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCartItemSetsAbsoluteQuantity(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)
	artwork := createProduct(t, db, "Blue Harbour", 40, 5)

	update := func(qty int) *httptest.ResponseRecorder {
		return performRequest(r, http.MethodPost, "/api/cart/update", token,
			gin.H{"userId": user.ID, "productId": artwork.ID, "quantity": qty, "itemType": "Product"})
	}

	rec := update(4)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decodeBody[[]cartLineView](t, rec)[0].Quantity)

	rec = update(2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[[]cartLineView](t, rec)[0].Quantity)

	assert.Equal(t, http.StatusConflict, update(6).Code)

	rec = update(0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRemoveCartItem(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)
	keep := createProduct(t, db, "Keep", 10, 5)
	drop := createProduct(t, db, "Drop", 10, 5)

	for _, p := range []models.Product{keep, drop} {
		rec := performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
			gin.H{"userId": user.ID, "itemId": p.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := performRequest(r, http.MethodDelete, "/api/cart/remove", token,
		gin.H{"userId": user.ID, "productId": drop.ID, "itemType": "Product"})
	require.Equal(t, http.StatusOK, rec.Code)
	lines := decodeBody[[]cartLineView](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, keep.ID, lines[0].Product.ID)

	rec = performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": drop.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, "a removed line can be added again")
	assert.Len(t, decodeBody[[]cartLineView](t, rec), 2)
}

func TestCartLineWithDeletedProductHasNullProduct(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "ada", models.RoleUser)
	artwork := createProduct(t, db, "Withdrawn", 10, 5)

	rec := performRequest(r, http.MethodPost, "/api/cart/add-to-cart", token,
		gin.H{"userId": user.ID, "itemId": artwork.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, db.Delete(&artwork).Error)

	rec = performRequest(r, http.MethodGet, "/api/cart/"+user.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := decodeBody[[]cartLineView](t, rec)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].Product)
}

package controllers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kariqs/artcorner-api/models"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProductsFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	createProduct(t, db, "Cheap Sketch", 15, 1)
	createProduct(t, db, "Grand Canvas", 900, 1)
	sculpture := models.Product{Name: "Bronze Hare", Price: 300, Quantity: 0, Category: "sculpture"}
	require.NoError(t, db.Create(&sculpture).Error)

	type listing struct {
		Products []models.Product `json:"products"`
		Metadata struct {
			Total int64 `json:"total"`
		} `json:"metadata"`
	}

	rec := performRequest(r, http.MethodGet, "/api/products?category=painting&sort=price_desc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[listing](t, rec)
	require.Len(t, body.Products, 2)
	assert.Equal(t, "Grand Canvas", body.Products[0].Name)
	assert.EqualValues(t, 2, body.Metadata.Total)

	rec = performRequest(r, http.MethodGet, "/api/products?inStock=true&sort=price_asc", "", nil)
	body = decodeBody[listing](t, rec)
	require.Len(t, body.Products, 2)
	assert.Equal(t, "Cheap Sketch", body.Products[0].Name)

	rec = performRequest(r, http.MethodGet, "/api/products/"+sculpture.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bronze Hare", decodeBody[models.Product](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/api/products/missing", "", nil).Code)
}

func TestGetEventsUpcoming(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter()
	past := models.Event{Title: "Closing Night", StartsAt: time.Now().Add(-48 * time.Hour), Capacity: 10}
	soon := models.Event{Title: "Print Fair", StartsAt: time.Now().Add(24 * time.Hour), Capacity: 10}
	later := models.Event{Title: "Portrait Workshop", StartsAt: time.Now().Add(72 * time.Hour), Capacity: 10}
	for _, e := range []*models.Event{&later, &past, &soon} {
		require.NoError(t, db.Create(e).Error)
	}

	rec := performRequest(r, http.MethodGet, "/api/events?upcoming=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Events []models.Event `json:"events"`
	}](t, rec)
	require.Len(t, body.Events, 2)
	assert.Equal(t, "Print Fair", body.Events[0].Title)
	assert.Equal(t, "Portrait Workshop", body.Events[1].Title)
}

func TestReserveStock(t *testing.T) {
	db := setupTestDB(t)
	painting := createProduct(t, db, "Night Garden", 10, 2)
	talk := createEvent(t, db, "Artist Talk", 0, 1)

	ok, err := reserveStock(db, stock.ItemProduct, painting.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reserveStock(db, stock.ItemProduct, painting.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "sold out")

	ok, err = reserveStock(db, stock.ItemEvent, talk.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = reserveStock(db, "Gallery", talk.ID, 1)
	assert.ErrorIs(t, err, errUnknownItemType)
}

type fakeUploader struct {
	keys []string
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.fail {
		return nil, errors.New("bucket unavailable")
	}
	f.keys = append(f.keys, *input.Key)
	return &manager.UploadOutput{Location: "https://cdn.test/" + *input.Key}, nil
}

func TestUploadProductImages(t *testing.T) {
	db := setupTestDB(t)
	painting := createProduct(t, db, "Night Garden", 10, 2)

	uploader := &fakeUploader{}
	previous := newImageUploader
	newImageUploader = func(context.Context) (imageUploader, error) { return uploader, nil }
	t.Cleanup(func() { newImageUploader = previous })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/products/:id/images", UploadProductImages)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("images", "garden.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg bytes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+painting.ID+"/images", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, uploader.keys, 1)
	assert.Contains(t, uploader.keys[0], "artworks/"+painting.ID+"/")
	assert.Contains(t, uploader.keys[0], ".jpg")

	var images []models.ProductImage
	require.NoError(t, db.Where("product_id = ?", painting.ID).Find(&images).Error)
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.test/"+uploader.keys[0], images[0].Url)
}

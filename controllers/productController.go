package controllers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type imageUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// getAWSUploader returns an S3 uploader built from the default AWS credential chain
func getAWSUploader(ctx context.Context) (imageUploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return manager.NewUploader(client), nil
}

var newImageUploader = getAWSUploader

type pageParams struct {
	page, limit, offset int
}

func readPageParams(ctx *gin.Context, defaultLimit int) pageParams {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return pageParams{page: page, limit: limit, offset: (page - 1) * limit}
}

func (p pageParams) metadata(total int64) gin.H {
	return gin.H{
		"total":       total,
		"page":        p.page,
		"limit":       p.limit,
		"totalPages":  int(math.Ceil(float64(total) / float64(p.limit))),
		"hasNextPage": int64(p.page*p.limit) < total,
	}
}

var productOrderings = map[string]string{
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"oldest":     "created_at ASC",
	"newest":     "created_at DESC",
}

func CreateProduct(ctx *gin.Context) {
	var product models.Product
	if err := ctx.ShouldBindJSON(&product); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	product.ID = ""
	product.Images = nil
	if product.ArtistID == "" {
		product.ArtistID = middlewares.UserID(ctx)
	}

	if err := initializers.DB.Create(&product).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to create product", err)
		return
	}

	ctx.JSON(http.StatusCreated, product)
}

func UploadProductImages(ctx *gin.Context) {
	productID := ctx.Param("id")

	form, err := ctx.MultipartForm()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		respondWithError(ctx, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	var product models.Product
	if err := initializers.DB.Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(ctx, http.StatusNotFound, "Product not found", nil)
		} else {
			respondWithError(ctx, http.StatusInternalServerError, "Failed to validate product", err)
		}
		return
	}

	uploader, err := newImageUploader(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to configure AWS", err)
		return
	}

	var uploadedUrls []string
	var failedUploads []string

	for _, file := range files {
		f, openErr := file.Open()
		if openErr != nil {
			initializers.Log.Warn("Error opening file", zap.String("file", file.Filename), zap.Error(openErr))
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		key := fmt.Sprintf("artworks/%s/%s-%s%s", product.ID, time.Now().Format("20060102150405"), uuid.NewString()[:8], filepath.Ext(file.Filename))

		result, uploadErr := uploader.Upload(ctx.Request.Context(), &s3.PutObjectInput{
			Bucket:      aws.String(viper.GetString("AWS_BUCKET")),
			Key:         aws.String(key),
			Body:        f,
			ACL:         "public-read",
			ContentType: aws.String(file.Header.Get("Content-Type")),
		})
		f.Close()

		if uploadErr != nil {
			initializers.Log.Warn("Error uploading file", zap.String("file", file.Filename), zap.Error(uploadErr))
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		image := models.ProductImage{Url: result.Location, ProductID: product.ID}
		if err := initializers.DB.Create(&image).Error; err != nil {
			// The object is already in the bucket; the url is still reported to the caller.
			initializers.Log.Error("Error saving image to database", zap.Error(err))
		}
		uploadedUrls = append(uploadedUrls, result.Location)
	}

	response := gin.H{
		"message": "Files processed",
		"urls":    uploadedUrls,
	}
	if len(failedUploads) > 0 {
		response["failed"] = failedUploads
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProducts(ctx *gin.Context) {
	var products []models.Product
	paging := readPageParams(ctx, 12)

	query := initializers.DB.Model(&models.Product{})
	if search := ctx.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if ctx.Query("inStock") == "true" {
		query = query.Where("quantity > 0")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to count products", err)
		return
	}

	ordering, ok := productOrderings[ctx.Query("sort")]
	if !ok {
		ordering = productOrderings["newest"]
	}

	result := query.Preload("Images").Order(ordering).Limit(paging.limit).Offset(paging.offset).Find(&products)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch products", result.Error)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"metadata": paging.metadata(count),
	})
}

func GetProduct(ctx *gin.Context) {
	var product models.Product
	result := initializers.DB.Preload("Images").Where("id = ?", ctx.Param("id")).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondWithError(ctx, http.StatusNotFound, "Product not found", nil)
		} else {
			respondWithError(ctx, http.StatusInternalServerError, "Unable to retrieve product", result.Error)
		}
		return
	}

	ctx.JSON(http.StatusOK, product)
}

package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var eventOrderings = map[string]string{
	"date_asc":   "starts_at ASC",
	"date_desc":  "starts_at DESC",
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
}

func CreateEvent(ctx *gin.Context) {
	var event models.Event
	if err := ctx.ShouldBindJSON(&event); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	event.ID = ""
	if event.OrganizerID == "" {
		event.OrganizerID = middlewares.UserID(ctx)
	}

	if err := initializers.DB.Create(&event).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to create event", err)
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// GetEvents lists events, soonest first unless another ordering is requested.
func GetEvents(ctx *gin.Context) {
	var events []models.Event
	paging := readPageParams(ctx, 12)

	query := initializers.DB.Model(&models.Event{})
	if ctx.Query("upcoming") == "true" {
		query = query.Where("starts_at >= ?", time.Now())
	}
	if search := ctx.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to count events", err)
		return
	}

	ordering, ok := eventOrderings[ctx.Query("sort")]
	if !ok {
		ordering = eventOrderings["date_asc"]
	}

	if err := query.Order(ordering).Limit(paging.limit).Offset(paging.offset).Find(&events).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch events", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"events":   events,
		"metadata": paging.metadata(count),
	})
}

func GetEvent(ctx *gin.Context) {
	var event models.Event
	err := initializers.DB.Where("id = ?", ctx.Param("id")).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondWithError(ctx, http.StatusNotFound, "Event not found", nil)
		return
	}
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to retrieve event", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

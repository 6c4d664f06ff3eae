package controllers

import (
	"errors"
	"fmt"

	"github.com/Kariqs/artcorner-api/models"
	"github.com/Kariqs/artcorner-api/stock"
	"gorm.io/gorm"
)

var errUnknownItemType = errors.New("unknown item type")

// catalogItem is the purchasable view shared by artworks and events.
type catalogItem struct {
	ID       string
	ItemType stock.ItemType
	Name     string
	Price    float64
	Quantity int
	Capacity int
	Image    string
}

func (c catalogItem) stockLine(requested int) stock.Line {
	return stock.Line{
		ID:        c.ID,
		Name:      c.Name,
		ItemType:  c.ItemType,
		Quantity:  c.Quantity,
		Capacity:  c.Capacity,
		Requested: requested,
	}
}

func productItem(p models.Product) catalogItem {
	item := catalogItem{ID: p.ID, ItemType: stock.ItemProduct, Name: p.Name, Price: p.Price, Quantity: p.Quantity}
	if len(p.Images) > 0 {
		item.Image = p.Images[0].Url
	}
	return item
}

func eventItem(e models.Event) catalogItem {
	return catalogItem{ID: e.ID, ItemType: stock.ItemEvent, Name: e.Title, Price: e.Price, Capacity: e.Capacity}
}

func findCatalogItem(db *gorm.DB, itemType stock.ItemType, id string) (catalogItem, error) {
	switch itemType {
	case stock.ItemProduct:
		var product models.Product
		if err := db.Preload("Images").Where("id = ?", id).First(&product).Error; err != nil {
			return catalogItem{}, err
		}
		return productItem(product), nil
	case stock.ItemEvent:
		var event models.Event
		if err := db.Where("id = ?", id).First(&event).Error; err != nil {
			return catalogItem{}, err
		}
		return eventItem(event), nil
	default:
		return catalogItem{}, fmt.Errorf("%w: %q", errUnknownItemType, itemType)
	}
}

type catalogKey struct {
	itemType stock.ItemType
	id       string
}

// findCatalogItems loads every referenced artwork and event with two queries.
// Keys that no longer resolve are absent from the result.
func findCatalogItems(db *gorm.DB, keys []catalogKey) (map[catalogKey]catalogItem, error) {
	var productIDs, eventIDs []string
	for _, k := range keys {
		if k.itemType == stock.ItemEvent {
			eventIDs = append(eventIDs, k.id)
		} else {
			productIDs = append(productIDs, k.id)
		}
	}

	items := make(map[catalogKey]catalogItem, len(keys))
	if len(productIDs) > 0 {
		var products []models.Product
		if err := db.Preload("Images").Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			items[catalogKey{stock.ItemProduct, p.ID}] = productItem(p)
		}
	}
	if len(eventIDs) > 0 {
		var events []models.Event
		if err := db.Where("id IN ?", eventIDs).Find(&events).Error; err != nil {
			return nil, err
		}
		for _, e := range events {
			items[catalogKey{stock.ItemEvent, e.ID}] = eventItem(e)
		}
	}
	return items, nil
}

// reserveStock atomically takes qty units of an item, failing when fewer remain.
func reserveStock(tx *gorm.DB, itemType stock.ItemType, id string, qty int) (bool, error) {
	var (
		model  any
		column string
	)
	switch itemType {
	case stock.ItemProduct:
		model, column = &models.Product{}, "quantity"
	case stock.ItemEvent:
		model, column = &models.Event{}, "capacity"
	default:
		return false, fmt.Errorf("%w: %q", errUnknownItemType, itemType)
	}

	result := tx.Model(model).
		Where("id = ? AND "+column+" >= ?", id, qty).
		UpdateColumn(column, gorm.Expr(column+" - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

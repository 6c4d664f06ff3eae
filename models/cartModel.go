package models

import (
	"time"

	"github.com/Kariqs/artcorner-api/stock"
)

type Cart struct {
	Base
	UserID string     `json:"userId" gorm:"type:varchar(36);uniqueIndex"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// CartItem rows are hard deleted so that a removed line can be added again
// without tripping the unique line index.
type CartItem struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	CartID    string         `json:"cartId" gorm:"type:varchar(36);uniqueIndex:idx_cart_line"`
	ItemID    string         `json:"itemId" gorm:"type:varchar(36);uniqueIndex:idx_cart_line"`
	ItemType  stock.ItemType `json:"itemType" gorm:"type:varchar(16);uniqueIndex:idx_cart_line"`
	Quantity  int            `json:"quantity"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProductImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Url       string    `json:"url" binding:"required"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);index"`
}

// Product is an artwork offered for sale. Quantity is the number of copies on hand.
type Product struct {
	Base
	ArtistID    string         `json:"artistId" gorm:"type:varchar(36);index"`
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Price       float64        `json:"price" binding:"required,gt=0" gorm:"type:decimal(10,2)"`
	Quantity    int            `json:"quantity" binding:"gte=0"`
	Category    string         `json:"category" gorm:"type:varchar(64);index"`
	Tags        datatypes.JSON `json:"tags"`
	Images      []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

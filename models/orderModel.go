package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kariqs/artcorner-api/stock"
	"github.com/Kariqs/artcorner-api/utils"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusCompleted  = "Completed"
	OrderStatusCancelled  = "Cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusUnpaid  = "unpaid"

	PaymentOnline = "online"
	PaymentCash   = "cash"
	PaymentCard   = "card"

	DeliveryShipping = "delivery"
	DeliveryPickup   = "pickup"
)

type Order struct {
	Base
	Reference       string      `json:"reference" gorm:"type:varchar(16);uniqueIndex"`
	UserID          string      `json:"userId" gorm:"type:varchar(36);index"`
	FullName        string      `json:"fullName"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	PostalCode      string      `json:"postalCode"`
	DeliveryMethod  string      `json:"deliveryMethod"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentStatus   string      `json:"paymentStatus"`
	Status          string      `json:"status"`
	TotalAmount     float64     `json:"totalAmount" gorm:"type:decimal(10,2)"`
	StripeSessionID *string     `json:"sessionId,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	OrderItems      []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	OrderID   string         `json:"orderId" gorm:"type:varchar(36);index"`
	ItemID    string         `json:"itemId" gorm:"type:varchar(36)"`
	ItemType  stock.ItemType `json:"itemType" gorm:"type:varchar(16)"`
	Name      string         `json:"name"`
	Price     float64        `json:"price" gorm:"type:decimal(10,2)"`
	Quantity  int            `json:"quantity"`
}

// BeforeCreate assigns the id and the public reference, e.g. AC-3F9A01BC.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if err := o.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if o.Reference == "" {
		code, err := utils.GenerateCode(4)
		if err != nil {
			return fmt.Errorf("generate order reference: %w", err)
		}
		o.Reference = "AC-" + strings.ToUpper(code)
	}
	return nil
}

// TicketOnly reports whether every line of the order is an event ticket.
func (o *Order) TicketOnly() bool {
	if len(o.OrderItems) == 0 {
		return false
	}
	for _, item := range o.OrderItems {
		if item.ItemType != stock.ItemEvent {
			return false
		}
	}
	return true
}

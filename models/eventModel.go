package models

import "time"

// Event is a ticketed happening. Capacity is the number of tickets still available.
type Event struct {
	Base
	OrganizerID string    `json:"organizerId" gorm:"type:varchar(36);index"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
	Price       float64   `json:"price" binding:"gte=0" gorm:"type:decimal(10,2)"`
	Capacity    int       `json:"capacity" binding:"gte=0"`
}

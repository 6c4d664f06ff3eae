// Package stock decides whether a requested quantity of a catalog item can be fulfilled.
// Artwork products are limited by their quantity on hand, events by their remaining capacity.
package stock

type ItemType string

const (
	ItemProduct ItemType = "Product"
	ItemEvent   ItemType = "Event"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t == ItemProduct || t == ItemEvent
}

// OrDefault returns t, or ItemProduct when t is empty.
func (t ItemType) OrDefault() ItemType {
	if t == "" {
		return ItemProduct
	}
	return t
}

// Line is the stock view of a single cart or order line.
type Line struct {
	ID        string
	Name      string
	ItemType  ItemType
	Quantity  int // units on hand, products only
	Capacity  int // remaining seats, events only
	Requested int
}

// Ceiling is the largest quantity of an item that can be requested.
func Ceiling(itemType ItemType, quantity, capacity int) int {
	if itemType == ItemEvent {
		return capacity
	}
	return quantity
}

// IsFulfillable reports whether requested units of line can be supplied.
// A request exactly at the ceiling is fulfillable.
func IsFulfillable(line Line, requested int) bool {
	if requested <= 0 {
		return false
	}
	return requested <= Ceiling(line.ItemType, line.Quantity, line.Capacity)
}

// Unfulfillable returns every line whose Requested quantity cannot be supplied.
func Unfulfillable(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		if !IsFulfillable(l, l.Requested) {
			out = append(out, l)
		}
	}
	return out
}

package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCeiling(t *testing.T) {
	assert.Equal(t, 4, Ceiling(ItemProduct, 4, 100))
	assert.Equal(t, 100, Ceiling(ItemEvent, 4, 100))
	assert.Equal(t, 4, Ceiling("", 4, 100), "unknown types are treated as products")
}

func TestIsFulfillable(t *testing.T) {
	product := Line{ItemType: ItemProduct, Quantity: 2}
	event := Line{ItemType: ItemEvent, Quantity: 0, Capacity: 3}

	tests := []struct {
		name      string
		line      Line
		requested int
		want      bool
	}{
		{"product below stock", product, 1, true},
		{"product exactly at stock", product, 2, true},
		{"product above stock", product, 3, false},
		{"event at capacity", event, 3, true},
		{"event above capacity", event, 4, false},
		{"event ignores quantity", Line{ItemType: ItemEvent, Quantity: 50, Capacity: 1}, 2, false},
		{"zero requested", product, 0, false},
		{"negative requested", product, -1, false},
		{"sold out", Line{ItemType: ItemProduct}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFulfillable(tt.line, tt.requested))
		})
	}
}

func TestUnfulfillable(t *testing.T) {
	lines := []Line{
		{ID: "a", ItemType: ItemProduct, Quantity: 1, Requested: 1},
		{ID: "b", ItemType: ItemProduct, Quantity: 0, Requested: 1},
		{ID: "c", ItemType: ItemEvent, Capacity: 10, Requested: 11},
	}

	bad := Unfulfillable(lines)
	if assert.Len(t, bad, 2) {
		assert.Equal(t, "b", bad[0].ID)
		assert.Equal(t, "c", bad[1].ID)
	}
	assert.Empty(t, Unfulfillable(lines[:1]))
}

func TestItemType(t *testing.T) {
	assert.True(t, ItemProduct.Valid())
	assert.True(t, ItemEvent.Valid())
	assert.False(t, ItemType("Gallery").Valid())
	assert.Equal(t, ItemProduct, ItemType("").OrDefault())
	assert.Equal(t, ItemEvent, ItemEvent.OrDefault())
}

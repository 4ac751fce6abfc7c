package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPayableAmount(t *testing.T) {
	tests := []struct {
		name        string
		itemTotal   int64
		deliveryFee int64
		taxRateBps  int64
		want        int64
	}{
		{"tax divides evenly", 1000, 50, 500, 1100},
		{"tax rounds up at half", 10, 50, 500, 61},   // 5% of 10 = 0.5, rounds to 1
		{"tax rounds down below half", 9, 50, 500, 59}, // 5% of 9 = 0.45, rounds to 0
		{"zero items", 0, 50, 500, 50},
		{"no fee no tax", 700, 0, 0, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PayableAmount(tt.itemTotal, tt.deliveryFee, tt.taxRateBps))
		})
	}
}

func TestNewOrderItem(t *testing.T) {
	itemID := primitive.NewObjectID()

	item, err := NewOrderItem(itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, itemID, item.ItemID)
	assert.Equal(t, 2, item.Quantity)

	_, err = NewOrderItem(primitive.NilObjectID, 1)
	assert.Error(t, err)

	_, err = NewOrderItem(itemID, 0)
	assert.Error(t, err)
}

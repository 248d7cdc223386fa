package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(v uint) *uint { return &v }

func TestOrderItemValidate(t *testing.T) {
	cases := []struct {
		name string
		item OrderItem
		err  error
	}{
		{"produce line", OrderItem{OrderID: 1, ProduceID: ptr(3), Quantity: 2}, nil},
		{"processed line", OrderItem{OrderID: 1, ProcessedFoodID: ptr(4), Quantity: 1}, nil},
		{"both refs", OrderItem{OrderID: 1, ProduceID: ptr(3), ProcessedFoodID: ptr(4), Quantity: 1}, errItemReference},
		{"no ref", OrderItem{OrderID: 1, Quantity: 1}, errItemReference},
		{"zero quantity", OrderItem{OrderID: 1, ProduceID: ptr(3)}, errItemQuantity},
		{"unsaved order", OrderItem{ProduceID: ptr(3), Quantity: 1}, errItemOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.err, tc.item.Validate())
		})
	}
}

func TestProduceValidate(t *testing.T) {
	ok := Produce{Name: "Maize", Quantity: 0, Price: decimal.RequireFromString("12.50")}
	assert.NoError(t, ok.Validate())

	neg := ok
	neg.Quantity = -1
	assert.Error(t, neg.Validate())

	free := ok
	free.Price = decimal.NewFromInt(-1)
	assert.Error(t, free.Validate())

	noName := ok
	noName.Name = ""
	assert.Error(t, noName.Validate())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleFarmer))
	assert.True(t, ValidRole(RoleConsumer))
	assert.True(t, ValidRole(RoleStaff))
	assert.False(t, ValidRole("admin"))
}

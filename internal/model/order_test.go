package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusPaid, StatusCooking, StatusCompleted} {
		assert.True(t, s.Valid(), "expected %q to be valid", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("cancelled").Valid())
	assert.False(t, Status("PENDING").Valid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending straight to paid", StatusPending, StatusPaid, true},
		{"approved to paid", StatusApproved, StatusPaid, true},
		{"paid to cooking", StatusPaid, StatusCooking, true},
		{"cooking to completed", StatusCooking, StatusCompleted, true},
		{"pending cannot cook", StatusPending, StatusCooking, false},
		{"approved cannot cook unpaid", StatusApproved, StatusCooking, false},
		{"no skipping to completed", StatusPaid, StatusCompleted, false},
		{"completed is terminal", StatusCompleted, StatusCooking, false},
		{"never backwards", StatusCooking, StatusPaid, false},
		{"never back to pending", StatusApproved, StatusPending, false},
		{"same state rejected", StatusPaid, StatusPaid, false},
		{"unknown from", Status("weird"), StatusPaid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestItemsTotal(t *testing.T) {
	assert.Equal(t, 0.0, ItemsTotal(nil))
	items := []OrderItem{
		{Name: "Plov", Quantity: 2, Price: 1800},
		{Name: "Tea", Quantity: 3, Price: 250},
	}
	assert.Equal(t, 4350.0, ItemsTotal(items))
}

func TestNormalizeItems(t *testing.T) {
	t.Run("array form", func(t *testing.T) {
		got, err := NormalizeItems([]byte(`[{"name":"Lagman","quantity":1,"price":2100}]`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Lagman", got[0].Name)
		assert.Equal(t, int64(1), got[0].Quantity)
		assert.Equal(t, 2100.0, got[0].Price)
	})

	t.Run("keyed object form keeps positional order", func(t *testing.T) {
		raw := []byte(`{"1":{"name":"Tea","quantity":2,"price":250},"0":{"name":"Plov","quantity":1,"price":1800}}`)
		got, err := NormalizeItems(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Plov", got[0].Name)
		assert.Equal(t, "Tea", got[1].Name)
	})

	t.Run("empty and null yield empty slice", func(t *testing.T) {
		for _, raw := range [][]byte{nil, {}, []byte("null")} {
			got, err := NormalizeItems(raw)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		}
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := NormalizeItems([]byte(`{"name":`))
		assert.Error(t, err)
	})
}

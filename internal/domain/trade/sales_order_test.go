package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSaleOrder_Validate(t *testing.T) {
	t.Run("requires at least one line", func(t *testing.T) {
		o := &SaleOrder{
			ID:        uuid.New(),
			Name:      "AMZ-028-1234",
			Origin:    "028-1234",
			DateOrder: time.Now(),
		}
		assert.ErrorIs(t, o.Validate(), ErrSaleOrderNoLines)
	})

	t.Run("valid with lines", func(t *testing.T) {
		o := &SaleOrder{
			ID:     uuid.New(),
			Name:   "AMZ-028-1234",
			Origin: "028-1234",
			Lines: []SaleOrderLine{{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				SKU:       "SKU-1",
				Name:      "[SKU-1] Widget",
				Quantity:  2,
				PriceUnit: decimal.RequireFromString("9.99"),
			}},
		}
		assert.NoError(t, o.Validate())
	})
}

package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.True(t, Sum(nil).Equal(decimal.Zero))
	got := Sum([]decimal.Decimal{
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.20"),
		decimal.RequireFromString("1000000.05"),
	})
	assert.Equal(t, "1000000.35", got.StringFixed(2))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "2450.00", LineTotal(10, decimal.RequireFromString("245")).StringFixed(2))
	assert.Equal(t, "0.00", LineTotal(0, decimal.RequireFromString("99.99")).StringFixed(2))
	assert.Equal(t, "33.33", LineTotal(3, decimal.RequireFromString("11.11")).StringFixed(2))
}

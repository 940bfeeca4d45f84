package reference

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/reference/domain"
	"github.com/smallbiznis/ppmp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentsOrderedByName(t *testing.T) {
	db := testutil.NewDB(t, &domain.Department{})
	now := time.Now().UTC()
	require.NoError(t, db.Create(&[]domain.Department{
		{ID: 1, Code: "MHO", Name: "Municipal Health Office", CreatedAt: now},
		{ID: 2, Code: "MEO", Name: "Municipal Engineering Office", CreatedAt: now},
	}).Error)

	repo := NewRepository(db)
	departments, err := repo.ListDepartments(context.Background())
	require.NoError(t, err)
	require.Len(t, departments, 2)
	assert.Equal(t, "MEO", departments[0].Code)

	missing, err := repo.GetDepartment(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchProductsSkipsInactive(t *testing.T) {
	db := testutil.NewDB(t, &domain.Product{})
	now := time.Now().UTC()
	require.NoError(t, db.Create(&[]domain.Product{
		{ID: 1, Code: "BP-001", Name: "Bond Paper A4", Unit: "ream", UnitCost: decimal.RequireFromString("245.00"), IsActive: true, CreatedAt: now},
		{ID: 2, Code: "BP-002", Name: "Bond Paper Legal", Unit: "ream", UnitCost: decimal.RequireFromString("270.00"), IsActive: true, CreatedAt: now},
		{ID: 3, Code: "TN-001", Name: "Toner Cartridge", Unit: "pc", UnitCost: decimal.RequireFromString("3200.00"), IsActive: true, CreatedAt: now},
	}).Error)
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", 2).Update("is_active", false).Error)

	repo := NewRepository(db)
	products, err := repo.SearchProducts(context.Background(), "paper", 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "BP-001", products[0].Code)
	assert.True(t, products[0].UnitCost.Equal(decimal.RequireFromString("245")))
}

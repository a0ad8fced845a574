package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
)

// catalogWriteStub extends the read-only catalog stub with persistence for
// the update path.
type catalogWriteStub struct {
	*stubCatalogRepo
	categories map[int64]models.Category
	updated    *models.MenuItem
}

func (r *catalogWriteStub) GetCategoryByID(restaurantID, categoryID int64) (*models.Category, error) {
	category, ok := r.categories[categoryID]
	if !ok || category.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	return &category, nil
}

func (r *catalogWriteStub) UpdateMenuItem(_ repositories.SQLExecutor, item *models.MenuItem) error {
	cp := *item
	r.updated = &cp
	r.menuItems[item.ID] = cp
	return nil
}

func newCatalogServiceFixture(t *testing.T) (CatalogService, *catalogWriteStub) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	categoryID := int64(3)
	repo := &catalogWriteStub{
		stubCatalogRepo: &stubCatalogRepo{
			menuItems: map[int64]models.MenuItem{
				1: {
					ID:           1,
					RestaurantID: 1,
					CategoryID:   &categoryID,
					Name:         "Margherita Pizza",
					Price:        decimal.RequireFromString("10.00"),
					IsAvailable:  true,
				},
			},
		},
		categories: map[int64]models.Category{
			3: {ID: 3, RestaurantID: 1, Name: "Pizza"},
			4: {ID: 4, RestaurantID: 1, Name: "Specials"},
		},
	}
	return NewCatalogService(repo, db), repo
}

func TestUpdateMenuItemKeepsOmittedFields(t *testing.T) {
	svc, repo := newCatalogServiceFixture(t)

	// Toggling availability must leave price, name and category untouched.
	available := false
	item, err := svc.UpdateMenuItem(1, 1, UpdateMenuItemRequest{IsAvailable: &available})
	require.NoError(t, err)

	assert.False(t, item.IsAvailable)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("10.00")), "price: %s", item.Price)
	assert.Equal(t, "Margherita Pizza", item.Name)
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, int64(3), *item.CategoryID)

	require.NotNil(t, repo.updated)
	assert.True(t, repo.updated.Price.Equal(decimal.RequireFromString("10.00")))
}

func TestUpdateMenuItemAppliesPresentFields(t *testing.T) {
	svc, _ := newCatalogServiceFixture(t)

	name := "Margherita Grande"
	price := decimal.RequireFromString("12.50")
	categoryID := int64(4)
	item, err := svc.UpdateMenuItem(1, 1, UpdateMenuItemRequest{
		Name:       &name,
		Price:      &price,
		CategoryID: &categoryID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Margherita Grande", item.Name)
	assert.True(t, item.Price.Equal(price))
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, int64(4), *item.CategoryID)
	assert.True(t, item.IsAvailable, "availability was omitted and must not change")
}

func TestUpdateMenuItemRejectsBadInput(t *testing.T) {
	svc, repo := newCatalogServiceFixture(t)

	negative := decimal.RequireFromString("-1.00")
	_, err := svc.UpdateMenuItem(1, 1, UpdateMenuItemRequest{Price: &negative})
	assert.ErrorIs(t, err, ErrNegativePrice)

	unknownCategory := int64(99)
	_, err = svc.UpdateMenuItem(1, 1, UpdateMenuItemRequest{CategoryID: &unknownCategory})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = svc.UpdateMenuItem(1, 99, UpdateMenuItemRequest{})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	assert.Nil(t, repo.updated, "rejected updates must not persist")
}

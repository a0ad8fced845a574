package repositories

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptionByIDJoinsOwningRestaurant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewCatalogRepository(db)

	query := regexp.QuoteMeta(
		`SELECT o.id, o.option_group_id, o.name, o.price_delta, o.is_available, o.created_at FROM options o JOIN option_groups g ON g.id = o.option_group_id WHERE o.id = $1 AND g.restaurant_id = $2`)

	rows := sqlmock.NewRows([]string{"id", "option_group_id", "name", "price_delta", "is_available", "created_at"}).
		AddRow(int64(11), int64(1), "Extra Cheese", "1.50", true, time.Now())
	mock.ExpectQuery(query).WithArgs(int64(11), int64(1)).WillReturnRows(rows)

	option, err := repo.GetOptionByID(1, 11)
	require.NoError(t, err)
	assert.Equal(t, "Extra Cheese", option.Name)

	// The same option looked up under another restaurant matches no row.
	mock.ExpectQuery(query).WithArgs(int64(11), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "option_group_id", "name", "price_delta", "is_available", "created_at"}))

	_, err = repo.GetOptionByID(2, 11)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

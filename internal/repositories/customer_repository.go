package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dinehub_backend/internal/models"
)

// CustomerRepository defines database operations for customers.
type CustomerRepository interface {
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(restaurantID, customerID int64) (*models.Customer, error)
	FindCustomerByPhone(restaurantID int64, phone string) (*models.Customer, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, restaurant_id, name, phone, email, created_at, updated_at`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(
		&customer.ID, &customer.RestaurantID, &customer.Name, &customer.Phone,
		&customer.Email, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (restaurant_id, name, phone, email, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		customer.RestaurantID, customer.Name, customer.Phone, customer.Email, now, now,
	).Scan(&customer.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(restaurantID, customerID int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND restaurant_id = $2`
	customer, err := scanCustomer(r.db.QueryRow(query, customerID, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return customer, nil
}

func (r *customerRepository) FindCustomerByPhone(restaurantID int64, phone string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE restaurant_id = $1 AND phone = $2 ORDER BY id LIMIT 1`
	customer, err := scanCustomer(r.db.QueryRow(query, restaurantID, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding customer by phone: %v", ErrDatabaseError, err)
	}
	return customer, nil
}

func (r *customerRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET name = $1, phone = $2, email = $3, updated_at = $4 WHERE id = $5 AND restaurant_id = $6`
	result, err := executor.Exec(query,
		customer.Name, customer.Phone, customer.Email, time.Now(), customer.ID, customer.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	return requireRowsAffected(result, "customer")
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/orderflow"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(restaurantID, orderID int64) (*models.Order, error)
	GetOrders(restaurantID int64, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(executor SQLExecutor, orderID int64, fromStatus, newStatus orderflow.Status, completedAt *time.Time, updatedAt time.Time) error
	DeleteOrder(executor SQLExecutor, orderID int64) (int64, error)

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	CreateOrderItemOption(executor SQLExecutor, option *models.OrderItemOption) (int64, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
	DeleteOrderItemsByOrderID(executor SQLExecutor, orderID int64) (int64, error)

	// Status event methods (append-only audit log)
	CreateStatusEvent(executor SQLExecutor, event *models.OrderStatusEvent) (int64, error)
	GetStatusEventsByOrderID(orderID int64) ([]models.OrderStatusEvent, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (restaurant_id, order_number, customer_id, customer_name, customer_phone,
	             customer_email, order_type, status, subtotal, tax_amount, service_fee,
	             total_amount, special_requests, source, placed_at, estimated_ready_at,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	          RETURNING id`

	if order.PlacedAt.IsZero() {
		order.PlacedAt = time.Now()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.RestaurantID, order.OrderNumber, order.CustomerID, order.CustomerName, order.CustomerPhone,
		order.CustomerEmail, order.OrderType, order.Status, order.Subtotal, order.TaxAmount, order.ServiceFee,
		order.TotalAmount, order.SpecialRequests, order.Source, order.PlacedAt, order.EstimatedReadyAt,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: order number %s", ErrDuplicateKey, order.OrderNumber)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(restaurantID, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, restaurant_id, order_number, customer_id, customer_name, customer_phone,
	                 customer_email, order_type, status, subtotal, tax_amount, service_fee,
	                 total_amount, special_requests, source, placed_at, estimated_ready_at,
	                 completed_at, created_at, updated_at
	          FROM orders
	          WHERE id = $1 AND restaurant_id = $2`
	err := r.db.QueryRow(query, orderID, restaurantID).Scan(
		&order.ID, &order.RestaurantID, &order.OrderNumber, &order.CustomerID, &order.CustomerName, &order.CustomerPhone,
		&order.CustomerEmail, &order.OrderType, &order.Status, &order.Subtotal, &order.TaxAmount, &order.ServiceFee,
		&order.TotalAmount, &order.SpecialRequests, &order.Source, &order.PlacedAt, &order.EstimatedReadyAt,
		&order.CompletedAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(restaurantID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.restaurant_id, o.order_number, o.customer_id, o.customer_name, o.customer_phone,
            o.customer_email, o.order_type, o.status, o.subtotal, o.tax_amount, o.service_fee,
            o.total_amount, o.special_requests, o.source, o.placed_at, o.estimated_ready_at,
            o.completed_at, o.created_at, o.updated_at,
            COUNT(*) OVER() as total_count
        FROM orders o
    `)

	conditions := []string{"o.restaurant_id = $1"}
	args := []interface{}{restaurantID}
	argCounter := 2

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.OrderType != nil && *filters.OrderType != "" {
		conditions = append(conditions, fmt.Sprintf("o.order_type = $%d", argCounter))
		args = append(args, *filters.OrderType)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("o.placed_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.placed_at ASC, o.id ASC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.RestaurantID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerPhone,
			&o.CustomerEmail, &o.OrderType, &o.Status, &o.Subtotal, &o.TaxAmount, &o.ServiceFee,
			&o.TotalAmount, &o.SpecialRequests, &o.Source, &o.PlacedAt, &o.EstimatedReadyAt,
			&o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// UpdateOrderStatus is a compare-and-swap: the row is only updated while
// it still holds fromStatus, so concurrent transitions cannot both land.
// Zero rows affected means the order is gone or its status moved.
func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, fromStatus, newStatus orderflow.Status, completedAt *time.Time, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, completed_at = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := executor.Exec(query, newStatus, completedAt, updatedAt, orderID, fromStatus)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrder(executor SQLExecutor, orderID int64) (int64, error) {
	query := `DELETE FROM orders WHERE id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, name, description, quantity, unit_price, total_price, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.OrderID, item.MenuItemID, item.Name, item.Description, item.Quantity,
		item.UnitPrice, item.TotalPrice, item.Notes, item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: creating order item for order %d: %v", ErrDatabaseError, item.OrderID, err)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) CreateOrderItemOption(executor SQLExecutor, option *models.OrderItemOption) (int64, error) {
	query := `INSERT INTO order_item_options (order_item_id, option_id, name, price_delta)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRow(query,
		option.OrderItemID, option.OptionID, option.Name, option.PriceDelta,
	).Scan(&option.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order item option: %v", ErrDatabaseError, err)
	}
	return option.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, menu_item_id, name, description, quantity, unit_price,
	                 total_price, notes, created_at
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.Notes, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}

	if len(items) == 0 {
		return items, nil
	}

	// Load selected options for all items in one pass.
	itemIDs := make([]int64, 0, len(items))
	index := make(map[int64]int, len(items))
	for i, item := range items {
		itemIDs = append(itemIDs, item.ID)
		index[item.ID] = i
	}

	optQuery := `SELECT id, order_item_id, option_id, name, price_delta
	             FROM order_item_options
	             WHERE order_item_id = ANY($1)
	             ORDER BY id`
	optRows, err := r.db.Query(optQuery, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order item options for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt models.OrderItemOption
		err := optRows.Scan(&opt.ID, &opt.OrderItemID, &opt.OptionID, &opt.Name, &opt.PriceDelta)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item option: %v", ErrDatabaseError, err)
		}
		if i, ok := index[opt.OrderItemID]; ok {
			items[i].Options = append(items[i].Options, opt)
		}
	}
	if err = optRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item option rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *orderRepository) DeleteOrderItemsByOrderID(executor SQLExecutor, orderID int64) (int64, error) {
	// Options are removed first so the item delete never trips the child FK.
	optQuery := `DELETE FROM order_item_options
	             WHERE order_item_id IN (SELECT id FROM order_items WHERE order_id = $1)`
	if _, err := executor.Exec(optQuery, orderID); err != nil {
		return 0, fmt.Errorf("%w: deleting order item options for order ID %d: %v", ErrDatabaseError, orderID, err)
	}

	query := `DELETE FROM order_items WHERE order_id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

// --- Status Event Methods ---

func (r *orderRepository) CreateStatusEvent(executor SQLExecutor, event *models.OrderStatusEvent) (int64, error) {
	query := `INSERT INTO order_status_events (order_id, from_status, to_status, staff_id, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		event.OrderID, event.FromStatus, event.ToStatus, event.StaffID, event.Notes, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order status event for order %d: %v", ErrDatabaseError, event.OrderID, err)
	}
	return event.ID, nil
}

func (r *orderRepository) GetStatusEventsByOrderID(orderID int64) ([]models.OrderStatusEvent, error) {
	events := []models.OrderStatusEvent{}
	query := `SELECT id, order_id, from_status, to_status, staff_id, notes, created_at
	          FROM order_status_events
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying status events for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.OrderStatusEvent
		err := rows.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.StaffID, &e.Notes, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning status event: %v", ErrDatabaseError, err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating status event rows: %v", ErrDatabaseError, err)
	}
	return events, nil
}

package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dinehub_backend/internal/metrics"
	"dinehub_backend/internal/models"
	"dinehub_backend/internal/orderflow"
	"dinehub_backend/internal/realtime"
	"dinehub_backend/internal/repositories"
)

// --- Custom Service Errors ---
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyOrder          = errors.New("order must contain at least one item")
	ErrInvalidOrderType    = errors.New("invalid order type")
	ErrMenuItemNotFound    = errors.New("menu item not found or unavailable")
	ErrOptionNotFound      = errors.New("selected option not found or unavailable")
	ErrOrderTerminal       = errors.New("order is in a terminal status")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current status")
	ErrOrderStatusChanged  = errors.New("order status changed concurrently")
	ErrValidation          = errors.New("validation error")
)

// Restaurant setting keys consumed when pricing an order.
const (
	SettingTaxRate     = "tax_rate"     // decimal fraction, e.g. "0.0875"
	SettingServiceFee  = "service_fee"  // flat amount, e.g. "2.00"
	SettingPrepMinutes = "prep_minutes" // estimated minutes until ready
)

const defaultPrepMinutes = 20

// --- Data Transfer Objects (DTOs) ---

// CreateOrderItemRequest is one line item of a new order. Prices are
// never accepted from the client; they are derived from the catalog.
type CreateOrderItemRequest struct {
	MenuItemID int64   `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required,gt=0"`
	OptionIDs  []int64 `json:"option_ids"`
	Notes      *string `json:"notes"`
}

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	CustomerName    *string                  `json:"customer_name"`
	CustomerPhone   *string                  `json:"customer_phone"`
	CustomerEmail   *string                  `json:"customer_email"`
	OrderType       models.OrderType         `json:"order_type" binding:"required"`
	SpecialRequests *string                  `json:"special_requests"`
	Source          string                   `json:"source"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,dive"`
}

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(restaurantID int64, req CreateOrderRequest) (*models.Order, error)
	GetOrders(restaurantID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(restaurantID, orderID int64) (*models.Order, error)
	AdvanceOrderStatus(restaurantID, orderID int64, staffID *int64) (*models.Order, error)
	CancelOrder(restaurantID, orderID int64, staffID *int64, notes *string) (*models.Order, error)
	GetOrderBoard(restaurantID int64) ([]models.BoardColumn, error)
	GetOrderEvents(restaurantID, orderID int64) ([]models.OrderStatusEvent, error)
	DeleteOrder(restaurantID, orderID int64) error
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo      repositories.OrderRepository
	catalogRepo    repositories.CatalogRepository
	customerRepo   repositories.CustomerRepository
	restaurantRepo repositories.RestaurantRepository
	publisher      realtime.Publisher
	db             *sql.DB // for managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	cr repositories.CatalogRepository,
	cur repositories.CustomerRepository,
	rr repositories.RestaurantRepository,
	publisher realtime.Publisher,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:      or,
		catalogRepo:    cr,
		customerRepo:   cur,
		restaurantRepo: rr,
		publisher:      publisher,
		db:             db,
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(restaurantID int64, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !models.IsValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderType, req.OrderType)
	}
	source := req.Source
	if source == "" {
		source = models.SourceWeb
	}

	// Price every line item from the catalog; the client never supplies amounts.
	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, itemReq := range req.Items {
		if itemReq.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for menu item %d must be positive", ErrValidation, itemReq.MenuItemID)
		}
		menuItem, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemReq.MenuItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: menu item %d", ErrMenuItemNotFound, itemReq.MenuItemID)
			}
			return nil, fmt.Errorf("failed to fetch menu item %d: %w", itemReq.MenuItemID, err)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemNotFound, menuItem.Name)
		}

		unitPrice := menuItem.Price
		options := make([]models.OrderItemOption, 0, len(itemReq.OptionIDs))
		for _, optionID := range itemReq.OptionIDs {
			option, err := s.catalogRepo.GetOptionByID(restaurantID, optionID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: option %d", ErrOptionNotFound, optionID)
				}
				return nil, fmt.Errorf("failed to fetch option %d: %w", optionID, err)
			}
			if !option.IsAvailable {
				return nil, fmt.Errorf("%w: %s", ErrOptionNotFound, option.Name)
			}
			unitPrice = unitPrice.Add(option.PriceDelta)
			optID := option.ID
			options = append(options, models.OrderItemOption{
				OptionID:   &optID,
				Name:       option.Name,
				PriceDelta: option.PriceDelta,
			})
		}

		totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity)))
		subtotal = subtotal.Add(totalPrice)

		menuItemID := menuItem.ID
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:  &menuItemID,
			Name:        menuItem.Name,
			Description: menuItem.Description,
			Quantity:    itemReq.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  totalPrice,
			Notes:       itemReq.Notes,
			Options:     options,
		})
	}

	taxAmount := subtotal.Mul(s.settingDecimal(restaurantID, SettingTaxRate, decimal.Zero)).Round(2)
	serviceFee := s.settingDecimal(restaurantID, SettingServiceFee, decimal.Zero)
	// Invariant: total_amount == subtotal + tax_amount + service_fee.
	totalAmount := subtotal.Add(taxAmount).Add(serviceFee)

	var customerID *int64
	if req.CustomerPhone != nil && strings.TrimSpace(*req.CustomerPhone) != "" {
		id, err := s.findOrCreateCustomer(restaurantID, req)
		if err != nil {
			return nil, err
		}
		customerID = &id
	}

	now := time.Now()
	prepMinutes := s.settingInt(restaurantID, SettingPrepMinutes, defaultPrepMinutes)
	estimatedReadyAt := now.Add(time.Duration(prepMinutes) * time.Minute)

	order := models.Order{
		RestaurantID:     restaurantID,
		OrderNumber:      newOrderNumber(),
		CustomerID:       customerID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		OrderType:        req.OrderType,
		Status:           orderflow.StatusPending,
		Subtotal:         subtotal,
		TaxAmount:        taxAmount,
		ServiceFee:       serviceFee,
		TotalAmount:      totalAmount,
		SpecialRequests:  req.SpecialRequests,
		Source:           source,
		PlacedAt:         now,
		EstimatedReadyAt: &estimatedReadyAt,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for i := range orderItems {
		orderItems[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &orderItems[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item %q: %w", orderItems[i].Name, err)
		}
		for j := range orderItems[i].Options {
			orderItems[i].Options[j].OrderItemID = orderItems[i].ID
			if _, err := s.orderRepo.CreateOrderItemOption(tx, &orderItems[i].Options[j]); err != nil {
				return nil, fmt.Errorf("failed to create order item option %q: %w", orderItems[i].Options[j].Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	metrics.OrdersCreated.WithLabelValues(source).Inc()
	s.publisher.PublishOrderEvent(restaurantID, realtime.OrderEvent{
		Type:    realtime.ChangeInsert,
		OrderID: orderID,
		Status:  orderflow.StatusPending,
	})

	return s.GetOrderByID(restaurantID, orderID)
}

func (s *orderService) GetOrders(restaurantID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" {
		if _, err := orderflow.Parse(*filters.Status); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	orders, totalCount, err := s.orderRepo.GetOrders(restaurantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(restaurantID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(restaurantID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order %d: %w", orderID, err)
	}
	order.OrderItems = items
	return order, nil
}

// AdvanceOrderStatus moves an order to its single allowed next status.
// The status update and the audit event are written in one transaction so
// the log can never disagree with the order row.
func (s *orderService) AdvanceOrderStatus(restaurantID, orderID int64, staffID *int64) (*models.Order, error) {
	currentOrder, err := s.orderRepo.GetOrderByID(restaurantID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}

	nextStatus, ok := orderflow.Next(currentOrder.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderTerminal, currentOrder.Status)
	}

	var completedAt *time.Time
	now := time.Now()
	if nextStatus == orderflow.StatusCompleted {
		completedAt = &now
	}

	if err := s.transitionOrder(currentOrder, nextStatus, completedAt, staffID, nil); err != nil {
		return nil, err
	}
	return s.GetOrderByID(restaurantID, orderID)
}

// CancelOrder moves a non-terminal order to cancelled.
func (s *orderService) CancelOrder(restaurantID, orderID int64, staffID *int64, notes *string) (*models.Order, error) {
	currentOrder, err := s.orderRepo.GetOrderByID(restaurantID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for cancellation: %w", err)
	}

	if !orderflow.CanCancel(currentOrder.Status) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotCancellable, currentOrder.Status)
	}

	if err := s.transitionOrder(currentOrder, orderflow.StatusCancelled, nil, staffID, notes); err != nil {
		return nil, err
	}
	return s.GetOrderByID(restaurantID, orderID)
}

// transitionOrder performs the transactional status update + audit insert
// and publishes the realtime event after commit. The update is guarded on
// the status the caller observed; a lost race writes nothing.
func (s *orderService) transitionOrder(order *models.Order, to orderflow.Status, completedAt *time.Time, staffID *int64, notes *string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, order.Status, to, completedAt, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The order existed moments ago; another request won the
			// transition (or deleted the order).
			return fmt.Errorf("%w: expected %s", ErrOrderStatusChanged, order.Status)
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}

	event := models.OrderStatusEvent{
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   to,
		StaffID:    staffID,
		Notes:      notes,
	}
	if _, err := s.orderRepo.CreateStatusEvent(tx, &event); err != nil {
		return fmt.Errorf("failed to record status event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status transition: %w", err)
	}

	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	s.publisher.PublishOrderEvent(order.RestaurantID, realtime.OrderEvent{
		Type:    realtime.ChangeUpdate,
		OrderID: order.ID,
		Status:  to,
	})
	return nil
}

// GetOrderBoard partitions the restaurant's open orders into one column
// per status, each carrying the action that advances its orders.
func (s *orderService) GetOrderBoard(restaurantID int64) ([]models.BoardColumn, error) {
	orders, _, err := s.orderRepo.GetOrders(restaurantID, models.OrderFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for board: %w", err)
	}
	return buildBoard(orders), nil
}

// buildBoard groups orders into per-status columns. The grouping is a
// partition: every order lands in exactly one column, and ordering within
// a column follows the input order.
func buildBoard(orders []models.Order) []models.BoardColumn {
	buckets := make(map[orderflow.Status][]models.Order, len(orderflow.AllStatuses))
	for _, order := range orders {
		if label, ok := orderflow.ActionLabel(order.Status); ok {
			l := label
			order.ActionLabel = &l
		}
		buckets[order.Status] = append(buckets[order.Status], order)
	}

	columns := make([]models.BoardColumn, 0, len(orderflow.AllStatuses))
	for _, status := range orderflow.AllStatuses {
		column := models.BoardColumn{
			Status: status,
			Orders: buckets[status],
		}
		if column.Orders == nil {
			column.Orders = []models.Order{}
		}
		if label, ok := orderflow.ActionLabel(status); ok {
			l := label
			column.ActionLabel = &l
		}
		columns = append(columns, column)
	}
	return columns
}

func (s *orderService) GetOrderEvents(restaurantID, orderID int64) ([]models.OrderStatusEvent, error) {
	// Verify the order belongs to this restaurant before exposing its log.
	if _, err := s.orderRepo.GetOrderByID(restaurantID, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for event log: %w", err)
	}
	events, err := s.orderRepo.GetStatusEventsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status events: %w", err)
	}
	return events, nil
}

func (s *orderService) DeleteOrder(restaurantID, orderID int64) error {
	if _, err := s.orderRepo.GetOrderByID(restaurantID, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to fetch order for deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.orderRepo.DeleteOrderItemsByOrderID(tx, orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if _, err := s.orderRepo.DeleteOrder(tx, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}

	s.publisher.PublishOrderEvent(restaurantID, realtime.OrderEvent{
		Type:    realtime.ChangeDelete,
		OrderID: orderID,
	})
	return nil
}

// --- Helpers ---

func (s *orderService) findOrCreateCustomer(restaurantID int64, req CreateOrderRequest) (int64, error) {
	phone := strings.TrimSpace(*req.CustomerPhone)
	customer, err := s.customerRepo.FindCustomerByPhone(restaurantID, phone)
	if err == nil {
		return customer.ID, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up customer: %w", err)
	}

	newCustomer := models.Customer{
		RestaurantID: restaurantID,
		Name:         req.CustomerName,
		Phone:        &phone,
		Email:        req.CustomerEmail,
	}
	id, err := s.customerRepo.CreateCustomer(s.db, &newCustomer)
	if err != nil {
		return 0, fmt.Errorf("failed to create customer: %w", err)
	}
	return id, nil
}

// settingDecimal reads a decimal-valued restaurant setting, falling back
// when the setting is missing or malformed.
func (s *orderService) settingDecimal(restaurantID int64, key string, fallback decimal.Decimal) decimal.Decimal {
	setting, err := s.restaurantRepo.GetSetting(restaurantID, key)
	if err != nil {
		return fallback
	}
	value, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return fallback
	}
	return value
}

func (s *orderService) settingInt(restaurantID int64, key string, fallback int) int {
	setting, err := s.restaurantRepo.GetSetting(restaurantID, key)
	if err != nil {
		return fallback
	}
	value, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return fallback
	}
	return int(value.IntPart())
}

// newOrderNumber generates a short human-readable order reference.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

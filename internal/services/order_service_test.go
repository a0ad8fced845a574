package services

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/orderflow"
	"dinehub_backend/internal/realtime"
	"dinehub_backend/internal/repositories"
)

// --- In-memory stubs ---

type stubOrderRepo struct {
	nextID int64
	orders map[int64]*models.Order
	items  map[int64][]models.OrderItem
	events map[int64][]models.OrderStatusEvent
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
		events: make(map[int64][]models.OrderStatusEvent),
	}
}

func (r *stubOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	r.nextID++
	order.ID = r.nextID
	cp := *order
	r.orders[order.ID] = &cp
	return order.ID, nil
}

func (r *stubOrderRepo) GetOrderByID(restaurantID, orderID int64) (*models.Order, error) {
	order, ok := r.orders[orderID]
	if !ok || order.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *stubOrderRepo) GetOrders(restaurantID int64, _ models.OrderFilters) ([]models.Order, int, error) {
	result := []models.Order{}
	for id := int64(1); id <= r.nextID; id++ {
		if order, ok := r.orders[id]; ok && order.RestaurantID == restaurantID {
			result = append(result, *order)
		}
	}
	return result, len(result), nil
}

func (r *stubOrderRepo) UpdateOrderStatus(_ repositories.SQLExecutor, orderID int64, fromStatus, newStatus orderflow.Status, completedAt *time.Time, updatedAt time.Time) error {
	order, ok := r.orders[orderID]
	if !ok || order.Status != fromStatus {
		return repositories.ErrNotFound
	}
	order.Status = newStatus
	order.CompletedAt = completedAt
	order.UpdatedAt = updatedAt
	return nil
}

func (r *stubOrderRepo) DeleteOrder(_ repositories.SQLExecutor, orderID int64) (int64, error) {
	if _, ok := r.orders[orderID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(r.orders, orderID)
	return 1, nil
}

func (r *stubOrderRepo) CreateOrderItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	item.ID = int64(len(r.items[item.OrderID]) + 1)
	r.items[item.OrderID] = append(r.items[item.OrderID], *item)
	return item.ID, nil
}

func (r *stubOrderRepo) CreateOrderItemOption(_ repositories.SQLExecutor, option *models.OrderItemOption) (int64, error) {
	return 1, nil
}

func (r *stubOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem{}, r.items[orderID]...), nil
}

func (r *stubOrderRepo) DeleteOrderItemsByOrderID(_ repositories.SQLExecutor, orderID int64) (int64, error) {
	n := int64(len(r.items[orderID]))
	delete(r.items, orderID)
	return n, nil
}

func (r *stubOrderRepo) CreateStatusEvent(_ repositories.SQLExecutor, event *models.OrderStatusEvent) (int64, error) {
	event.ID = int64(len(r.events[event.OrderID]) + 1)
	event.CreatedAt = time.Now()
	r.events[event.OrderID] = append(r.events[event.OrderID], *event)
	return event.ID, nil
}

func (r *stubOrderRepo) GetStatusEventsByOrderID(orderID int64) ([]models.OrderStatusEvent, error) {
	return append([]models.OrderStatusEvent{}, r.events[orderID]...), nil
}

type stubCatalogRepo struct {
	menuItems map[int64]models.MenuItem
	options   map[int64]models.Option
	// restaurant owning each option's group, keyed by option ID
	optionOwners map[int64]int64
}

func (r *stubCatalogRepo) GetMenuItemByID(restaurantID, itemID int64) (*models.MenuItem, error) {
	item, ok := r.menuItems[itemID]
	if !ok || item.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (r *stubCatalogRepo) GetOptionByID(restaurantID, optionID int64) (*models.Option, error) {
	option, ok := r.options[optionID]
	if !ok || r.optionOwners[optionID] != restaurantID {
		return nil, repositories.ErrNotFound
	}
	return &option, nil
}

// Unused catalog methods.
func (r *stubCatalogRepo) CreateCategory(repositories.SQLExecutor, *models.Category) (int64, error) {
	return 0, nil
}
func (r *stubCatalogRepo) GetCategoryByID(int64, int64) (*models.Category, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubCatalogRepo) GetCategories(int64) ([]models.Category, error) { return nil, nil }
func (r *stubCatalogRepo) UpdateCategory(repositories.SQLExecutor, *models.Category) error {
	return nil
}
func (r *stubCatalogRepo) DeleteCategory(repositories.SQLExecutor, int64) error { return nil }
func (r *stubCatalogRepo) CreateMenuItem(repositories.SQLExecutor, *models.MenuItem) (int64, error) {
	return 0, nil
}
func (r *stubCatalogRepo) GetMenuItems(int64, *int64, bool) ([]models.MenuItem, error) {
	return nil, nil
}
func (r *stubCatalogRepo) UpdateMenuItem(repositories.SQLExecutor, *models.MenuItem) error {
	return nil
}
func (r *stubCatalogRepo) DeleteMenuItem(repositories.SQLExecutor, int64) error { return nil }
func (r *stubCatalogRepo) CreateOptionGroup(repositories.SQLExecutor, *models.OptionGroup) (int64, error) {
	return 0, nil
}
func (r *stubCatalogRepo) GetOptionGroupByID(int64, int64) (*models.OptionGroup, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubCatalogRepo) GetOptionGroups(int64) ([]models.OptionGroup, error) { return nil, nil }
func (r *stubCatalogRepo) UpdateOptionGroup(repositories.SQLExecutor, *models.OptionGroup) error {
	return nil
}
func (r *stubCatalogRepo) DeleteOptionGroup(repositories.SQLExecutor, int64) error { return nil }
func (r *stubCatalogRepo) CreateOption(repositories.SQLExecutor, *models.Option) (int64, error) {
	return 0, nil
}
func (r *stubCatalogRepo) GetOptionsByGroupID(int64) ([]models.Option, error) { return nil, nil }
func (r *stubCatalogRepo) DeleteOption(repositories.SQLExecutor, int64) error { return nil }
func (r *stubCatalogRepo) AttachOptionGroup(repositories.SQLExecutor, *models.MenuItemOptionGroup) error {
	return nil
}
func (r *stubCatalogRepo) DetachOptionGroup(repositories.SQLExecutor, int64, int64) error {
	return nil
}
func (r *stubCatalogRepo) GetOptionGroupsForMenuItem(int64) ([]models.OptionGroup, error) {
	return nil, nil
}

type stubCustomerRepo struct {
	nextID    int64
	customers map[string]*models.Customer
}

func (r *stubCustomerRepo) CreateCustomer(_ repositories.SQLExecutor, customer *models.Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	if r.customers == nil {
		r.customers = make(map[string]*models.Customer)
	}
	if customer.Phone != nil {
		r.customers[*customer.Phone] = customer
	}
	return customer.ID, nil
}

func (r *stubCustomerRepo) GetCustomerByID(int64, int64) (*models.Customer, error) {
	return nil, repositories.ErrNotFound
}

func (r *stubCustomerRepo) FindCustomerByPhone(_ int64, phone string) (*models.Customer, error) {
	if customer, ok := r.customers[phone]; ok {
		return customer, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *stubCustomerRepo) UpdateCustomer(repositories.SQLExecutor, *models.Customer) error {
	return nil
}

type stubRestaurantRepo struct {
	settings map[string]string
}

func (r *stubRestaurantRepo) GetSetting(restaurantID int64, key string) (*models.RestaurantSetting, error) {
	value, ok := r.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.RestaurantSetting{RestaurantID: restaurantID, Key: key, Value: value}, nil
}

// Unused restaurant methods.
func (r *stubRestaurantRepo) CreateRestaurant(repositories.SQLExecutor, *models.Restaurant) (int64, error) {
	return 0, nil
}
func (r *stubRestaurantRepo) GetRestaurantByID(int64) (*models.Restaurant, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubRestaurantRepo) GetRestaurantBySlug(string) (*models.Restaurant, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubRestaurantRepo) UpdateRestaurant(repositories.SQLExecutor, *models.Restaurant) error {
	return nil
}
func (r *stubRestaurantRepo) UpsertSetting(repositories.SQLExecutor, *models.RestaurantSetting) error {
	return nil
}
func (r *stubRestaurantRepo) GetSettings(int64) ([]models.RestaurantSetting, error) {
	return nil, nil
}
func (r *stubRestaurantRepo) DeleteSetting(repositories.SQLExecutor, int64, string) error {
	return nil
}
func (r *stubRestaurantRepo) GetOnboardingState(int64) (*models.OnboardingState, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubRestaurantRepo) UpsertOnboardingState(repositories.SQLExecutor, *models.OnboardingState) error {
	return nil
}
func (r *stubRestaurantRepo) CreateAgentChannel(repositories.SQLExecutor, *models.AgentChannel) (int64, error) {
	return 0, nil
}
func (r *stubRestaurantRepo) GetAgentChannelByID(int64, int64) (*models.AgentChannel, error) {
	return nil, repositories.ErrNotFound
}
func (r *stubRestaurantRepo) GetAgentChannels(int64) ([]models.AgentChannel, error) {
	return nil, nil
}
func (r *stubRestaurantRepo) UpdateAgentChannel(repositories.SQLExecutor, *models.AgentChannel) error {
	return nil
}
func (r *stubRestaurantRepo) DeleteAgentChannel(repositories.SQLExecutor, int64) error {
	return nil
}

type stubPublisher struct {
	events []realtime.OrderEvent
}

func (p *stubPublisher) PublishOrderEvent(_ int64, event realtime.OrderEvent) {
	p.events = append(p.events, event)
}

// --- Fixture ---

type orderServiceFixture struct {
	svc       OrderService
	orderRepo *stubOrderRepo
	publisher *stubPublisher
	db        *sql.DB
	mock      sqlmock.Sqlmock
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	orderRepo := newStubOrderRepo()
	catalogRepo := &stubCatalogRepo{
		menuItems: map[int64]models.MenuItem{
			1: {ID: 1, RestaurantID: 1, Name: "Margherita Pizza", Price: decimal.RequireFromString("10.00"), IsAvailable: true},
			2: {ID: 2, RestaurantID: 1, Name: "Sold Out Special", Price: decimal.RequireFromString("5.00"), IsAvailable: false},
		},
		options: map[int64]models.Option{
			11: {ID: 11, OptionGroupID: 1, Name: "Extra Cheese", PriceDelta: decimal.RequireFromString("1.50"), IsAvailable: true},
			99: {ID: 99, OptionGroupID: 9, Name: "Rival Topping", PriceDelta: decimal.RequireFromString("0.50"), IsAvailable: true},
		},
		optionOwners: map[int64]int64{11: 1, 99: 2},
	}
	restaurantRepo := &stubRestaurantRepo{settings: map[string]string{
		SettingTaxRate:    "0.10",
		SettingServiceFee: "2.00",
	}}
	publisher := &stubPublisher{}

	svc := NewOrderService(orderRepo, catalogRepo, &stubCustomerRepo{}, restaurantRepo, publisher, db)
	return &orderServiceFixture{svc: svc, orderRepo: orderRepo, publisher: publisher, db: db, mock: mock}
}

func (f *orderServiceFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

// --- Tests ---

func TestCreateOrderComputesTotalsFromCatalog(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.expectTx()

	order, err := f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: models.OrderTypeTakeout,
		Items: []CreateOrderItemRequest{
			{MenuItemID: 1, Quantity: 2, OptionIDs: []int64{11}},
		},
	})
	require.NoError(t, err)

	// (10.00 + 1.50) * 2 = 23.00; tax 10% = 2.30; fee 2.00.
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("23.00")), "subtotal: %s", order.Subtotal)
	assert.True(t, order.TaxAmount.Equal(decimal.RequireFromString("2.30")), "tax: %s", order.TaxAmount)
	assert.True(t, order.ServiceFee.Equal(decimal.RequireFromString("2.00")), "fee: %s", order.ServiceFee)
	assert.True(t, order.TotalAmount.Equal(order.Subtotal.Add(order.TaxAmount).Add(order.ServiceFee)),
		"total must equal subtotal + tax + fee")

	assert.Equal(t, orderflow.StatusPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.OrderItems, 1)
	assert.True(t, order.OrderItems[0].UnitPrice.Equal(decimal.RequireFromString("11.50")))

	// Creation is not a transition; the audit log starts empty.
	events, err := f.svc.GetOrderEvents(1, order.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, realtime.ChangeInsert, f.publisher.events[0].Type)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := newOrderServiceFixture(t)

	_, err := f.svc.CreateOrder(1, CreateOrderRequest{OrderType: models.OrderTypeTakeout})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: "drive_thru",
		Items:     []CreateOrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidOrderType)

	_, err = f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: models.OrderTypeTakeout,
		Items:     []CreateOrderItemRequest{{MenuItemID: 999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	// Unavailable items cannot be ordered.
	_, err = f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: models.OrderTypeTakeout,
		Items:     []CreateOrderItemRequest{{MenuItemID: 2, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	assert.Empty(t, f.orderRepo.orders, "no order may be stored on validation failure")
}

func createTestOrder(t *testing.T, f *orderServiceFixture) *models.Order {
	t.Helper()
	f.expectTx()
	order, err := f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		Items:     []CreateOrderItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	return order
}

func TestAdvanceOrderWalksLifecycle(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := createTestOrder(t, f)

	expected := []orderflow.Status{orderflow.StatusPreparing, orderflow.StatusReady, orderflow.StatusCompleted}
	for _, want := range expected {
		f.expectTx()
		updated, err := f.svc.AdvanceOrderStatus(1, order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, want, updated.Status)
		if want == orderflow.StatusCompleted {
			assert.NotNil(t, updated.CompletedAt)
		} else {
			assert.Nil(t, updated.CompletedAt)
		}
	}

	// A completed order has no next step.
	_, err := f.svc.AdvanceOrderStatus(1, order.ID, nil)
	assert.ErrorIs(t, err, ErrOrderTerminal)

	// Three advances leave exactly three audit events, in order.
	events, err := f.svc.GetOrderEvents(1, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, orderflow.StatusPending, events[0].FromStatus)
	assert.Equal(t, orderflow.StatusPreparing, events[0].ToStatus)
	assert.Equal(t, orderflow.StatusPreparing, events[1].FromStatus)
	assert.Equal(t, orderflow.StatusReady, events[1].ToStatus)
	assert.Equal(t, orderflow.StatusReady, events[2].FromStatus)
	assert.Equal(t, orderflow.StatusCompleted, events[2].ToStatus)
}

func TestCancelOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := createTestOrder(t, f)

	f.expectTx()
	_, err := f.svc.AdvanceOrderStatus(1, order.ID, nil)
	require.NoError(t, err)

	staffID := int64(7)
	notes := "customer left"
	f.expectTx()
	cancelled, err := f.svc.CancelOrder(1, order.ID, &staffID, &notes)
	require.NoError(t, err)
	assert.Equal(t, orderflow.StatusCancelled, cancelled.Status)

	// Cancelled is terminal; a second cancel must fail.
	_, err = f.svc.CancelOrder(1, order.ID, &staffID, nil)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	events, err := f.svc.GetOrderEvents(1, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	last := events[len(events)-1]
	assert.Equal(t, orderflow.StatusCancelled, last.ToStatus)
	require.NotNil(t, last.StaffID)
	assert.Equal(t, staffID, *last.StaffID)
	require.NotNil(t, last.Notes)
	assert.Equal(t, notes, *last.Notes)
}

func TestCreateOrderRejectsOptionFromAnotherRestaurant(t *testing.T) {
	f := newOrderServiceFixture(t)

	// Option 99 belongs to restaurant 2; ordering it against restaurant 1
	// must fail rather than leak the foreign option's name and price.
	_, err := f.svc.CreateOrder(1, CreateOrderRequest{
		OrderType: models.OrderTypeTakeout,
		Items: []CreateOrderItemRequest{
			{MenuItemID: 1, Quantity: 1, OptionIDs: []int64{99}},
		},
	})
	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.Empty(t, f.orderRepo.orders)
}

func TestConcurrentAdvanceWritesOneAuditEvent(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := createTestOrder(t, f)

	// First request wins the pending -> preparing transition.
	f.expectTx()
	_, err := f.svc.AdvanceOrderStatus(1, order.ID, nil)
	require.NoError(t, err)

	// A second request that observed the order while still pending loses
	// the race: its guarded update matches zero rows and rolls back.
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	stale := *order
	err = f.svc.(*orderService).transitionOrder(&stale, orderflow.StatusPreparing, nil, nil, nil)
	assert.ErrorIs(t, err, ErrOrderStatusChanged)

	events, err := f.svc.GetOrderEvents(1, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1, "a lost race must not duplicate the audit event")
	assert.Equal(t, orderflow.StatusPending, events[0].FromStatus)
	assert.Equal(t, orderflow.StatusPreparing, events[0].ToStatus)

	updated, err := f.svc.GetOrderByID(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderflow.StatusPreparing, updated.Status)
}

func TestOrdersAreScopedToRestaurant(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := createTestOrder(t, f)

	_, err := f.svc.GetOrderByID(2, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.AdvanceOrderStatus(2, order.ID, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestBuildBoardPartitionsOrders(t *testing.T) {
	orders := []models.Order{
		{ID: 1, Status: orderflow.StatusPending},
		{ID: 2, Status: orderflow.StatusPreparing},
		{ID: 3, Status: orderflow.StatusPending},
		{ID: 4, Status: orderflow.StatusCompleted},
	}

	columns := buildBoard(orders)
	require.Len(t, columns, len(orderflow.AllStatuses))

	seen := map[int64]int{}
	for i, column := range columns {
		assert.Equal(t, orderflow.AllStatuses[i], column.Status, "columns follow lifecycle order")
		require.NotNil(t, column.Orders, "empty columns are empty slices, not nil")
		for _, order := range column.Orders {
			assert.Equal(t, column.Status, order.Status)
			seen[order.ID]++
		}
	}

	// Every order lands in exactly one column.
	require.Len(t, seen, len(orders))
	for id, count := range seen {
		assert.Equal(t, 1, count, "order %d appears once", id)
	}

	// Non-terminal columns carry the action that advances their orders.
	assert.Equal(t, "Start Preparing", *columns[0].ActionLabel)
	assert.Equal(t, "Mark Ready", *columns[1].ActionLabel)
	assert.Equal(t, "Complete Order", *columns[2].ActionLabel)
	assert.Nil(t, columns[3].ActionLabel)
	assert.Nil(t, columns[4].ActionLabel)
}

func TestDeleteOrderPublishesDeleteEvent(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := createTestOrder(t, f)
	f.publisher.events = nil

	f.expectTx()
	require.NoError(t, f.svc.DeleteOrder(1, order.ID))

	_, err := f.svc.GetOrderByID(1, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, realtime.ChangeDelete, f.publisher.events[0].Type)
	assert.Equal(t, order.ID, f.publisher.events[0].OrderID)
}

func TestGetOrdersRejectsUnknownStatusFilter(t *testing.T) {
	f := newOrderServiceFixture(t)
	bad := "Pending" // wire values are lowercase
	_, _, err := f.svc.GetOrders(1, models.OrderFilters{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, errors.Is(err, ErrValidation))
}

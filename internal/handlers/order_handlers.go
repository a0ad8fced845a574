package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/services"
	"dinehub_backend/pkg/utils"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles the creation of a new order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(restaurantID, req)
	if err != nil {
		utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
		switch {
		case errors.Is(err, services.ErrEmptyOrder),
			errors.Is(err, services.ErrInvalidOrderType),
			errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		case errors.Is(err, services.ErrMenuItemNotFound), errors.Is(err, services.ErrOptionNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeBadRequest, err.Error(), err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching orders with pagination and filters.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.OrderFilters{Page: page, PageSize: pageSize}
	filters.Status = utils.NewNullString(c.Query("status"))
	if orderType := c.Query("order_type"); orderType != "" {
		if !models.IsValidOrderType(models.OrderType(orderType)) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order_type value.", "order_type: "+orderType))
			return
		}
		filters.OrderType = &orderType
	}
	if date := c.Query("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		filters.Date = &date
	}

	orders, totalCount, err := h.orderService.GetOrders(restaurantID, filters)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
			return
		}
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrderBoard returns open orders grouped into per-status columns.
func (h *OrderHandler) GetOrderBoard(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}

	board, err := h.orderService.GetOrderBoard(restaurantID)
	if err != nil {
		utils.LogError(err, "GetOrderBoard: Error from orderService.GetOrderBoard")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build order board.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": board})
}

// GetOrderByID handles fetching a single order with its items.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(restaurantID, orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
			return
		}
		utils.LogError(err, "GetOrderByID: Error from orderService.GetOrderByID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdvanceOrderStatus moves an order one step forward in its lifecycle.
func (h *OrderHandler) AdvanceOrderStatus(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.AdvanceOrderStatus(restaurantID, orderID, optionalStaffID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
		case errors.Is(err, services.ErrOrderTerminal), errors.Is(err, services.ErrOrderStatusChanged):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "AdvanceOrderStatus: Error from orderService.AdvanceOrderStatus")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to advance order status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrderRequest carries the optional cancellation reason.
type CancelOrderRequest struct {
	Notes *string `json:"notes"`
}

// CancelOrder moves a non-terminal order to cancelled.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	// Body is optional for cancellation.
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.CancelOrder(restaurantID, orderID, optionalStaffID(c), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
		case errors.Is(err, services.ErrOrderNotCancellable), errors.Is(err, services.ErrOrderStatusChanged):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "CancelOrder: Error from orderService.CancelOrder")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderEvents returns the immutable status transition log of an order.
func (h *OrderHandler) GetOrderEvents(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	events, err := h.orderService.GetOrderEvents(restaurantID, orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
			return
		}
		utils.LogError(err, "GetOrderEvents: Error from orderService.GetOrderEvents")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order events.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

// DeleteOrder removes an order and its line items.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(restaurantID, orderID); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
			return
		}
		utils.LogError(err, "DeleteOrder: Error from orderService.DeleteOrder")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete order.", "Internal error"))
		return
	}
	c.Status(http.StatusNoContent)
}

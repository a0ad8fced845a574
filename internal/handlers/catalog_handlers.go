package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/services"
	"dinehub_backend/pkg/utils"
)

// CatalogHandler holds the catalog service.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// respondCatalogError maps catalog service errors to API responses.
func respondCatalogError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrMenuItemNotFound),
		errors.Is(err, services.ErrOptionGroupNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrNegativePrice),
		errors.Is(err, services.ErrInvalidSelectRange):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.LogError(err, operation+": Error from catalogService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Catalog operation failed.", "Internal error"))
	}
}

// --- Category Handlers ---

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	category, err := h.catalogService.CreateCategory(restaurantID, req)
	if err != nil {
		respondCatalogError(c, err, "CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	categories, err := h.catalogService.GetCategories(restaurantID)
	if err != nil {
		respondCatalogError(c, err, "GetCategories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	category, err := h.catalogService.UpdateCategory(restaurantID, categoryID, req)
	if err != nil {
		respondCatalogError(c, err, "UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(restaurantID, categoryID); err != nil {
		respondCatalogError(c, err, "DeleteCategory")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- MenuItem Handlers ---

func (h *CatalogHandler) CreateMenuItem(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	item, err := h.catalogService.CreateMenuItem(restaurantID, req)
	if err != nil {
		respondCatalogError(c, err, "CreateMenuItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) GetMenuItems(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}

	var filters services.MenuItemFilters
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		id, err := strconv.ParseInt(categoryIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category_id format.", err.Error()))
			return
		}
		filters.CategoryID = &id
	}
	filters.AvailableOnly = c.Query("available") == "true"

	items, err := h.catalogService.GetMenuItems(restaurantID, filters)
	if err != nil {
		respondCatalogError(c, err, "GetMenuItems")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *CatalogHandler) GetMenuItemByID(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.catalogService.GetMenuItemByID(restaurantID, itemID)
	if err != nil {
		respondCatalogError(c, err, "GetMenuItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) UpdateMenuItem(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	item, err := h.catalogService.UpdateMenuItem(restaurantID, itemID, req)
	if err != nil {
		respondCatalogError(c, err, "UpdateMenuItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) DeleteMenuItem(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteMenuItem(restaurantID, itemID); err != nil {
		respondCatalogError(c, err, "DeleteMenuItem")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- OptionGroup Handlers ---

func (h *CatalogHandler) CreateOptionGroup(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.OptionGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	group, err := h.catalogService.CreateOptionGroup(restaurantID, req)
	if err != nil {
		respondCatalogError(c, err, "CreateOptionGroup")
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *CatalogHandler) GetOptionGroups(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	groups, err := h.catalogService.GetOptionGroups(restaurantID)
	if err != nil {
		respondCatalogError(c, err, "GetOptionGroups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func (h *CatalogHandler) UpdateOptionGroup(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.OptionGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	group, err := h.catalogService.UpdateOptionGroup(restaurantID, groupID, req)
	if err != nil {
		respondCatalogError(c, err, "UpdateOptionGroup")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *CatalogHandler) DeleteOptionGroup(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteOptionGroup(restaurantID, groupID); err != nil {
		respondCatalogError(c, err, "DeleteOptionGroup")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- MenuItem <-> OptionGroup Association Handlers ---

func (h *CatalogHandler) AttachOptionGroup(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AttachOptionGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if err := h.catalogService.AttachOptionGroup(restaurantID, itemID, req); err != nil {
		respondCatalogError(c, err, "AttachOptionGroup")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) DetachOptionGroup(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	if err := h.catalogService.DetachOptionGroup(restaurantID, itemID, groupID); err != nil {
		respondCatalogError(c, err, "DetachOptionGroup")
		return
	}
	c.Status(http.StatusNoContent)
}

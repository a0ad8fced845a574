package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
	"dinehub_backend/pkg/utils"
)

// --- Custom Service Errors for Catalog ---
var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrOptionGroupNotFound = errors.New("option group not found")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrInvalidSelectRange  = errors.New("min_select cannot exceed max_select")
)

// --- DTOs ---

// CategoryRequest creates or updates a menu category.
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Position    int     `json:"position"`
	IsActive    *bool   `json:"is_active"`
}

// MenuItemRequest creates a menu item.
type MenuItemRequest struct {
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"is_available"`
}

// UpdateMenuItemRequest patches a menu item. Absent fields keep their
// stored values, so a payload without price never zeroes the money field.
type UpdateMenuItemRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"is_available"`
}

// OptionGroupRequest creates or updates an option group with its options.
type OptionGroupRequest struct {
	Name      string          `json:"name" binding:"required"`
	MinSelect int             `json:"min_select"`
	MaxSelect int             `json:"max_select"`
	Options   []OptionRequest `json:"options"`
}

// OptionRequest is one choice inside an option group.
type OptionRequest struct {
	Name        string          `json:"name" binding:"required"`
	PriceDelta  decimal.Decimal `json:"price_delta"`
	IsAvailable *bool           `json:"is_available"`
}

// AttachOptionGroupRequest links an option group to a menu item.
type AttachOptionGroupRequest struct {
	OptionGroupID int64 `json:"option_group_id" binding:"required"`
	Position      int   `json:"position"`
}

// MenuItemFilters narrows menu item listings.
type MenuItemFilters struct {
	CategoryID    *int64
	AvailableOnly bool
}

// --- CatalogService Interface ---
type CatalogService interface {
	CreateCategory(restaurantID int64, req CategoryRequest) (*models.Category, error)
	GetCategories(restaurantID int64) ([]models.Category, error)
	UpdateCategory(restaurantID, categoryID int64, req CategoryRequest) (*models.Category, error)
	DeleteCategory(restaurantID, categoryID int64) error

	CreateMenuItem(restaurantID int64, req MenuItemRequest) (*models.MenuItem, error)
	GetMenuItems(restaurantID int64, filters MenuItemFilters) ([]models.MenuItem, error)
	GetMenuItemByID(restaurantID, itemID int64) (*models.MenuItem, error)
	UpdateMenuItem(restaurantID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(restaurantID, itemID int64) error

	CreateOptionGroup(restaurantID int64, req OptionGroupRequest) (*models.OptionGroup, error)
	GetOptionGroups(restaurantID int64) ([]models.OptionGroup, error)
	UpdateOptionGroup(restaurantID, groupID int64, req OptionGroupRequest) (*models.OptionGroup, error)
	DeleteOptionGroup(restaurantID, groupID int64) error

	AttachOptionGroup(restaurantID, itemID int64, req AttachOptionGroupRequest) error
	DetachOptionGroup(restaurantID, itemID, groupID int64) error
}

// --- catalogService Implementation ---
type catalogService struct {
	catalogRepo repositories.CatalogRepository
	db          *sql.DB
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(cr repositories.CatalogRepository, db *sql.DB) CatalogService {
	return &catalogService{catalogRepo: cr, db: db}
}

// --- Category Method Implementations ---

func (s *catalogService) CreateCategory(restaurantID int64, req CategoryRequest) (*models.Category, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	category := models.Category{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Position:     req.Position,
		IsActive:     true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if _, err := s.catalogRepo.CreateCategory(s.db, &category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func (s *catalogService) GetCategories(restaurantID int64) ([]models.Category, error) {
	categories, err := s.catalogRepo.GetCategories(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) UpdateCategory(restaurantID, categoryID int64, req CategoryRequest) (*models.Category, error) {
	category, err := s.catalogRepo.GetCategoryByID(restaurantID, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category for update: %w", err)
	}

	if !utils.IsEmpty(req.Name) {
		category.Name = req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	category.Position = req.Position
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.catalogRepo.UpdateCategory(s.db, category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(restaurantID, categoryID int64) error {
	if _, err := s.catalogRepo.GetCategoryByID(restaurantID, categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to find category for deletion: %w", err)
	}

	// Detaching items and removing the category happen atomically.
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.catalogRepo.DeleteCategory(tx, categoryID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category deletion: %w", err)
	}
	return nil
}

// --- MenuItem Method Implementations ---

func (s *catalogService) CreateMenuItem(restaurantID int64, req MenuItemRequest) (*models.MenuItem, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: menu item name is required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.CategoryID != nil {
		if _, err := s.catalogRepo.GetCategoryByID(restaurantID, *req.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to validate category: %w", err)
		}
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		IsAvailable:  true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if _, err := s.catalogRepo.CreateMenuItem(s.db, &item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return &item, nil
}

func (s *catalogService) GetMenuItems(restaurantID int64, filters MenuItemFilters) ([]models.MenuItem, error) {
	items, err := s.catalogRepo.GetMenuItems(restaurantID, filters.CategoryID, filters.AvailableOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	return items, nil
}

func (s *catalogService) GetMenuItemByID(restaurantID, itemID int64) (*models.MenuItem, error) {
	item, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	groups, err := s.catalogRepo.GetOptionGroupsForMenuItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get option groups for menu item: %w", err)
	}
	item.OptionGroups = groups
	return item, nil
}

func (s *catalogService) UpdateMenuItem(restaurantID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to find menu item for update: %w", err)
	}

	if req.Price != nil && req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.CategoryID != nil {
		if _, err := s.catalogRepo.GetCategoryByID(restaurantID, *req.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to validate category: %w", err)
		}
		item.CategoryID = req.CategoryID
	}

	if req.Name != nil && !utils.IsEmpty(*req.Name) {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.catalogRepo.UpdateMenuItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return item, nil
}

func (s *catalogService) DeleteMenuItem(restaurantID, itemID int64) error {
	if _, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to find menu item for deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.catalogRepo.DeleteMenuItem(tx, itemID); err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu item deletion: %w", err)
	}
	return nil
}

// --- OptionGroup Method Implementations ---

func (s *catalogService) CreateOptionGroup(restaurantID int64, req OptionGroupRequest) (*models.OptionGroup, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: option group name is required", ErrValidation)
	}
	if req.MinSelect < 0 || req.MaxSelect < 0 || req.MinSelect > req.MaxSelect {
		return nil, ErrInvalidSelectRange
	}
	for _, opt := range req.Options {
		if utils.IsEmpty(opt.Name) {
			return nil, fmt.Errorf("%w: option name is required", ErrValidation)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	group := models.OptionGroup{
		RestaurantID: restaurantID,
		Name:         req.Name,
		MinSelect:    req.MinSelect,
		MaxSelect:    req.MaxSelect,
	}
	if _, err := s.catalogRepo.CreateOptionGroup(tx, &group); err != nil {
		return nil, fmt.Errorf("failed to create option group: %w", err)
	}

	group.Options = make([]models.Option, 0, len(req.Options))
	for _, opt := range req.Options {
		option := models.Option{
			OptionGroupID: group.ID,
			Name:          opt.Name,
			PriceDelta:    opt.PriceDelta,
			IsAvailable:   true,
		}
		if opt.IsAvailable != nil {
			option.IsAvailable = *opt.IsAvailable
		}
		if _, err := s.catalogRepo.CreateOption(tx, &option); err != nil {
			return nil, fmt.Errorf("failed to create option: %w", err)
		}
		group.Options = append(group.Options, option)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit option group creation: %w", err)
	}
	return &group, nil
}

func (s *catalogService) GetOptionGroups(restaurantID int64) ([]models.OptionGroup, error) {
	groups, err := s.catalogRepo.GetOptionGroups(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get option groups: %w", err)
	}
	for i := range groups {
		options, err := s.catalogRepo.GetOptionsByGroupID(groups[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get options for group %d: %w", groups[i].ID, err)
		}
		groups[i].Options = options
	}
	return groups, nil
}

// UpdateOptionGroup replaces the group's fields and its full option list.
// Options are recreated rather than diffed; order items keep their own
// snapshots, so historical data is unaffected.
func (s *catalogService) UpdateOptionGroup(restaurantID, groupID int64, req OptionGroupRequest) (*models.OptionGroup, error) {
	group, err := s.catalogRepo.GetOptionGroupByID(restaurantID, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOptionGroupNotFound
		}
		return nil, fmt.Errorf("failed to find option group for update: %w", err)
	}
	if req.MinSelect < 0 || req.MaxSelect < 0 || req.MinSelect > req.MaxSelect {
		return nil, ErrInvalidSelectRange
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if !utils.IsEmpty(req.Name) {
		group.Name = req.Name
	}
	group.MinSelect = req.MinSelect
	group.MaxSelect = req.MaxSelect
	if err := s.catalogRepo.UpdateOptionGroup(tx, group); err != nil {
		return nil, fmt.Errorf("failed to update option group: %w", err)
	}

	for _, existing := range group.Options {
		if err := s.catalogRepo.DeleteOption(tx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to remove option %d: %w", existing.ID, err)
		}
	}
	group.Options = make([]models.Option, 0, len(req.Options))
	for _, opt := range req.Options {
		if utils.IsEmpty(opt.Name) {
			return nil, fmt.Errorf("%w: option name is required", ErrValidation)
		}
		option := models.Option{
			OptionGroupID: group.ID,
			Name:          opt.Name,
			PriceDelta:    opt.PriceDelta,
			IsAvailable:   true,
		}
		if opt.IsAvailable != nil {
			option.IsAvailable = *opt.IsAvailable
		}
		if _, err := s.catalogRepo.CreateOption(tx, &option); err != nil {
			return nil, fmt.Errorf("failed to create option: %w", err)
		}
		group.Options = append(group.Options, option)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit option group update: %w", err)
	}
	return group, nil
}

func (s *catalogService) DeleteOptionGroup(restaurantID, groupID int64) error {
	if _, err := s.catalogRepo.GetOptionGroupByID(restaurantID, groupID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOptionGroupNotFound
		}
		return fmt.Errorf("failed to find option group for deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.catalogRepo.DeleteOptionGroup(tx, groupID); err != nil {
		return fmt.Errorf("failed to delete option group: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit option group deletion: %w", err)
	}
	return nil
}

// --- MenuItem <-> OptionGroup Association ---

func (s *catalogService) AttachOptionGroup(restaurantID, itemID int64, req AttachOptionGroupRequest) error {
	if _, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to validate menu item: %w", err)
	}
	if _, err := s.catalogRepo.GetOptionGroupByID(restaurantID, req.OptionGroupID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOptionGroupNotFound
		}
		return fmt.Errorf("failed to validate option group: %w", err)
	}

	assoc := models.MenuItemOptionGroup{
		MenuItemID:    itemID,
		OptionGroupID: req.OptionGroupID,
		Position:      req.Position,
	}
	if err := s.catalogRepo.AttachOptionGroup(s.db, &assoc); err != nil {
		return fmt.Errorf("failed to attach option group: %w", err)
	}
	return nil
}

func (s *catalogService) DetachOptionGroup(restaurantID, itemID, groupID int64) error {
	if _, err := s.catalogRepo.GetMenuItemByID(restaurantID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to validate menu item: %w", err)
	}
	if err := s.catalogRepo.DetachOptionGroup(s.db, itemID, groupID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOptionGroupNotFound
		}
		return fmt.Errorf("failed to detach option group: %w", err)
	}
	return nil
}

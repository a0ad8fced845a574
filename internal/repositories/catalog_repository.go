package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dinehub_backend/internal/models"
)

// CatalogRepository defines database operations for the menu catalog:
// categories, menu items, option groups, and options.
type CatalogRepository interface {
	// Category methods
	CreateCategory(executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(restaurantID, categoryID int64) (*models.Category, error)
	GetCategories(restaurantID int64) ([]models.Category, error)
	UpdateCategory(executor SQLExecutor, category *models.Category) error
	DeleteCategory(executor SQLExecutor, categoryID int64) error

	// MenuItem methods
	CreateMenuItem(executor SQLExecutor, item *models.MenuItem) (int64, error)
	GetMenuItemByID(restaurantID, itemID int64) (*models.MenuItem, error)
	GetMenuItems(restaurantID int64, categoryID *int64, availableOnly bool) ([]models.MenuItem, error)
	UpdateMenuItem(executor SQLExecutor, item *models.MenuItem) error
	DeleteMenuItem(executor SQLExecutor, itemID int64) error

	// OptionGroup / Option methods
	CreateOptionGroup(executor SQLExecutor, group *models.OptionGroup) (int64, error)
	GetOptionGroupByID(restaurantID, groupID int64) (*models.OptionGroup, error)
	GetOptionGroups(restaurantID int64) ([]models.OptionGroup, error)
	UpdateOptionGroup(executor SQLExecutor, group *models.OptionGroup) error
	DeleteOptionGroup(executor SQLExecutor, groupID int64) error

	CreateOption(executor SQLExecutor, option *models.Option) (int64, error)
	GetOptionByID(restaurantID, optionID int64) (*models.Option, error)
	GetOptionsByGroupID(groupID int64) ([]models.Option, error)
	DeleteOption(executor SQLExecutor, optionID int64) error

	// MenuItem <-> OptionGroup association
	AttachOptionGroup(executor SQLExecutor, assoc *models.MenuItemOptionGroup) error
	DetachOptionGroup(executor SQLExecutor, menuItemID, optionGroupID int64) error
	GetOptionGroupsForMenuItem(menuItemID int64) ([]models.OptionGroup, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// --- Category Methods ---

func (r *catalogRepository) CreateCategory(executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (restaurant_id, name, description, position, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		category.RestaurantID, category.Name, category.Description, category.Position, category.IsActive, now, now,
	).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: category %s", ErrDuplicateKey, category.Name)
		}
		return 0, fmt.Errorf("%w: creating category: %v", ErrDatabaseError, err)
	}
	category.CreatedAt = now
	category.UpdatedAt = now
	return category.ID, nil
}

func (r *catalogRepository) GetCategoryByID(restaurantID, categoryID int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, restaurant_id, name, description, position, is_active, created_at, updated_at
	          FROM categories WHERE id = $1 AND restaurant_id = $2`
	err := r.db.QueryRow(query, categoryID, restaurantID).Scan(
		&category.ID, &category.RestaurantID, &category.Name, &category.Description,
		&category.Position, &category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, categoryID, err)
	}
	return category, nil
}

func (r *catalogRepository) GetCategories(restaurantID int64) ([]models.Category, error) {
	categories := []models.Category{}
	query := `SELECT id, restaurant_id, name, description, position, is_active, created_at, updated_at
	          FROM categories WHERE restaurant_id = $1 ORDER BY position, id`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Category
		err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *catalogRepository) UpdateCategory(executor SQLExecutor, category *models.Category) error {
	query := `UPDATE categories SET name = $1, description = $2, position = $3, is_active = $4, updated_at = $5
	          WHERE id = $6 AND restaurant_id = $7`
	result, err := executor.Exec(query,
		category.Name, category.Description, category.Position, category.IsActive, time.Now(),
		category.ID, category.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating category ID %d: %v", ErrDatabaseError, category.ID, err)
	}
	return requireRowsAffected(result, "category")
}

func (r *catalogRepository) DeleteCategory(executor SQLExecutor, categoryID int64) error {
	// Items keep a weak back reference; detach them before removing the category.
	if _, err := executor.Exec(`UPDATE menu_items SET category_id = NULL WHERE category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("%w: detaching menu items from category %d: %v", ErrDatabaseError, categoryID, err)
	}
	result, err := executor.Exec(`DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("%w: deleting category ID %d: %v", ErrDatabaseError, categoryID, err)
	}
	return requireRowsAffected(result, "category")
}

// --- MenuItem Methods ---

func (r *catalogRepository) CreateMenuItem(executor SQLExecutor, item *models.MenuItem) (int64, error) {
	query := `INSERT INTO menu_items (restaurant_id, category_id, name, description, price, is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		item.RestaurantID, item.CategoryID, item.Name, item.Description, item.Price, item.IsAvailable, now, now,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: creating menu item, category %v not found", ErrDatabaseError, item.CategoryID)
		}
		return 0, fmt.Errorf("%w: creating menu item: %v", ErrDatabaseError, err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item.ID, nil
}

func (r *catalogRepository) GetMenuItemByID(restaurantID, itemID int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT id, restaurant_id, category_id, name, description, price, is_available, created_at, updated_at
	          FROM menu_items WHERE id = $1 AND restaurant_id = $2`
	err := r.db.QueryRow(query, itemID, restaurantID).Scan(
		&item.ID, &item.RestaurantID, &item.CategoryID, &item.Name, &item.Description,
		&item.Price, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *catalogRepository) GetMenuItems(restaurantID int64, categoryID *int64, availableOnly bool) ([]models.MenuItem, error) {
	items := []models.MenuItem{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, restaurant_id, category_id, name, description, price, is_available, created_at, updated_at
	          FROM menu_items`)

	conditions := []string{"restaurant_id = $1"}
	args := []interface{}{restaurantID}
	argCounter := 2

	if categoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argCounter))
		args = append(args, *categoryID)
		argCounter++
	}
	if availableOnly {
		conditions = append(conditions, "is_available = TRUE")
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY name, id")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var i models.MenuItem
		err := rows.Scan(&i.ID, &i.RestaurantID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.CreatedAt, &i.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, i)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *catalogRepository) UpdateMenuItem(executor SQLExecutor, item *models.MenuItem) error {
	query := `UPDATE menu_items SET category_id = $1, name = $2, description = $3, price = $4, is_available = $5, updated_at = $6
	          WHERE id = $7 AND restaurant_id = $8`
	result, err := executor.Exec(query,
		item.CategoryID, item.Name, item.Description, item.Price, item.IsAvailable, time.Now(),
		item.ID, item.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating menu item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	return requireRowsAffected(result, "menu item")
}

func (r *catalogRepository) DeleteMenuItem(executor SQLExecutor, itemID int64) error {
	if _, err := executor.Exec(`DELETE FROM menu_item_option_groups WHERE menu_item_id = $1`, itemID); err != nil {
		return fmt.Errorf("%w: detaching option groups from menu item %d: %v", ErrDatabaseError, itemID, err)
	}
	result, err := executor.Exec(`DELETE FROM menu_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting menu item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return requireRowsAffected(result, "menu item")
}

// --- OptionGroup / Option Methods ---

func (r *catalogRepository) CreateOptionGroup(executor SQLExecutor, group *models.OptionGroup) (int64, error) {
	query := `INSERT INTO option_groups (restaurant_id, name, min_select, max_select, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		group.RestaurantID, group.Name, group.MinSelect, group.MaxSelect, now, now,
	).Scan(&group.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating option group: %v", ErrDatabaseError, err)
	}
	group.CreatedAt = now
	group.UpdatedAt = now
	return group.ID, nil
}

func (r *catalogRepository) GetOptionGroupByID(restaurantID, groupID int64) (*models.OptionGroup, error) {
	group := &models.OptionGroup{}
	query := `SELECT id, restaurant_id, name, min_select, max_select, created_at, updated_at
	          FROM option_groups WHERE id = $1 AND restaurant_id = $2`
	err := r.db.QueryRow(query, groupID, restaurantID).Scan(
		&group.ID, &group.RestaurantID, &group.Name, &group.MinSelect, &group.MaxSelect,
		&group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting option group by ID %d: %v", ErrDatabaseError, groupID, err)
	}

	options, err := r.GetOptionsByGroupID(groupID)
	if err != nil {
		return nil, err
	}
	group.Options = options
	return group, nil
}

func (r *catalogRepository) GetOptionGroups(restaurantID int64) ([]models.OptionGroup, error) {
	groups := []models.OptionGroup{}
	query := `SELECT id, restaurant_id, name, min_select, max_select, created_at, updated_at
	          FROM option_groups WHERE restaurant_id = $1 ORDER BY name, id`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying option groups: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.OptionGroup
		err := rows.Scan(&g.ID, &g.RestaurantID, &g.Name, &g.MinSelect, &g.MaxSelect, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning option group: %v", ErrDatabaseError, err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating option group rows: %v", ErrDatabaseError, err)
	}
	return groups, nil
}

func (r *catalogRepository) UpdateOptionGroup(executor SQLExecutor, group *models.OptionGroup) error {
	query := `UPDATE option_groups SET name = $1, min_select = $2, max_select = $3, updated_at = $4
	          WHERE id = $5 AND restaurant_id = $6`
	result, err := executor.Exec(query,
		group.Name, group.MinSelect, group.MaxSelect, time.Now(), group.ID, group.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating option group ID %d: %v", ErrDatabaseError, group.ID, err)
	}
	return requireRowsAffected(result, "option group")
}

func (r *catalogRepository) DeleteOptionGroup(executor SQLExecutor, groupID int64) error {
	if _, err := executor.Exec(`DELETE FROM menu_item_option_groups WHERE option_group_id = $1`, groupID); err != nil {
		return fmt.Errorf("%w: detaching option group %d from menu items: %v", ErrDatabaseError, groupID, err)
	}
	if _, err := executor.Exec(`DELETE FROM options WHERE option_group_id = $1`, groupID); err != nil {
		return fmt.Errorf("%w: deleting options of group %d: %v", ErrDatabaseError, groupID, err)
	}
	result, err := executor.Exec(`DELETE FROM option_groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("%w: deleting option group ID %d: %v", ErrDatabaseError, groupID, err)
	}
	return requireRowsAffected(result, "option group")
}

func (r *catalogRepository) CreateOption(executor SQLExecutor, option *models.Option) (int64, error) {
	query := `INSERT INTO options (option_group_id, name, price_delta, is_available, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		option.OptionGroupID, option.Name, option.PriceDelta, option.IsAvailable, now,
	).Scan(&option.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: creating option, group %d not found", ErrDatabaseError, option.OptionGroupID)
		}
		return 0, fmt.Errorf("%w: creating option: %v", ErrDatabaseError, err)
	}
	option.CreatedAt = now
	return option.ID, nil
}

// GetOptionByID resolves an option through its group so the lookup stays
// inside the caller's restaurant; another tenant's option is not found.
func (r *catalogRepository) GetOptionByID(restaurantID, optionID int64) (*models.Option, error) {
	option := &models.Option{}
	query := `SELECT o.id, o.option_group_id, o.name, o.price_delta, o.is_available, o.created_at
	          FROM options o
	          JOIN option_groups g ON g.id = o.option_group_id
	          WHERE o.id = $1 AND g.restaurant_id = $2`
	err := r.db.QueryRow(query, optionID, restaurantID).Scan(
		&option.ID, &option.OptionGroupID, &option.Name, &option.PriceDelta, &option.IsAvailable, &option.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting option by ID %d: %v", ErrDatabaseError, optionID, err)
	}
	return option, nil
}

func (r *catalogRepository) GetOptionsByGroupID(groupID int64) ([]models.Option, error) {
	options := []models.Option{}
	query := `SELECT id, option_group_id, name, price_delta, is_available, created_at
	          FROM options WHERE option_group_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying options for group %d: %v", ErrDatabaseError, groupID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Option
		err := rows.Scan(&o.ID, &o.OptionGroupID, &o.Name, &o.PriceDelta, &o.IsAvailable, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning option: %v", ErrDatabaseError, err)
		}
		options = append(options, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating option rows: %v", ErrDatabaseError, err)
	}
	return options, nil
}

func (r *catalogRepository) DeleteOption(executor SQLExecutor, optionID int64) error {
	result, err := executor.Exec(`DELETE FROM options WHERE id = $1`, optionID)
	if err != nil {
		return fmt.Errorf("%w: deleting option ID %d: %v", ErrDatabaseError, optionID, err)
	}
	return requireRowsAffected(result, "option")
}

// --- MenuItem <-> OptionGroup Association ---

func (r *catalogRepository) AttachOptionGroup(executor SQLExecutor, assoc *models.MenuItemOptionGroup) error {
	query := `INSERT INTO menu_item_option_groups (menu_item_id, option_group_id, position)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (menu_item_id, option_group_id) DO UPDATE SET position = EXCLUDED.position`
	_, err := executor.Exec(query, assoc.MenuItemID, assoc.OptionGroupID, assoc.Position)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: attaching option group %d to menu item %d: %v", ErrDatabaseError, assoc.OptionGroupID, assoc.MenuItemID, err)
	}
	return nil
}

func (r *catalogRepository) DetachOptionGroup(executor SQLExecutor, menuItemID, optionGroupID int64) error {
	result, err := executor.Exec(`DELETE FROM menu_item_option_groups WHERE menu_item_id = $1 AND option_group_id = $2`, menuItemID, optionGroupID)
	if err != nil {
		return fmt.Errorf("%w: detaching option group %d from menu item %d: %v", ErrDatabaseError, optionGroupID, menuItemID, err)
	}
	return requireRowsAffected(result, "menu item option group")
}

func (r *catalogRepository) GetOptionGroupsForMenuItem(menuItemID int64) ([]models.OptionGroup, error) {
	groups := []models.OptionGroup{}
	query := `SELECT og.id, og.restaurant_id, og.name, og.min_select, og.max_select, og.created_at, og.updated_at,
	                 miog.position
	          FROM option_groups og
	          JOIN menu_item_option_groups miog ON miog.option_group_id = og.id
	          WHERE miog.menu_item_id = $1
	          ORDER BY miog.position, og.id`
	rows, err := r.db.Query(query, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying option groups for menu item %d: %v", ErrDatabaseError, menuItemID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.OptionGroup
		var position int
		err := rows.Scan(&g.ID, &g.RestaurantID, &g.Name, &g.MinSelect, &g.MaxSelect, &g.CreatedAt, &g.UpdatedAt, &position)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning option group for menu item: %v", ErrDatabaseError, err)
		}
		g.Position = &position
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item option group rows: %v", ErrDatabaseError, err)
	}

	for i := range groups {
		options, err := r.GetOptionsByGroupID(groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Options = options
	}
	return groups, nil
}

// requireRowsAffected converts a zero-row write into ErrNotFound.
func requireRowsAffected(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for %s: %v", ErrDatabaseError, entity, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

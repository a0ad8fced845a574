package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"dinehub_backend/internal/models"
)

// RestaurantRepository defines database operations for restaurants,
// their settings, onboarding state, and agent channels.
type RestaurantRepository interface {
	// Restaurant methods
	CreateRestaurant(executor SQLExecutor, restaurant *models.Restaurant) (int64, error)
	GetRestaurantByID(restaurantID int64) (*models.Restaurant, error)
	GetRestaurantBySlug(slug string) (*models.Restaurant, error)
	UpdateRestaurant(executor SQLExecutor, restaurant *models.Restaurant) error

	// Settings methods
	UpsertSetting(executor SQLExecutor, setting *models.RestaurantSetting) error
	GetSetting(restaurantID int64, key string) (*models.RestaurantSetting, error)
	GetSettings(restaurantID int64) ([]models.RestaurantSetting, error)
	DeleteSetting(executor SQLExecutor, restaurantID int64, key string) error

	// Onboarding methods
	GetOnboardingState(restaurantID int64) (*models.OnboardingState, error)
	UpsertOnboardingState(executor SQLExecutor, state *models.OnboardingState) error

	// AgentChannel methods
	CreateAgentChannel(executor SQLExecutor, channel *models.AgentChannel) (int64, error)
	GetAgentChannelByID(restaurantID, channelID int64) (*models.AgentChannel, error)
	GetAgentChannels(restaurantID int64) ([]models.AgentChannel, error)
	UpdateAgentChannel(executor SQLExecutor, channel *models.AgentChannel) error
	DeleteAgentChannel(executor SQLExecutor, channelID int64) error
}

type restaurantRepository struct {
	db *sql.DB
}

// NewRestaurantRepository creates a new instance of RestaurantRepository.
func NewRestaurantRepository(db *sql.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

// --- Restaurant Methods ---

func (r *restaurantRepository) CreateRestaurant(executor SQLExecutor, restaurant *models.Restaurant) (int64, error) {
	query := `INSERT INTO restaurants (name, slug, phone, address, timezone, currency, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		restaurant.Name, restaurant.Slug, restaurant.Phone, restaurant.Address,
		restaurant.Timezone, restaurant.Currency, restaurant.IsActive, now, now,
	).Scan(&restaurant.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: restaurant slug %s", ErrDuplicateKey, restaurant.Slug)
		}
		return 0, fmt.Errorf("%w: creating restaurant: %v", ErrDatabaseError, err)
	}
	restaurant.CreatedAt = now
	restaurant.UpdatedAt = now
	return restaurant.ID, nil
}

const restaurantColumns = `id, name, slug, phone, address, timezone, currency, is_active, created_at, updated_at`

func scanRestaurant(row interface{ Scan(...interface{}) error }) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{}
	err := row.Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.Slug, &restaurant.Phone, &restaurant.Address,
		&restaurant.Timezone, &restaurant.Currency, &restaurant.IsActive, &restaurant.CreatedAt, &restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *restaurantRepository) GetRestaurantByID(restaurantID int64) (*models.Restaurant, error) {
	restaurant, err := scanRestaurant(r.db.QueryRow(`SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by ID %d: %v", ErrDatabaseError, restaurantID, err)
	}
	return restaurant, nil
}

func (r *restaurantRepository) GetRestaurantBySlug(slug string) (*models.Restaurant, error) {
	restaurant, err := scanRestaurant(r.db.QueryRow(`SELECT `+restaurantColumns+` FROM restaurants WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by slug %s: %v", ErrDatabaseError, slug, err)
	}
	return restaurant, nil
}

func (r *restaurantRepository) UpdateRestaurant(executor SQLExecutor, restaurant *models.Restaurant) error {
	query := `UPDATE restaurants SET name = $1, phone = $2, address = $3, timezone = $4, currency = $5, is_active = $6, updated_at = $7
	          WHERE id = $8`
	result, err := executor.Exec(query,
		restaurant.Name, restaurant.Phone, restaurant.Address, restaurant.Timezone,
		restaurant.Currency, restaurant.IsActive, time.Now(), restaurant.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating restaurant ID %d: %v", ErrDatabaseError, restaurant.ID, err)
	}
	return requireRowsAffected(result, "restaurant")
}

// --- Settings Methods ---

func (r *restaurantRepository) UpsertSetting(executor SQLExecutor, setting *models.RestaurantSetting) error {
	query := `INSERT INTO restaurant_settings (restaurant_id, key, value, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (restaurant_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query, setting.RestaurantID, setting.Key, setting.Value, now).Scan(&setting.ID)
	if err != nil {
		return fmt.Errorf("%w: upserting setting %s for restaurant %d: %v", ErrDatabaseError, setting.Key, setting.RestaurantID, err)
	}
	setting.UpdatedAt = now
	return nil
}

func (r *restaurantRepository) GetSetting(restaurantID int64, key string) (*models.RestaurantSetting, error) {
	setting := &models.RestaurantSetting{}
	query := `SELECT id, restaurant_id, key, value, updated_at FROM restaurant_settings WHERE restaurant_id = $1 AND key = $2`
	err := r.db.QueryRow(query, restaurantID, key).Scan(
		&setting.ID, &setting.RestaurantID, &setting.Key, &setting.Value, &setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting setting %s: %v", ErrDatabaseError, key, err)
	}
	return setting, nil
}

func (r *restaurantRepository) GetSettings(restaurantID int64) ([]models.RestaurantSetting, error) {
	settings := []models.RestaurantSetting{}
	query := `SELECT id, restaurant_id, key, value, updated_at FROM restaurant_settings WHERE restaurant_id = $1 ORDER BY key`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying settings for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.RestaurantSetting
		err := rows.Scan(&s.ID, &s.RestaurantID, &s.Key, &s.Value, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning setting row: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *restaurantRepository) DeleteSetting(executor SQLExecutor, restaurantID int64, key string) error {
	result, err := executor.Exec(`DELETE FROM restaurant_settings WHERE restaurant_id = $1 AND key = $2`, restaurantID, key)
	if err != nil {
		return fmt.Errorf("%w: deleting setting %s: %v", ErrDatabaseError, key, err)
	}
	return requireRowsAffected(result, "restaurant setting")
}

// --- Onboarding Methods ---

func (r *restaurantRepository) GetOnboardingState(restaurantID int64) (*models.OnboardingState, error) {
	state := &models.OnboardingState{}
	query := `SELECT restaurant_id, current_step, completed_steps, is_complete, updated_at
	          FROM onboarding_states WHERE restaurant_id = $1`
	err := r.db.QueryRow(query, restaurantID).Scan(
		&state.RestaurantID, &state.CurrentStep, pq.Array(&state.CompletedSteps), &state.IsComplete, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting onboarding state for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	return state, nil
}

func (r *restaurantRepository) UpsertOnboardingState(executor SQLExecutor, state *models.OnboardingState) error {
	query := `INSERT INTO onboarding_states (restaurant_id, current_step, completed_steps, is_complete, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (restaurant_id) DO UPDATE SET
	            current_step = EXCLUDED.current_step,
	            completed_steps = EXCLUDED.completed_steps,
	            is_complete = EXCLUDED.is_complete,
	            updated_at = EXCLUDED.updated_at`
	now := time.Now()
	_, err := executor.Exec(query, state.RestaurantID, state.CurrentStep, pq.Array(state.CompletedSteps), state.IsComplete, now)
	if err != nil {
		return fmt.Errorf("%w: upserting onboarding state for restaurant %d: %v", ErrDatabaseError, state.RestaurantID, err)
	}
	state.UpdatedAt = now
	return nil
}

// --- AgentChannel Methods ---

const agentChannelColumns = `id, restaurant_id, channel_type, greeting, forwarding_number, is_enabled, created_at, updated_at`

func scanAgentChannel(row interface{ Scan(...interface{}) error }) (*models.AgentChannel, error) {
	channel := &models.AgentChannel{}
	err := row.Scan(
		&channel.ID, &channel.RestaurantID, &channel.ChannelType, &channel.Greeting,
		&channel.ForwardingNumber, &channel.IsEnabled, &channel.CreatedAt, &channel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return channel, nil
}

func (r *restaurantRepository) CreateAgentChannel(executor SQLExecutor, channel *models.AgentChannel) (int64, error) {
	query := `INSERT INTO agent_channels (restaurant_id, channel_type, greeting, forwarding_number, is_enabled, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		channel.RestaurantID, channel.ChannelType, channel.Greeting, channel.ForwardingNumber, channel.IsEnabled, now, now,
	).Scan(&channel.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating agent channel: %v", ErrDatabaseError, err)
	}
	channel.CreatedAt = now
	channel.UpdatedAt = now
	return channel.ID, nil
}

func (r *restaurantRepository) GetAgentChannelByID(restaurantID, channelID int64) (*models.AgentChannel, error) {
	query := `SELECT ` + agentChannelColumns + ` FROM agent_channels WHERE id = $1 AND restaurant_id = $2`
	channel, err := scanAgentChannel(r.db.QueryRow(query, channelID, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting agent channel by ID %d: %v", ErrDatabaseError, channelID, err)
	}
	return channel, nil
}

func (r *restaurantRepository) GetAgentChannels(restaurantID int64) ([]models.AgentChannel, error) {
	channels := []models.AgentChannel{}
	query := `SELECT ` + agentChannelColumns + ` FROM agent_channels WHERE restaurant_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying agent channels for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	defer rows.Close()

	for rows.Next() {
		channel, err := scanAgentChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning agent channel row: %v", ErrDatabaseError, err)
		}
		channels = append(channels, *channel)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating agent channel rows: %v", ErrDatabaseError, err)
	}
	return channels, nil
}

func (r *restaurantRepository) UpdateAgentChannel(executor SQLExecutor, channel *models.AgentChannel) error {
	query := `UPDATE agent_channels SET channel_type = $1, greeting = $2, forwarding_number = $3, is_enabled = $4, updated_at = $5
	          WHERE id = $6 AND restaurant_id = $7`
	result, err := executor.Exec(query,
		channel.ChannelType, channel.Greeting, channel.ForwardingNumber, channel.IsEnabled, time.Now(),
		channel.ID, channel.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating agent channel ID %d: %v", ErrDatabaseError, channel.ID, err)
	}
	return requireRowsAffected(result, "agent channel")
}

func (r *restaurantRepository) DeleteAgentChannel(executor SQLExecutor, channelID int64) error {
	result, err := executor.Exec(`DELETE FROM agent_channels WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("%w: deleting agent channel ID %d: %v", ErrDatabaseError, channelID, err)
	}
	return requireRowsAffected(result, "agent channel")
}

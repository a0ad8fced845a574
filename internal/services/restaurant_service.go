package services

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
	"dinehub_backend/pkg/utils"
)

// --- Custom Service Errors for Restaurants ---
var (
	ErrRestaurantNotFound   = errors.New("restaurant not found")
	ErrSlugTaken            = errors.New("restaurant slug is already taken")
	ErrSettingNotFound      = errors.New("setting not found")
	ErrInvalidChannelType   = errors.New("invalid agent channel type")
	ErrAgentChannelNotFound = errors.New("agent channel not found")
	ErrUnknownOnboardingStep = errors.New("unknown onboarding step")
)

// Onboarding wizard steps, in display order.
var OnboardingSteps = []string{"restaurant_profile", "menu_setup", "staff_setup", "agent_setup"}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// --- DTOs ---

// CreateRestaurantRequest provisions a new restaurant tenant.
type CreateRestaurantRequest struct {
	Name     string  `json:"name" binding:"required"`
	Slug     string  `json:"slug"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Timezone string  `json:"timezone"`
	Currency string  `json:"currency"`
}

// UpdateRestaurantRequest changes a restaurant's profile.
type UpdateRestaurantRequest struct {
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Timezone string  `json:"timezone"`
	Currency string  `json:"currency"`
	IsActive *bool   `json:"is_active"`
}

// UpdateSettingsRequest upserts a batch of settings in one call.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// OnboardingUpdateRequest advances the setup wizard.
type OnboardingUpdateRequest struct {
	CurrentStep    string   `json:"current_step" binding:"required"`
	CompletedSteps []string `json:"completed_steps"`
	IsComplete     bool     `json:"is_complete"`
}

// AgentChannelRequest creates or updates an agent channel.
type AgentChannelRequest struct {
	ChannelType      models.AgentChannelType `json:"channel_type" binding:"required"`
	Greeting         *string                 `json:"greeting"`
	ForwardingNumber *string                 `json:"forwarding_number"`
	IsEnabled        *bool                   `json:"is_enabled"`
}

// --- RestaurantService Interface ---
type RestaurantService interface {
	CreateRestaurant(ownerUserID int64, req CreateRestaurantRequest) (*models.Restaurant, error)
	GetRestaurant(restaurantID int64) (*models.Restaurant, error)
	UpdateRestaurant(restaurantID int64, req UpdateRestaurantRequest) (*models.Restaurant, error)

	GetSettings(restaurantID int64) (map[string]string, error)
	UpdateSettings(restaurantID int64, req UpdateSettingsRequest) (map[string]string, error)
	DeleteSetting(restaurantID int64, key string) error

	GetOnboardingState(restaurantID int64) (*models.OnboardingState, error)
	UpdateOnboardingState(restaurantID int64, req OnboardingUpdateRequest) (*models.OnboardingState, error)

	CreateAgentChannel(restaurantID int64, req AgentChannelRequest) (*models.AgentChannel, error)
	GetAgentChannels(restaurantID int64) ([]models.AgentChannel, error)
	UpdateAgentChannel(restaurantID, channelID int64, req AgentChannelRequest) (*models.AgentChannel, error)
	DeleteAgentChannel(restaurantID, channelID int64) error
}

// --- restaurantService Implementation ---
type restaurantService struct {
	restaurantRepo repositories.RestaurantRepository
	staffRepo      repositories.StaffRepository
	db             *sql.DB
}

// NewRestaurantService creates a new instance of RestaurantService.
func NewRestaurantService(rr repositories.RestaurantRepository, sr repositories.StaffRepository, db *sql.DB) RestaurantService {
	return &restaurantService{restaurantRepo: rr, staffRepo: sr, db: db}
}

// --- Restaurant Method Implementations ---

// CreateRestaurant provisions the tenant, the owner's staff record, and a
// fresh onboarding state in a single transaction.
func (s *restaurantService) CreateRestaurant(ownerUserID int64, req CreateRestaurantRequest) (*models.Restaurant, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: restaurant name is required", ErrValidation)
	}

	slug := req.Slug
	if utils.IsEmpty(slug) {
		slug = slugify(req.Name)
	} else {
		slug = slugify(slug)
	}
	if utils.IsEmpty(slug) {
		return nil, fmt.Errorf("%w: slug must contain letters or digits", ErrValidation)
	}

	restaurant := models.Restaurant{
		Name:     req.Name,
		Slug:     slug,
		Phone:    req.Phone,
		Address:  req.Address,
		Timezone: defaultString(req.Timezone, "UTC"),
		Currency: defaultString(req.Currency, "USD"),
		IsActive: true,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.restaurantRepo.CreateRestaurant(tx, &restaurant); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	owner := models.RestaurantStaff{
		RestaurantID: restaurant.ID,
		UserID:       ownerUserID,
		Role:         models.RoleOwner,
		IsActive:     true,
	}
	if _, err := s.staffRepo.CreateStaff(tx, &owner); err != nil {
		return nil, fmt.Errorf("failed to create owner staff record: %w", err)
	}

	state := models.OnboardingState{
		RestaurantID:   restaurant.ID,
		CurrentStep:    OnboardingSteps[0],
		CompletedSteps: []string{},
		IsComplete:     false,
	}
	if err := s.restaurantRepo.UpsertOnboardingState(tx, &state); err != nil {
		return nil, fmt.Errorf("failed to initialize onboarding state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restaurant creation: %w", err)
	}
	return &restaurant, nil
}

func (s *restaurantService) GetRestaurant(restaurantID int64) (*models.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetRestaurantByID(restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return restaurant, nil
}

func (s *restaurantService) UpdateRestaurant(restaurantID int64, req UpdateRestaurantRequest) (*models.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetRestaurantByID(restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to find restaurant for update: %w", err)
	}

	if !utils.IsEmpty(req.Name) {
		restaurant.Name = req.Name
	}
	if req.Phone != nil {
		restaurant.Phone = req.Phone
	}
	if req.Address != nil {
		restaurant.Address = req.Address
	}
	if !utils.IsEmpty(req.Timezone) {
		restaurant.Timezone = req.Timezone
	}
	if !utils.IsEmpty(req.Currency) {
		restaurant.Currency = req.Currency
	}
	if req.IsActive != nil {
		restaurant.IsActive = *req.IsActive
	}

	if err := s.restaurantRepo.UpdateRestaurant(s.db, restaurant); err != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	return restaurant, nil
}

// --- Settings Method Implementations ---

func (s *restaurantService) GetSettings(restaurantID int64) (map[string]string, error) {
	settings, err := s.restaurantRepo.GetSettings(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	result := make(map[string]string, len(settings))
	for _, setting := range settings {
		result[setting.Key] = setting.Value
	}
	return result, nil
}

func (s *restaurantService) UpdateSettings(restaurantID int64, req UpdateSettingsRequest) (map[string]string, error) {
	if len(req.Settings) == 0 {
		return nil, fmt.Errorf("%w: no settings provided", ErrValidation)
	}
	for key := range req.Settings {
		if utils.IsEmpty(key) {
			return nil, fmt.Errorf("%w: setting key cannot be empty", ErrValidation)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range req.Settings {
		setting := models.RestaurantSetting{
			RestaurantID: restaurantID,
			Key:          key,
			Value:        value,
		}
		if err := s.restaurantRepo.UpsertSetting(tx, &setting); err != nil {
			return nil, fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settings update: %w", err)
	}
	return s.GetSettings(restaurantID)
}

func (s *restaurantService) DeleteSetting(restaurantID int64, key string) error {
	if err := s.restaurantRepo.DeleteSetting(s.db, restaurantID, key); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// --- Onboarding Method Implementations ---

// GetOnboardingState returns the wizard progress, synthesizing a fresh
// state for restaurants created before onboarding tracking existed.
func (s *restaurantService) GetOnboardingState(restaurantID int64) (*models.OnboardingState, error) {
	state, err := s.restaurantRepo.GetOnboardingState(restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.OnboardingState{
				RestaurantID:   restaurantID,
				CurrentStep:    OnboardingSteps[0],
				CompletedSteps: []string{},
				IsComplete:     false,
				UpdatedAt:      time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to get onboarding state: %w", err)
	}
	if state.CompletedSteps == nil {
		state.CompletedSteps = []string{}
	}
	return state, nil
}

func (s *restaurantService) UpdateOnboardingState(restaurantID int64, req OnboardingUpdateRequest) (*models.OnboardingState, error) {
	if !isKnownStep(req.CurrentStep) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOnboardingStep, req.CurrentStep)
	}
	for _, step := range req.CompletedSteps {
		if !isKnownStep(step) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOnboardingStep, step)
		}
	}

	completed := req.CompletedSteps
	if completed == nil {
		completed = []string{}
	}
	state := models.OnboardingState{
		RestaurantID:   restaurantID,
		CurrentStep:    req.CurrentStep,
		CompletedSteps: completed,
		IsComplete:     req.IsComplete || len(completed) == len(OnboardingSteps),
	}
	if err := s.restaurantRepo.UpsertOnboardingState(s.db, &state); err != nil {
		return nil, fmt.Errorf("failed to update onboarding state: %w", err)
	}
	return &state, nil
}

// --- AgentChannel Method Implementations ---

func (s *restaurantService) CreateAgentChannel(restaurantID int64, req AgentChannelRequest) (*models.AgentChannel, error) {
	if !models.IsValidAgentChannelType(req.ChannelType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChannelType, req.ChannelType)
	}

	channel := models.AgentChannel{
		RestaurantID:     restaurantID,
		ChannelType:      req.ChannelType,
		Greeting:         req.Greeting,
		ForwardingNumber: req.ForwardingNumber,
		IsEnabled:        true,
	}
	if req.IsEnabled != nil {
		channel.IsEnabled = *req.IsEnabled
	}
	if _, err := s.restaurantRepo.CreateAgentChannel(s.db, &channel); err != nil {
		return nil, fmt.Errorf("failed to create agent channel: %w", err)
	}
	return &channel, nil
}

func (s *restaurantService) GetAgentChannels(restaurantID int64) ([]models.AgentChannel, error) {
	channels, err := s.restaurantRepo.GetAgentChannels(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent channels: %w", err)
	}
	return channels, nil
}

func (s *restaurantService) UpdateAgentChannel(restaurantID, channelID int64, req AgentChannelRequest) (*models.AgentChannel, error) {
	channel, err := s.restaurantRepo.GetAgentChannelByID(restaurantID, channelID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAgentChannelNotFound
		}
		return nil, fmt.Errorf("failed to find agent channel for update: %w", err)
	}

	if req.ChannelType != "" {
		if !models.IsValidAgentChannelType(req.ChannelType) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidChannelType, req.ChannelType)
		}
		channel.ChannelType = req.ChannelType
	}
	if req.Greeting != nil {
		channel.Greeting = req.Greeting
	}
	if req.ForwardingNumber != nil {
		channel.ForwardingNumber = req.ForwardingNumber
	}
	if req.IsEnabled != nil {
		channel.IsEnabled = *req.IsEnabled
	}

	if err := s.restaurantRepo.UpdateAgentChannel(s.db, channel); err != nil {
		return nil, fmt.Errorf("failed to update agent channel: %w", err)
	}
	return channel, nil
}

func (s *restaurantService) DeleteAgentChannel(restaurantID, channelID int64) error {
	if _, err := s.restaurantRepo.GetAgentChannelByID(restaurantID, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAgentChannelNotFound
		}
		return fmt.Errorf("failed to find agent channel for deletion: %w", err)
	}
	if err := s.restaurantRepo.DeleteAgentChannel(s.db, channelID); err != nil {
		return fmt.Errorf("failed to delete agent channel: %w", err)
	}
	return nil
}

// --- Helpers ---

// slugify lowercases the input and collapses runs of non-alphanumeric
// characters into single hyphens.
func slugify(input string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(input), "-")
	return strings.Trim(slug, "-")
}

func isKnownStep(step string) bool {
	for _, known := range OnboardingSteps {
		if known == step {
			return true
		}
	}
	return false
}

func defaultString(value, fallback string) string {
	if utils.IsEmpty(value) {
		return fallback
	}
	return value
}

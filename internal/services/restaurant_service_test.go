package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
)

// memRestaurantRepo is a fuller in-memory stub used by the restaurant
// service tests.
type memRestaurantRepo struct {
	nextID      int64
	restaurants map[int64]*models.Restaurant
	settings    map[int64]map[string]string
	onboarding  map[int64]*models.OnboardingState
	channels    map[int64]*models.AgentChannel
	nextChanID  int64
}

func newMemRestaurantRepo() *memRestaurantRepo {
	return &memRestaurantRepo{
		restaurants: make(map[int64]*models.Restaurant),
		settings:    make(map[int64]map[string]string),
		onboarding:  make(map[int64]*models.OnboardingState),
		channels:    make(map[int64]*models.AgentChannel),
	}
}

func (r *memRestaurantRepo) CreateRestaurant(_ repositories.SQLExecutor, restaurant *models.Restaurant) (int64, error) {
	for _, existing := range r.restaurants {
		if existing.Slug == restaurant.Slug {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	restaurant.ID = r.nextID
	cp := *restaurant
	r.restaurants[restaurant.ID] = &cp
	return restaurant.ID, nil
}

func (r *memRestaurantRepo) GetRestaurantByID(restaurantID int64) (*models.Restaurant, error) {
	restaurant, ok := r.restaurants[restaurantID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *restaurant
	return &cp, nil
}

func (r *memRestaurantRepo) GetRestaurantBySlug(slug string) (*models.Restaurant, error) {
	for _, restaurant := range r.restaurants {
		if restaurant.Slug == slug {
			cp := *restaurant
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memRestaurantRepo) UpdateRestaurant(_ repositories.SQLExecutor, restaurant *models.Restaurant) error {
	if _, ok := r.restaurants[restaurant.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *restaurant
	r.restaurants[restaurant.ID] = &cp
	return nil
}

func (r *memRestaurantRepo) UpsertSetting(_ repositories.SQLExecutor, setting *models.RestaurantSetting) error {
	if r.settings[setting.RestaurantID] == nil {
		r.settings[setting.RestaurantID] = make(map[string]string)
	}
	r.settings[setting.RestaurantID][setting.Key] = setting.Value
	return nil
}

func (r *memRestaurantRepo) GetSetting(restaurantID int64, key string) (*models.RestaurantSetting, error) {
	value, ok := r.settings[restaurantID][key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.RestaurantSetting{RestaurantID: restaurantID, Key: key, Value: value}, nil
}

func (r *memRestaurantRepo) GetSettings(restaurantID int64) ([]models.RestaurantSetting, error) {
	result := []models.RestaurantSetting{}
	for key, value := range r.settings[restaurantID] {
		result = append(result, models.RestaurantSetting{RestaurantID: restaurantID, Key: key, Value: value})
	}
	return result, nil
}

func (r *memRestaurantRepo) DeleteSetting(_ repositories.SQLExecutor, restaurantID int64, key string) error {
	if _, ok := r.settings[restaurantID][key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.settings[restaurantID], key)
	return nil
}

func (r *memRestaurantRepo) GetOnboardingState(restaurantID int64) (*models.OnboardingState, error) {
	state, ok := r.onboarding[restaurantID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *state
	return &cp, nil
}

func (r *memRestaurantRepo) UpsertOnboardingState(_ repositories.SQLExecutor, state *models.OnboardingState) error {
	cp := *state
	r.onboarding[state.RestaurantID] = &cp
	return nil
}

func (r *memRestaurantRepo) CreateAgentChannel(_ repositories.SQLExecutor, channel *models.AgentChannel) (int64, error) {
	r.nextChanID++
	channel.ID = r.nextChanID
	cp := *channel
	r.channels[channel.ID] = &cp
	return channel.ID, nil
}

func (r *memRestaurantRepo) GetAgentChannelByID(restaurantID, channelID int64) (*models.AgentChannel, error) {
	channel, ok := r.channels[channelID]
	if !ok || channel.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	cp := *channel
	return &cp, nil
}

func (r *memRestaurantRepo) GetAgentChannels(restaurantID int64) ([]models.AgentChannel, error) {
	result := []models.AgentChannel{}
	for id := int64(1); id <= r.nextChanID; id++ {
		if channel, ok := r.channels[id]; ok && channel.RestaurantID == restaurantID {
			result = append(result, *channel)
		}
	}
	return result, nil
}

func (r *memRestaurantRepo) UpdateAgentChannel(_ repositories.SQLExecutor, channel *models.AgentChannel) error {
	if _, ok := r.channels[channel.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *channel
	r.channels[channel.ID] = &cp
	return nil
}

func (r *memRestaurantRepo) DeleteAgentChannel(_ repositories.SQLExecutor, channelID int64) error {
	if _, ok := r.channels[channelID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.channels, channelID)
	return nil
}

// --- Fixture ---

type restaurantServiceFixture struct {
	svc       RestaurantService
	repo      *memRestaurantRepo
	staffRepo *stubStaffRepo
	mock      sqlmock.Sqlmock
}

func newRestaurantServiceFixture(t *testing.T) *restaurantServiceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newMemRestaurantRepo()
	staffRepo := newStubStaffRepo()
	return &restaurantServiceFixture{
		svc:       NewRestaurantService(repo, staffRepo, db),
		repo:      repo,
		staffRepo: staffRepo,
		mock:      mock,
	}
}

// --- Tests ---

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Mario's Pizzeria":    "mario-s-pizzeria",
		"  The Golden  Fork ": "the-golden-fork",
		"CAFE-42":             "cafe-42",
		"---":                 "",
	}
	for input, want := range cases {
		assert.Equal(t, want, slugify(input), "slugify(%q)", input)
	}
}

func TestCreateRestaurantProvisionsTenant(t *testing.T) {
	f := newRestaurantServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	restaurant, err := f.svc.CreateRestaurant(42, CreateRestaurantRequest{Name: "Mario's Pizzeria"})
	require.NoError(t, err)

	assert.Equal(t, "mario-s-pizzeria", restaurant.Slug)
	assert.Equal(t, "UTC", restaurant.Timezone)
	assert.Equal(t, "USD", restaurant.Currency)
	assert.True(t, restaurant.IsActive)

	// The creating user becomes the active owner.
	owner, err := f.staffRepo.GetStaffByUserAndRestaurant(42, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, owner.Role)
	assert.True(t, owner.IsActive)

	// Onboarding starts at the first wizard step.
	state := f.repo.onboarding[restaurant.ID]
	require.NotNil(t, state)
	assert.Equal(t, OnboardingSteps[0], state.CurrentStep)
	assert.False(t, state.IsComplete)
	assert.Empty(t, state.CompletedSteps)
}

func TestCreateRestaurantRejectsDuplicateSlug(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.CreateRestaurant(1, CreateRestaurantRequest{Name: "Duplicate Diner"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.CreateRestaurant(2, CreateRestaurantRequest{Name: "Duplicate Diner"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestCreateRestaurantValidatesInput(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	_, err := f.svc.CreateRestaurant(1, CreateRestaurantRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateRestaurant(1, CreateRestaurantRequest{Name: "ok", Slug: "!!!"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOnboardingState(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	_, err := f.svc.UpdateOnboardingState(1, OnboardingUpdateRequest{CurrentStep: "decorate_lobby"})
	assert.ErrorIs(t, err, ErrUnknownOnboardingStep)

	state, err := f.svc.UpdateOnboardingState(1, OnboardingUpdateRequest{
		CurrentStep:    "menu_setup",
		CompletedSteps: []string{"restaurant_profile"},
	})
	require.NoError(t, err)
	assert.False(t, state.IsComplete)

	// Completing every step flips the flag even if the client omits it.
	state, err = f.svc.UpdateOnboardingState(1, OnboardingUpdateRequest{
		CurrentStep:    "agent_setup",
		CompletedSteps: OnboardingSteps,
	})
	require.NoError(t, err)
	assert.True(t, state.IsComplete)
}

func TestGetOnboardingStateSynthesizesDefault(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	state, err := f.svc.GetOnboardingState(99)
	require.NoError(t, err)
	assert.Equal(t, OnboardingSteps[0], state.CurrentStep)
	assert.NotNil(t, state.CompletedSteps)
	assert.False(t, state.IsComplete)
}

func TestUpdateSettings(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	_, err := f.svc.UpdateSettings(1, UpdateSettingsRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	settings, err := f.svc.UpdateSettings(1, UpdateSettingsRequest{Settings: map[string]string{
		"tax_rate":    "0.0875",
		"service_fee": "1.50",
	}})
	require.NoError(t, err)
	assert.Equal(t, "0.0875", settings["tax_rate"])
	assert.Equal(t, "1.50", settings["service_fee"])

	require.NoError(t, f.svc.DeleteSetting(1, "service_fee"))
	assert.ErrorIs(t, f.svc.DeleteSetting(1, "service_fee"), ErrSettingNotFound)
}

func TestAgentChannels(t *testing.T) {
	f := newRestaurantServiceFixture(t)

	_, err := f.svc.CreateAgentChannel(1, AgentChannelRequest{ChannelType: "smoke_signal"})
	assert.ErrorIs(t, err, ErrInvalidChannelType)

	greeting := "Thanks for calling!"
	channel, err := f.svc.CreateAgentChannel(1, AgentChannelRequest{
		ChannelType: models.AgentChannelPhone,
		Greeting:    &greeting,
	})
	require.NoError(t, err)
	assert.True(t, channel.IsEnabled)

	disabled := false
	updated, err := f.svc.UpdateAgentChannel(1, channel.ID, AgentChannelRequest{
		ChannelType: models.AgentChannelPhone,
		IsEnabled:   &disabled,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsEnabled)

	// Channels are tenant scoped.
	_, err = f.svc.UpdateAgentChannel(2, channel.ID, AgentChannelRequest{ChannelType: models.AgentChannelPhone})
	assert.ErrorIs(t, err, ErrAgentChannelNotFound)

	require.NoError(t, f.svc.DeleteAgentChannel(1, channel.ID))
	assert.ErrorIs(t, f.svc.DeleteAgentChannel(1, channel.ID), ErrAgentChannelNotFound)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/services"
	"dinehub_backend/pkg/utils"
)

// RestaurantHandler holds the restaurant service.
type RestaurantHandler struct {
	restaurantService services.RestaurantService
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(rs services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: rs}
}

// CreateRestaurant provisions a new restaurant with the caller as owner.
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	var req services.CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	restaurant, err := h.restaurantService.CreateRestaurant(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		case errors.Is(err, services.ErrSlugTaken):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "CreateRestaurant: Error from restaurantService.CreateRestaurant")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create restaurant.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

// GetRestaurant returns the authenticated restaurant's profile.
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	restaurant, err := h.restaurantService.GetRestaurant(restaurantID)
	if err != nil {
		if errors.Is(err, services.ErrRestaurantNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Restaurant not found.", ""))
			return
		}
		utils.LogError(err, "GetRestaurant: Error from restaurantService.GetRestaurant")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch restaurant.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// UpdateRestaurant changes the restaurant's profile.
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	restaurant, err := h.restaurantService.UpdateRestaurant(restaurantID, req)
	if err != nil {
		if errors.Is(err, services.ErrRestaurantNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Restaurant not found.", ""))
			return
		}
		utils.LogError(err, "UpdateRestaurant: Error from restaurantService.UpdateRestaurant")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update restaurant.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// --- Settings Handlers ---

// GetSettings returns all settings as a flat key/value map.
func (h *RestaurantHandler) GetSettings(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	settings, err := h.restaurantService.GetSettings(restaurantID)
	if err != nil {
		utils.LogError(err, "GetSettings: Error from restaurantService.GetSettings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings upserts a batch of settings.
func (h *RestaurantHandler) UpdateSettings(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	settings, err := h.restaurantService.UpdateSettings(restaurantID, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
			return
		}
		utils.LogError(err, "UpdateSettings: Error from restaurantService.UpdateSettings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// DeleteSetting removes one setting key.
func (h *RestaurantHandler) DeleteSetting(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	key := c.Param("key")
	if err := h.restaurantService.DeleteSetting(restaurantID, key); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Setting not found.", ""))
			return
		}
		utils.LogError(err, "DeleteSetting: Error from restaurantService.DeleteSetting")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete setting.", "Internal error"))
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Onboarding Handlers ---

// GetOnboardingState returns the persisted setup wizard progress.
func (h *RestaurantHandler) GetOnboardingState(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	state, err := h.restaurantService.GetOnboardingState(restaurantID)
	if err != nil {
		utils.LogError(err, "GetOnboardingState: Error from restaurantService.GetOnboardingState")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch onboarding state.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, state)
}

// UpdateOnboardingState advances the setup wizard.
func (h *RestaurantHandler) UpdateOnboardingState(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.OnboardingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	state, err := h.restaurantService.UpdateOnboardingState(restaurantID, req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownOnboardingStep) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
			return
		}
		utils.LogError(err, "UpdateOnboardingState: Error from restaurantService.UpdateOnboardingState")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update onboarding state.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, state)
}

// --- AgentChannel Handlers ---

// respondAgentChannelError maps agent channel errors to API responses.
func respondAgentChannelError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrAgentChannelNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Agent channel not found.", ""))
	case errors.Is(err, services.ErrInvalidChannelType):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.LogError(err, operation+": Error from restaurantService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Agent channel operation failed.", "Internal error"))
	}
}

func (h *RestaurantHandler) CreateAgentChannel(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.AgentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	channel, err := h.restaurantService.CreateAgentChannel(restaurantID, req)
	if err != nil {
		respondAgentChannelError(c, err, "CreateAgentChannel")
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (h *RestaurantHandler) GetAgentChannels(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	channels, err := h.restaurantService.GetAgentChannels(restaurantID)
	if err != nil {
		respondAgentChannelError(c, err, "GetAgentChannels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": channels})
}

func (h *RestaurantHandler) UpdateAgentChannel(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AgentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	channel, err := h.restaurantService.UpdateAgentChannel(restaurantID, channelID, req)
	if err != nil {
		respondAgentChannelError(c, err, "UpdateAgentChannel")
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (h *RestaurantHandler) DeleteAgentChannel(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.restaurantService.DeleteAgentChannel(restaurantID, channelID); err != nil {
		respondAgentChannelError(c, err, "DeleteAgentChannel")
		return
	}
	c.Status(http.StatusNoContent)
}

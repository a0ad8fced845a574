package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub_backend/pkg/utils"
)

// restaurantIDFromContext reads the restaurant scope set by the auth
// middleware. Responds with 401 and returns false when absent.
func restaurantIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get("restaurantID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Restaurant scope missing from token.", ""))
		return 0, false
	}
	restaurantID, ok := value.(int64)
	if !ok || restaurantID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Restaurant scope missing from token.", ""))
		return 0, false
	}
	return restaurantID, true
}

// userIDFromContext reads the authenticated user ID set by the auth
// middleware.
func userIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", ""))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", ""))
		return 0, false
	}
	return userID, true
}

// optionalStaffID returns the authenticated user's ID as a nullable
// pointer for audit fields; nil when the request is unauthenticated.
func optionalStaffID(c *gin.Context) *int64 {
	value, exists := c.Get("userID")
	if !exists {
		return nil
	}
	userID, ok := value.(int64)
	if !ok {
		return nil
	}
	return &userID
}

// pathID parses a numeric path parameter. Responds with 400 and returns
// false on malformed input.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

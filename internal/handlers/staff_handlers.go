package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/services"
	"dinehub_backend/pkg/utils"
)

// StaffHandler holds the staff service.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(ss services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: ss}
}

// GetStaff lists the restaurant's staff members with joined user details.
func (h *StaffHandler) GetStaff(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	staff, err := h.staffService.GetStaff(restaurantID)
	if err != nil {
		utils.LogError(err, "GetStaff: Error from staffService.GetStaff")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch staff.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": staff})
}

// UpdateStaffRole changes a staff member's role.
func (h *StaffHandler) UpdateStaffRole(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	staffID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateStaffRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	staff, err := h.staffService.UpdateStaffRole(restaurantID, staffID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStaffNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found.", ""))
		case errors.Is(err, services.ErrInvalidStaffRole):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		case errors.Is(err, services.ErrLastOwnerDemotion):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "UpdateStaffRole: Error from staffService.UpdateStaffRole")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update staff role.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, staff)
}

// DeactivateStaff removes a staff member from active duty without
// deleting their history.
func (h *StaffHandler) DeactivateStaff(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	staffID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.staffService.DeactivateStaff(restaurantID, staffID); err != nil {
		switch {
		case errors.Is(err, services.ErrStaffNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found.", ""))
		case errors.Is(err, services.ErrLastOwnerDemotion):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "DeactivateStaff: Error from staffService.DeactivateStaff")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to deactivate staff member.", "Internal error"))
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// InviteStaff creates a pending invitation for an email address.
func (h *StaffHandler) InviteStaff(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	var req services.InviteStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	invitation, err := h.staffService.InviteStaff(restaurantID, optionalStaffID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, services.ErrInvalidStaffRole):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		case errors.Is(err, services.ErrDuplicateInvitation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "InviteStaff: Error from staffService.InviteStaff")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create invitation.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

// GetInvitations lists the restaurant's invitations, newest first.
func (h *StaffHandler) GetInvitations(c *gin.Context) {
	restaurantID, ok := restaurantIDFromContext(c)
	if !ok {
		return
	}
	invitations, err := h.staffService.GetInvitations(restaurantID)
	if err != nil {
		utils.LogError(err, "GetInvitations: Error from staffService.GetInvitations")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch invitations.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invitations})
}

// AcceptInvitation consumes a pending invitation token for the
// authenticated user.
func (h *StaffHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	token := c.Param("token")
	if utils.IsEmpty(token) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invitation token is required.", ""))
		return
	}

	staff, err := h.staffService.AcceptInvitation(token, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Invitation not found.", ""))
		case errors.Is(err, services.ErrInvitationExpired), errors.Is(err, services.ErrInvitationConsumed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusGone, utils.ErrCodeConflict, err.Error(), err.Error()))
		case errors.Is(err, services.ErrAlreadyStaff):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		default:
			utils.LogError(err, "AcceptInvitation: Error from staffService.AcceptInvitation")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to accept invitation.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, staff)
}

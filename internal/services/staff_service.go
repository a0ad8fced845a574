package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dinehub_backend/internal/metrics"
	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
	"dinehub_backend/pkg/utils"
)

// --- Custom Service Errors for Staff ---
var (
	ErrStaffNotFound        = errors.New("staff member not found")
	ErrInvalidStaffRole     = errors.New("invalid staff role")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrAlreadyStaff         = errors.New("user is already on the restaurant's staff")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrInvitationConsumed   = errors.New("invitation has already been accepted")
	ErrDuplicateInvitation  = errors.New("a pending invitation already exists for this email")
	ErrLastOwnerDemotion    = errors.New("a restaurant must keep at least one active owner")
)

// DefaultInvitationTTL is how long a staff invitation stays valid.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// --- DTOs ---

// InviteStaffRequest creates a pending invitation.
type InviteStaffRequest struct {
	Email string           `json:"email" binding:"required"`
	Role  models.StaffRole `json:"role" binding:"required"`
}

// UpdateStaffRoleRequest changes a staff member's role.
type UpdateStaffRoleRequest struct {
	Role models.StaffRole `json:"role" binding:"required"`
}

// --- StaffService Interface ---
type StaffService interface {
	GetStaff(restaurantID int64) ([]models.RestaurantStaff, error)
	GetStaffByID(restaurantID, staffID int64) (*models.RestaurantStaff, error)
	UpdateStaffRole(restaurantID, staffID int64, req UpdateStaffRoleRequest) (*models.RestaurantStaff, error)
	DeactivateStaff(restaurantID, staffID int64) error

	InviteStaff(restaurantID int64, invitedBy *int64, req InviteStaffRequest) (*models.StaffInvitation, error)
	GetInvitations(restaurantID int64) ([]models.StaffInvitation, error)
	AcceptInvitation(token string, userID int64) (*models.RestaurantStaff, error)
}

// --- staffService Implementation ---
type staffService struct {
	staffRepo repositories.StaffRepository
	userRepo  repositories.AuthRepository
	db        *sql.DB
	now       func() time.Time
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(sr repositories.StaffRepository, ur repositories.AuthRepository, db *sql.DB) StaffService {
	return &staffService{
		staffRepo: sr,
		userRepo:  ur,
		db:        db,
		now:       time.Now,
	}
}

// --- Staff Method Implementations ---

func (s *staffService) GetStaff(restaurantID int64) ([]models.RestaurantStaff, error) {
	staff, err := s.staffRepo.GetStaffForRestaurant(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return staff, nil
}

func (s *staffService) GetStaffByID(restaurantID, staffID int64) (*models.RestaurantStaff, error) {
	staff, err := s.staffRepo.GetStaffByID(restaurantID, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return staff, nil
}

func (s *staffService) UpdateStaffRole(restaurantID, staffID int64, req UpdateStaffRoleRequest) (*models.RestaurantStaff, error) {
	if !models.IsValidStaffRole(req.Role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStaffRole, req.Role)
	}

	staff, err := s.staffRepo.GetStaffByID(restaurantID, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to find staff member for role update: %w", err)
	}

	if staff.Role == models.RoleOwner && req.Role != models.RoleOwner {
		if err := s.ensureAnotherActiveOwner(restaurantID, staff.ID); err != nil {
			return nil, err
		}
	}

	if err := s.staffRepo.UpdateStaffRole(s.db, staffID, req.Role); err != nil {
		return nil, fmt.Errorf("failed to update staff role: %w", err)
	}
	return s.staffRepo.GetStaffByID(restaurantID, staffID)
}

func (s *staffService) DeactivateStaff(restaurantID, staffID int64) error {
	staff, err := s.staffRepo.GetStaffByID(restaurantID, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("failed to find staff member for deactivation: %w", err)
	}

	if staff.Role == models.RoleOwner {
		if err := s.ensureAnotherActiveOwner(restaurantID, staff.ID); err != nil {
			return err
		}
	}

	if err := s.staffRepo.SetStaffActive(s.db, staffID, false); err != nil {
		return fmt.Errorf("failed to deactivate staff member: %w", err)
	}
	return nil
}

// ensureAnotherActiveOwner guards against removing the last owner.
func (s *staffService) ensureAnotherActiveOwner(restaurantID, excludeStaffID int64) error {
	staff, err := s.staffRepo.GetStaffForRestaurant(restaurantID)
	if err != nil {
		return fmt.Errorf("failed to check remaining owners: %w", err)
	}
	for _, member := range staff {
		if member.ID != excludeStaffID && member.Role == models.RoleOwner && member.IsActive {
			return nil
		}
	}
	return ErrLastOwnerDemotion
}

// --- Invitation Method Implementations ---

func (s *staffService) InviteStaff(restaurantID int64, invitedBy *int64, req InviteStaffRequest) (*models.StaffInvitation, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	// Invalid addresses are rejected here and never reach the store.
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, req.Email)
	}
	if !models.IsValidStaffRole(req.Role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStaffRole, req.Role)
	}
	if req.Role == models.RoleOwner {
		return nil, fmt.Errorf("%w: owners cannot be invited, transfer ownership instead", ErrInvalidStaffRole)
	}

	existing, err := s.staffRepo.GetPendingInvitationByEmail(restaurantID, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing invitations: %w", err)
	}
	if existing != nil {
		if s.now().Before(existing.ExpiresAt) {
			return nil, ErrDuplicateInvitation
		}
		// A stale pending invitation gets marked expired before reissuing.
		if err := s.staffRepo.UpdateInvitationStatus(s.db, existing.ID, models.InvitationExpired); err != nil {
			return nil, fmt.Errorf("failed to expire stale invitation: %w", err)
		}
	}

	invitation := models.StaffInvitation{
		RestaurantID: restaurantID,
		Email:        email,
		Role:         req.Role,
		Token:        uuid.NewString(),
		Status:       models.InvitationPending,
		InvitedBy:    invitedBy,
		ExpiresAt:    s.now().Add(DefaultInvitationTTL),
	}
	if _, err := s.staffRepo.CreateInvitation(s.db, &invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	metrics.InvitationsSent.Inc()
	return &invitation, nil
}

func (s *staffService) GetInvitations(restaurantID int64) ([]models.StaffInvitation, error) {
	invitations, err := s.staffRepo.GetInvitationsForRestaurant(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitations: %w", err)
	}
	// Expiry is evaluated lazily; surface the real state to the caller.
	for i := range invitations {
		if invitations[i].Status == models.InvitationPending && s.now().After(invitations[i].ExpiresAt) {
			invitations[i].Status = models.InvitationExpired
		}
	}
	return invitations, nil
}

// AcceptInvitation consumes a pending invitation and creates the staff
// membership in one transaction.
func (s *staffService) AcceptInvitation(token string, userID int64) (*models.RestaurantStaff, error) {
	invitation, err := s.staffRepo.GetInvitationByToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}

	switch invitation.Status {
	case models.InvitationAccepted:
		return nil, ErrInvitationConsumed
	case models.InvitationExpired:
		return nil, ErrInvitationExpired
	}
	if s.now().After(invitation.ExpiresAt) {
		if err := s.staffRepo.UpdateInvitationStatus(s.db, invitation.ID, models.InvitationExpired); err != nil {
			utils.LogError(err, "failed to mark invitation expired")
		}
		return nil, ErrInvitationExpired
	}

	if _, err := s.userRepo.FindUserByID(userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrStaffNotFound, userID)
		}
		return nil, fmt.Errorf("failed to validate user: %w", err)
	}

	existing, err := s.staffRepo.GetStaffByUserAndRestaurant(userID, invitation.RestaurantID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing staff membership: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyStaff
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	staff := models.RestaurantStaff{
		RestaurantID: invitation.RestaurantID,
		UserID:       userID,
		Role:         invitation.Role,
		IsActive:     true,
	}
	if _, err := s.staffRepo.CreateStaff(tx, &staff); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAlreadyStaff
		}
		return nil, fmt.Errorf("failed to create staff membership: %w", err)
	}
	if err := s.staffRepo.UpdateInvitationStatus(tx, invitation.ID, models.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation acceptance: %w", err)
	}

	return s.staffRepo.GetStaffByID(invitation.RestaurantID, staff.ID)
}

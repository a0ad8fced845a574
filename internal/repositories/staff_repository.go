package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dinehub_backend/internal/models"
)

// StaffRepository defines database operations for restaurant staff and
// staff invitations.
type StaffRepository interface {
	// RestaurantStaff methods
	CreateStaff(executor SQLExecutor, staff *models.RestaurantStaff) (int64, error)
	GetStaffByID(restaurantID, staffID int64) (*models.RestaurantStaff, error)
	GetStaffByUserAndRestaurant(userID, restaurantID int64) (*models.RestaurantStaff, error)
	GetStaffForRestaurant(restaurantID int64) ([]models.RestaurantStaff, error)
	UpdateStaffRole(executor SQLExecutor, staffID int64, role models.StaffRole) error
	SetStaffActive(executor SQLExecutor, staffID int64, active bool) error

	// StaffInvitation methods
	CreateInvitation(executor SQLExecutor, inv *models.StaffInvitation) (int64, error)
	GetInvitationByToken(token string) (*models.StaffInvitation, error)
	GetInvitationsForRestaurant(restaurantID int64) ([]models.StaffInvitation, error)
	GetPendingInvitationByEmail(restaurantID int64, email string) (*models.StaffInvitation, error)
	UpdateInvitationStatus(executor SQLExecutor, invitationID int64, status models.InvitationStatus) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

// --- RestaurantStaff Methods ---

const staffSelect = `SELECT rs.id, rs.restaurant_id, rs.user_id, rs.role, rs.is_active, rs.created_at, rs.updated_at,
                            u.email, u.full_name
                     FROM restaurant_staff rs
                     JOIN users u ON rs.user_id = u.id`

func scanStaff(row interface{ Scan(...interface{}) error }) (*models.RestaurantStaff, error) {
	staff := &models.RestaurantStaff{}
	var email string
	var fullName *string
	err := row.Scan(
		&staff.ID, &staff.RestaurantID, &staff.UserID, &staff.Role, &staff.IsActive,
		&staff.CreatedAt, &staff.UpdatedAt, &email, &fullName,
	)
	if err != nil {
		return nil, err
	}
	staff.User = &models.User{ID: staff.UserID, Email: email, FullName: fullName}
	return staff, nil
}

func (r *staffRepository) CreateStaff(executor SQLExecutor, staff *models.RestaurantStaff) (int64, error) {
	query := `INSERT INTO restaurant_staff (restaurant_id, user_id, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		staff.RestaurantID, staff.UserID, staff.Role, staff.IsActive, now, now,
	).Scan(&staff.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: user %d already on staff of restaurant %d", ErrDuplicateKey, staff.UserID, staff.RestaurantID)
		}
		return 0, fmt.Errorf("%w: creating restaurant staff: %v", ErrDatabaseError, err)
	}
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return staff.ID, nil
}

func (r *staffRepository) GetStaffByID(restaurantID, staffID int64) (*models.RestaurantStaff, error) {
	query := staffSelect + ` WHERE rs.id = $1 AND rs.restaurant_id = $2`
	staff, err := scanStaff(r.db.QueryRow(query, staffID, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff by ID %d: %v", ErrDatabaseError, staffID, err)
	}
	return staff, nil
}

func (r *staffRepository) GetStaffByUserAndRestaurant(userID, restaurantID int64) (*models.RestaurantStaff, error) {
	query := staffSelect + ` WHERE rs.user_id = $1 AND rs.restaurant_id = $2`
	staff, err := scanStaff(r.db.QueryRow(query, userID, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff for user %d in restaurant %d: %v", ErrDatabaseError, userID, restaurantID, err)
	}
	return staff, nil
}

func (r *staffRepository) GetStaffForRestaurant(restaurantID int64) ([]models.RestaurantStaff, error) {
	staffMembers := []models.RestaurantStaff{}
	query := staffSelect + ` WHERE rs.restaurant_id = $1 ORDER BY rs.id`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying staff for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	defer rows.Close()

	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning staff row: %v", ErrDatabaseError, err)
		}
		staffMembers = append(staffMembers, *staff)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return staffMembers, nil
}

func (r *staffRepository) UpdateStaffRole(executor SQLExecutor, staffID int64, role models.StaffRole) error {
	result, err := executor.Exec(`UPDATE restaurant_staff SET role = $1, updated_at = $2 WHERE id = $3`, role, time.Now(), staffID)
	if err != nil {
		return fmt.Errorf("%w: updating role for staff %d: %v", ErrDatabaseError, staffID, err)
	}
	return requireRowsAffected(result, "restaurant staff")
}

func (r *staffRepository) SetStaffActive(executor SQLExecutor, staffID int64, active bool) error {
	result, err := executor.Exec(`UPDATE restaurant_staff SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), staffID)
	if err != nil {
		return fmt.Errorf("%w: setting active flag for staff %d: %v", ErrDatabaseError, staffID, err)
	}
	return requireRowsAffected(result, "restaurant staff")
}

// --- StaffInvitation Methods ---

const invitationColumns = `id, restaurant_id, email, role, token, status, invited_by, expires_at, created_at, updated_at`

func scanInvitation(row interface{ Scan(...interface{}) error }) (*models.StaffInvitation, error) {
	inv := &models.StaffInvitation{}
	err := row.Scan(
		&inv.ID, &inv.RestaurantID, &inv.Email, &inv.Role, &inv.Token, &inv.Status,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *staffRepository) CreateInvitation(executor SQLExecutor, inv *models.StaffInvitation) (int64, error) {
	query := `INSERT INTO staff_invitations (restaurant_id, email, role, token, status, invited_by, expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		inv.RestaurantID, inv.Email, inv.Role, inv.Token, inv.Status, inv.InvitedBy, inv.ExpiresAt, now, now,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: invitation token", ErrDuplicateKey)
		}
		return 0, fmt.Errorf("%w: creating staff invitation: %v", ErrDatabaseError, err)
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return inv.ID, nil
}

func (r *staffRepository) GetInvitationByToken(token string) (*models.StaffInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM staff_invitations WHERE token = $1`
	inv, err := scanInvitation(r.db.QueryRow(query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invitation by token: %v", ErrDatabaseError, err)
	}
	return inv, nil
}

func (r *staffRepository) GetInvitationsForRestaurant(restaurantID int64) ([]models.StaffInvitation, error) {
	invitations := []models.StaffInvitation{}
	query := `SELECT ` + invitationColumns + ` FROM staff_invitations WHERE restaurant_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying invitations for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning invitation row: %v", ErrDatabaseError, err)
		}
		invitations = append(invitations, *inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating invitation rows: %v", ErrDatabaseError, err)
	}
	return invitations, nil
}

func (r *staffRepository) GetPendingInvitationByEmail(restaurantID int64, email string) (*models.StaffInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM staff_invitations
	          WHERE restaurant_id = $1 AND email = $2 AND status = $3
	          ORDER BY created_at DESC LIMIT 1`
	inv, err := scanInvitation(r.db.QueryRow(query, restaurantID, email, models.InvitationPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting pending invitation for %s: %v", ErrDatabaseError, email, err)
	}
	return inv, nil
}

func (r *staffRepository) UpdateInvitationStatus(executor SQLExecutor, invitationID int64, status models.InvitationStatus) error {
	result, err := executor.Exec(`UPDATE staff_invitations SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), invitationID)
	if err != nil {
		return fmt.Errorf("%w: updating invitation %d status: %v", ErrDatabaseError, invitationID, err)
	}
	return requireRowsAffected(result, "staff invitation")
}

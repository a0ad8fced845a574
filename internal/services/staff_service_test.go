package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
)

// --- In-memory stubs ---

type stubStaffRepo struct {
	nextStaffID int64
	nextInvID   int64
	staff       map[int64]*models.RestaurantStaff
	invitations map[int64]*models.StaffInvitation
	writes      int // counts every mutating call
}

func newStubStaffRepo() *stubStaffRepo {
	return &stubStaffRepo{
		staff:       make(map[int64]*models.RestaurantStaff),
		invitations: make(map[int64]*models.StaffInvitation),
	}
}

func (r *stubStaffRepo) CreateStaff(_ repositories.SQLExecutor, staff *models.RestaurantStaff) (int64, error) {
	r.writes++
	for _, existing := range r.staff {
		if existing.RestaurantID == staff.RestaurantID && existing.UserID == staff.UserID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextStaffID++
	staff.ID = r.nextStaffID
	cp := *staff
	r.staff[staff.ID] = &cp
	return staff.ID, nil
}

func (r *stubStaffRepo) GetStaffByID(restaurantID, staffID int64) (*models.RestaurantStaff, error) {
	staff, ok := r.staff[staffID]
	if !ok || staff.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	cp := *staff
	return &cp, nil
}

func (r *stubStaffRepo) GetStaffByUserAndRestaurant(userID, restaurantID int64) (*models.RestaurantStaff, error) {
	for _, staff := range r.staff {
		if staff.UserID == userID && staff.RestaurantID == restaurantID {
			cp := *staff
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *stubStaffRepo) GetStaffForRestaurant(restaurantID int64) ([]models.RestaurantStaff, error) {
	result := []models.RestaurantStaff{}
	for id := int64(1); id <= r.nextStaffID; id++ {
		if staff, ok := r.staff[id]; ok && staff.RestaurantID == restaurantID {
			result = append(result, *staff)
		}
	}
	return result, nil
}

func (r *stubStaffRepo) UpdateStaffRole(_ repositories.SQLExecutor, staffID int64, role models.StaffRole) error {
	r.writes++
	staff, ok := r.staff[staffID]
	if !ok {
		return repositories.ErrNotFound
	}
	staff.Role = role
	return nil
}

func (r *stubStaffRepo) SetStaffActive(_ repositories.SQLExecutor, staffID int64, active bool) error {
	r.writes++
	staff, ok := r.staff[staffID]
	if !ok {
		return repositories.ErrNotFound
	}
	staff.IsActive = active
	return nil
}

func (r *stubStaffRepo) CreateInvitation(_ repositories.SQLExecutor, inv *models.StaffInvitation) (int64, error) {
	r.writes++
	r.nextInvID++
	inv.ID = r.nextInvID
	cp := *inv
	r.invitations[inv.ID] = &cp
	return inv.ID, nil
}

func (r *stubStaffRepo) GetInvitationByToken(token string) (*models.StaffInvitation, error) {
	for _, inv := range r.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *stubStaffRepo) GetInvitationsForRestaurant(restaurantID int64) ([]models.StaffInvitation, error) {
	result := []models.StaffInvitation{}
	for id := int64(1); id <= r.nextInvID; id++ {
		if inv, ok := r.invitations[id]; ok && inv.RestaurantID == restaurantID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *stubStaffRepo) GetPendingInvitationByEmail(restaurantID int64, email string) (*models.StaffInvitation, error) {
	for _, inv := range r.invitations {
		if inv.RestaurantID == restaurantID && inv.Email == email && inv.Status == models.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *stubStaffRepo) UpdateInvitationStatus(_ repositories.SQLExecutor, invitationID int64, status models.InvitationStatus) error {
	r.writes++
	inv, ok := r.invitations[invitationID]
	if !ok {
		return repositories.ErrNotFound
	}
	inv.Status = status
	return nil
}

type stubAuthRepo struct {
	users map[int64]*models.User
}

func (r *stubAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	return 0, nil
}

func (r *stubAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *stubAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- Fixture ---

type staffServiceFixture struct {
	svc       *staffService
	staffRepo *stubStaffRepo
	authRepo  *stubAuthRepo
	db        *sql.DB
	mock      sqlmock.Sqlmock
	clock     time.Time
}

func newStaffServiceFixture(t *testing.T) *staffServiceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	staffRepo := newStubStaffRepo()
	authRepo := &stubAuthRepo{users: map[int64]*models.User{
		10: {ID: 10, Email: "newhire@example.com", IsActive: true},
	}}

	f := &staffServiceFixture{
		staffRepo: staffRepo,
		authRepo:  authRepo,
		db:        db,
		mock:      mock,
		clock:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewStaffService(staffRepo, authRepo, db).(*staffService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *staffServiceFixture) addStaff(restaurantID, userID int64, role models.StaffRole, active bool) *models.RestaurantStaff {
	f.staffRepo.nextStaffID++
	staff := &models.RestaurantStaff{
		ID:           f.staffRepo.nextStaffID,
		RestaurantID: restaurantID,
		UserID:       userID,
		Role:         role,
		IsActive:     active,
	}
	f.staffRepo.staff[staff.ID] = staff
	return staff
}

// --- Invitation tests ---

func TestInviteStaffCreatesPendingInvitation(t *testing.T) {
	f := newStaffServiceFixture(t)

	invitedBy := int64(1)
	inv, err := f.svc.InviteStaff(1, &invitedBy, InviteStaffRequest{
		Email: "  NewHire@Example.COM ",
		Role:  models.RoleStaff,
	})
	require.NoError(t, err)

	assert.Equal(t, "newhire@example.com", inv.Email, "email is normalized")
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.NotEmpty(t, inv.Token)
	assert.Equal(t, f.clock.Add(DefaultInvitationTTL), inv.ExpiresAt)
	require.NotNil(t, inv.InvitedBy)
	assert.Equal(t, invitedBy, *inv.InvitedBy)
}

func TestInviteStaffRejectsInvalidEmailBeforeAnyWrite(t *testing.T) {
	f := newStaffServiceFixture(t)

	_, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "not-an-email", Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Zero(t, f.staffRepo.writes, "validation failures must not touch the store")
}

func TestInviteStaffRejectsOwnerRole(t *testing.T) {
	f := newStaffServiceFixture(t)

	_, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleOwner})
	assert.ErrorIs(t, err, ErrInvalidStaffRole)

	_, err = f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: "superadmin"})
	assert.ErrorIs(t, err, ErrInvalidStaffRole)
}

func TestInviteStaffRejectsDuplicatePending(t *testing.T) {
	f := newStaffServiceFixture(t)

	_, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleStaff})
	require.NoError(t, err)

	_, err = f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleManager})
	assert.ErrorIs(t, err, ErrDuplicateInvitation)
}

func TestInviteStaffReissuesAfterExpiry(t *testing.T) {
	f := newStaffServiceFixture(t)

	first, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleStaff})
	require.NoError(t, err)

	// Move past the first invitation's expiry; a new invite succeeds and
	// the stale one is marked expired.
	f.clock = f.clock.Add(DefaultInvitationTTL + time.Hour)

	second, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleStaff})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, models.InvitationExpired, f.staffRepo.invitations[first.ID].Status)
	assert.Equal(t, models.InvitationPending, f.staffRepo.invitations[second.ID].Status)
}

func TestAcceptInvitation(t *testing.T) {
	f := newStaffServiceFixture(t)

	inv, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "newhire@example.com", Role: models.RoleManager})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	staff, err := f.svc.AcceptInvitation(inv.Token, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), staff.RestaurantID)
	assert.Equal(t, int64(10), staff.UserID)
	assert.Equal(t, models.RoleManager, staff.Role, "membership carries the invited role")
	assert.True(t, staff.IsActive)
	assert.Equal(t, models.InvitationAccepted, f.staffRepo.invitations[inv.ID].Status)

	// The token is single use.
	_, err = f.svc.AcceptInvitation(inv.Token, 10)
	assert.ErrorIs(t, err, ErrInvitationConsumed)
}

func TestAcceptInvitationExpired(t *testing.T) {
	f := newStaffServiceFixture(t)

	inv, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "newhire@example.com", Role: models.RoleStaff})
	require.NoError(t, err)

	f.clock = f.clock.Add(DefaultInvitationTTL + time.Minute)

	_, err = f.svc.AcceptInvitation(inv.Token, 10)
	assert.ErrorIs(t, err, ErrInvitationExpired)
	assert.Equal(t, models.InvitationExpired, f.staffRepo.invitations[inv.ID].Status)
}

func TestAcceptInvitationUnknownToken(t *testing.T) {
	f := newStaffServiceFixture(t)

	_, err := f.svc.AcceptInvitation("no-such-token", 10)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestAcceptInvitationAlreadyStaff(t *testing.T) {
	f := newStaffServiceFixture(t)
	f.addStaff(1, 10, models.RoleStaff, true)

	inv, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "newhire@example.com", Role: models.RoleStaff})
	require.NoError(t, err)

	_, err = f.svc.AcceptInvitation(inv.Token, 10)
	assert.ErrorIs(t, err, ErrAlreadyStaff)
}

// --- Staff management tests ---

func TestUpdateStaffRole(t *testing.T) {
	f := newStaffServiceFixture(t)
	f.addStaff(1, 10, models.RoleOwner, true)
	member := f.addStaff(1, 11, models.RoleStaff, true)

	updated, err := f.svc.UpdateStaffRole(1, member.ID, UpdateStaffRoleRequest{Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, updated.Role)

	_, err = f.svc.UpdateStaffRole(1, member.ID, UpdateStaffRoleRequest{Role: "janitor"})
	assert.ErrorIs(t, err, ErrInvalidStaffRole)

	_, err = f.svc.UpdateStaffRole(1, 999, UpdateStaffRoleRequest{Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestLastOwnerCannotBeDemotedOrDeactivated(t *testing.T) {
	f := newStaffServiceFixture(t)
	owner := f.addStaff(1, 10, models.RoleOwner, true)
	f.addStaff(1, 11, models.RoleManager, true)

	_, err := f.svc.UpdateStaffRole(1, owner.ID, UpdateStaffRoleRequest{Role: models.RoleManager})
	assert.ErrorIs(t, err, ErrLastOwnerDemotion)

	err = f.svc.DeactivateStaff(1, owner.ID)
	assert.ErrorIs(t, err, ErrLastOwnerDemotion)
	assert.True(t, f.staffRepo.staff[owner.ID].IsActive)

	// With a second active owner both operations go through.
	f.addStaff(1, 12, models.RoleOwner, true)

	_, err = f.svc.UpdateStaffRole(1, owner.ID, UpdateStaffRoleRequest{Role: models.RoleManager})
	require.NoError(t, err)

	err = f.svc.DeactivateStaff(1, owner.ID)
	require.NoError(t, err)
	assert.False(t, f.staffRepo.staff[owner.ID].IsActive)
}

func TestGetInvitationsSurfacesLazyExpiry(t *testing.T) {
	f := newStaffServiceFixture(t)

	_, err := f.svc.InviteStaff(1, nil, InviteStaffRequest{Email: "a@b.com", Role: models.RoleStaff})
	require.NoError(t, err)

	f.clock = f.clock.Add(DefaultInvitationTTL + time.Hour)

	invitations, err := f.svc.GetInvitations(1)
	require.NoError(t, err)
	require.Len(t, invitations, 1)
	assert.Equal(t, models.InvitationExpired, invitations[0].Status)
}

package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"dinehub_backend/internal/models"
	"dinehub_backend/internal/repositories"
	"dinehub_backend/pkg/utils"
)

// --- Custom Service Errors for Auth ---
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNoRestaurantAccess = errors.New("user has no access to this restaurant")
)

// --- DTOs ---

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"full_name"`
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	RestaurantID *int64 `json:"restaurant_id"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	RestaurantID *int64 `json:"restaurant_id"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse bundles the authenticated user with their tokens.
type AuthResponse struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

// --- AuthService Interface ---
type AuthService interface {
	Register(req RegisterRequest) (*AuthResponse, error)
	Login(req LoginRequest) (*AuthResponse, error)
	Refresh(req RefreshRequest) (*TokenPair, error)
	GetUser(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	userRepo  repositories.AuthRepository
	staffRepo repositories.StaffRepository
	db        *sql.DB
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ur repositories.AuthRepository, sr repositories.StaffRepository, db *sql.DB) AuthService {
	return &authService{userRepo: ur, staffRepo: sr, db: db}
}

// --- Method Implementations ---

func (s *authService) Register(req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, req.Email)
	}
	if !utils.IsValidPasswordLength(req.Password, 8) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		IsActive:     true,
	}
	if _, err := s.userRepo.CreateUser(s.db, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueTokens(&user, nil)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: &user, Tokens: *tokens}, nil
}

func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issueTokens(user, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: *tokens}, nil
}

func (s *authService) Refresh(req RefreshRequest) (*TokenPair, error) {
	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user for refresh: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(user, req.RestaurantID)
}

func (s *authService) GetUser(userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// issueTokens signs an access/refresh pair. When a restaurant is named,
// the access token carries the user's role there; membership is required.
func (s *authService) issueTokens(user *models.User, restaurantID *int64) (*TokenPair, error) {
	var scopedRestaurantID int64
	var role string
	if restaurantID != nil {
		staff, err := s.staffRepo.GetStaffByUserAndRestaurant(user.ID, *restaurantID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrNoRestaurantAccess
			}
			return nil, fmt.Errorf("failed to check restaurant membership: %w", err)
		}
		if !staff.IsActive {
			return nil, ErrNoRestaurantAccess
		}
		scopedRestaurantID = *restaurantID
		role = string(staff.Role)
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email, scopedRestaurantID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

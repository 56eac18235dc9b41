package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meramarket/models"
	"meramarket/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MockOTP is the only code the mock provider accepts.
	MockOTP = "123456"

	// Seeded admin account. The password is the development default.
	MockAdminEmail    = "admin@meramarket.com"
	MockAdminPassword = "admin123"

	mockGoogleEmail = "user@gmail.com"
)

// MockService keeps accounts in memory and issues HS256 session tokens. Each
// user holds one session at a time; a new login replaces the previous token.
type MockService struct {
	secret []byte
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
}

// MockOption configures a MockService.
type MockOption func(*mockOptions)

type mockOptions struct {
	adminPassword string
}

// WithAdminPassword sets the seeded admin's password. An empty password
// skips seeding the admin account.
func WithAdminPassword(password string) MockOption {
	return func(o *mockOptions) { o.adminPassword = password }
}

// NewMockService seeds the admin account, with MockAdminPassword unless
// WithAdminPassword says otherwise.
func NewMockService(secret []byte, logger *zap.Logger, opts ...MockOption) (*MockService, error) {
	o := mockOptions{adminPassword: MockAdminPassword}
	for _, opt := range opts {
		opt(&o)
	}
	s := &MockService{
		secret:  secret,
		logger:  logger,
		now:     time.Now,
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
	if o.adminPassword == "" {
		return s, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(o.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	s.put(&models.User{
		ID:           "admin-1",
		Email:        MockAdminEmail,
		Name:         "Admin User",
		Phone:        "+919999999999",
		Role:         models.RoleAdmin,
		IsVerified:   true,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	return s, nil
}

func (s *MockService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	if len(creds.Password) < MinPasswordLength {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalizeEmail(creds.Email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	u := s.users[id]
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return s.startSessionLocked(u)
}

// LoginWithToken simulates a Google sign-in: any non-empty token signs in
// (or creates) the demo Google account.
func (s *MockService) LoginWithToken(ctx context.Context, idToken string) (*models.AuthResult, error) {
	if idToken == "" {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[s.byEmail[mockGoogleEmail]]
	if !ok {
		u = &models.User{
			ID:         "google-" + uuid.NewString(),
			Email:      mockGoogleEmail,
			Name:       "Google User",
			Role:       models.RoleUser,
			IsVerified: true,
			CreatedAt:  s.now(),
		}
		s.put(u)
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return s.startSessionLocked(u)
}

func (s *MockService) Signup(ctx context.Context, data models.SignupData) (*models.AuthResult, error) {
	if len(data.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(data.Email)
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrUserExists
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         data.Name,
		Phone:        data.Phone,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	s.put(u)
	s.logger.Info("User signed up", zap.String("userId", u.ID))
	return s.startSessionLocked(u)
}

func (s *MockService) SendOTP(ctx context.Context, user *models.User, phone string) (*models.OTPStatus, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	s.logger.Info("Mock OTP sent", zap.String("phone", phone), zap.String("otp", MockOTP))
	return &models.OTPStatus{Success: true, Message: "OTP sent successfully"}, nil
}

func (s *MockService) VerifyOTP(ctx context.Context, user *models.User, v models.OTPVerification) (*models.AuthResult, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if v.OTP != MockOTP {
		return nil, ErrInvalidOTP
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.ID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.IsVerified = true
	u.Phone = v.Phone
	return s.startSessionLocked(u)
}

func (s *MockService) Logout(ctx context.Context, user *models.User) error {
	if user == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[user.ID]; ok {
		u.TokenHash = ""
	}
	return nil
}

func (s *MockService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ExtractClaims(s.secret, token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[claims.UserID]
	if !ok || u.TokenHash == "" || u.TokenHash != utils.HashToken(token) {
		return nil, ErrUnauthorized
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return cloneUser(u), nil
}

func (s *MockService) RefreshToken(ctx context.Context, user *models.User) (string, error) {
	if user == nil {
		return "", ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.ID]
	if !ok {
		return "", ErrUserNotFound
	}
	res, err := s.startSessionLocked(u)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

func (s *MockService) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MockService) ListUsers(ctx context.Context, filters models.UserFilters, page models.PageRequest) (models.Page[models.User], error) {
	s.mu.RLock()
	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *cloneUser(u))
	}
	s.mu.RUnlock()
	return filterUsers(all, filters, page), nil
}

func (s *MockService) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	if !validRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.update(id, func(u *models.User) { u.Role = role })
}

// Suspend also ends the user's session.
func (s *MockService) Suspend(ctx context.Context, id string, suspended bool, reason string) (*models.User, error) {
	return s.update(id, func(u *models.User) {
		u.Suspended = suspended
		u.SuspendedReason = ""
		if suspended {
			u.SuspendedReason = reason
			u.TokenHash = ""
		}
	})
}

func (s *MockService) UpdateEntitlements(ctx context.Context, id string, fn func(*models.Entitlements)) (*models.User, error) {
	return s.update(id, func(u *models.User) {
		e := u.Entitlements.Clone()
		fn(&e)
		u.Entitlements = e
	})
}

func (s *MockService) update(id string, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	fn(u)
	return cloneUser(u), nil
}

// startSessionLocked issues a token and records its hash. The caller holds
// s.mu for writing.
func (s *MockService) startSessionLocked(u *models.User) (*models.AuthResult, error) {
	token, err := utils.GenerateToken(s.secret, utils.SessionClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}, utils.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("authentication failed, please try again: %w", err)
	}
	now := s.now()
	u.TokenHash = utils.HashToken(token)
	u.LastLoginAt = &now
	return &models.AuthResult{User: cloneUser(u), Token: token}, nil
}

func (s *MockService) put(u *models.User) {
	s.users[u.ID] = u
	s.byEmail[normalizeEmail(u.Email)] = u.ID
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Entitlements = u.Entitlements.Clone()
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

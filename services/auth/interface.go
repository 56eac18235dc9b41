package auth

import (
	"context"

	"meramarket/models"
)

// Service is the authentication capability. Session tokens are opaque to
// callers: Authenticate turns one back into the user it was issued to.
type Service interface {
	// Sessions
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	// LoginWithToken signs in with an identity token minted by the provider's
	// client SDK (Google sign-in and the like).
	LoginWithToken(ctx context.Context, idToken string) (*models.AuthResult, error)
	Signup(ctx context.Context, data models.SignupData) (*models.AuthResult, error)
	SendOTP(ctx context.Context, user *models.User, phone string) (*models.OTPStatus, error)
	VerifyOTP(ctx context.Context, user *models.User, v models.OTPVerification) (*models.AuthResult, error)
	Logout(ctx context.Context, user *models.User) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	RefreshToken(ctx context.Context, user *models.User) (string, error)

	// User management
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filters models.UserFilters, page models.PageRequest) (models.Page[models.User], error)
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)
	Suspend(ctx context.Context, id string, suspended bool, reason string) (*models.User, error)
	// UpdateEntitlements applies fn to a copy of the user's entitlements and
	// stores the result.
	UpdateEntitlements(ctx context.Context, id string, fn func(*models.Entitlements)) (*models.User, error)
}

// MinPasswordLength is enforced on signup and login.
const MinPasswordLength = 6

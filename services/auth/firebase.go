package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meramarket/models"
	"meramarket/utils"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// firebaseClient is the subset of *auth.Client the provider uses.
type firebaseClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *fbauth.UserToUpdate) (*fbauth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error
	CustomToken(ctx context.Context, uid string) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	Users(ctx context.Context, nextPageToken string) *fbauth.UserIterator
}

// PasswordSignIn exchanges an email and password for a Firebase ID token and
// returns the token and the user's uid.
type PasswordSignIn func(ctx context.Context, email, password string) (idToken, uid string, err error)

// FirebaseService authenticates against Firebase Auth. Sessions are Firebase
// ID tokens; marketplace fields (role, suspension, entitlements) live in
// custom claims.
type FirebaseService struct {
	client firebaseClient
	signIn PasswordSignIn
	otps   utils.OTPStore
	logger *zap.Logger
}

func NewFirebaseService(client *fbauth.Client, signIn PasswordSignIn, otps utils.OTPStore, logger *zap.Logger) *FirebaseService {
	return &FirebaseService{client: client, signIn: signIn, otps: otps, logger: logger}
}

// IdentityToolkitSignIn signs in through the Identity Toolkit REST API using
// the project's web API key. The Admin SDK cannot check passwords itself.
func IdentityToolkitSignIn(ctx context.Context, apiKey string) (PasswordSignIn, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit: %w", err)
	}
	return func(ctx context.Context, email, password string) (string, string, error) {
		resp, err := svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}).Context(ctx).Do()
		if err != nil {
			return "", "", err
		}
		return resp.IdToken, resp.LocalId, nil
	}, nil
}

func (s *FirebaseService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	if len(creds.Password) < MinPasswordLength {
		return nil, ErrInvalidCredentials
	}
	token, uid, err := s.signIn(ctx, normalizeEmail(creds.Email), creds.Password)
	if err != nil {
		s.logger.Warn("Firebase password sign-in failed", zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	u, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return &models.AuthResult{User: u, Token: token}, nil
}

func (s *FirebaseService) LoginWithToken(ctx context.Context, idToken string) (*models.AuthResult, error) {
	u, err := s.Authenticate(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: u, Token: idToken}, nil
}

func (s *FirebaseService) Signup(ctx context.Context, data models.SignupData) (*models.AuthResult, error) {
	if len(data.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email := normalizeEmail(data.Email)
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(data.Password).
		DisplayName(data.Name)
	if data.Phone != "" {
		params = params.PhoneNumber(data.Phone)
	}
	rec, err := s.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create firebase user: %w", err)
	}
	if err := s.client.SetCustomUserClaims(ctx, rec.UID, map[string]interface{}{claimRole: models.RoleUser}); err != nil {
		return nil, fmt.Errorf("failed to set claims for %s: %w", rec.UID, err)
	}
	s.logger.Info("User signed up", zap.String("userId", rec.UID))
	return s.Login(ctx, models.Credentials{Email: email, Password: data.Password})
}

// SendOTP issues a code for the signed-in user's phone and keeps it in the
// OTP store until it is verified or expires.
func (s *FirebaseService) SendOTP(ctx context.Context, user *models.User, phone string) (*models.OTPStatus, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	code, err := utils.GenerateNumericOTP(6)
	if err != nil {
		return nil, err
	}
	if err := s.otps.Save(ctx, otpKey(user.ID, phone), code, utils.OTPTTL); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your Mera Local Market OTP is: %s. It expires in %d minutes.", code, int(utils.OTPTTL/time.Minute))
	if err := utils.SendOTPMessage(phone, msg); err != nil {
		return &models.OTPStatus{Success: false, Message: "Failed to send OTP"}, nil
	}
	return &models.OTPStatus{Success: true, Message: "OTP sent successfully"}, nil
}

func (s *FirebaseService) VerifyOTP(ctx context.Context, user *models.User, v models.OTPVerification) (*models.AuthResult, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if err := s.otps.Verify(ctx, otpKey(user.ID, v.Phone), v.OTP); err != nil {
		if errors.Is(err, utils.ErrOTPNotFound) || errors.Is(err, utils.ErrOTPMismatch) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if _, err := s.client.UpdateUser(ctx, user.ID, (&fbauth.UserToUpdate{}).PhoneNumber(v.Phone)); err != nil {
		return nil, fmt.Errorf("failed to update phone for %s: %w", user.ID, err)
	}
	u, err := s.modify(ctx, user.ID, func(u *models.User) { u.IsVerified = true })
	if err != nil {
		return nil, err
	}
	token, err := s.client.CustomToken(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mint token: %w", err)
	}
	return &models.AuthResult{User: u, Token: token}, nil
}

func (s *FirebaseService) Logout(ctx context.Context, user *models.User) error {
	if user == nil {
		return nil
	}
	if err := s.client.RevokeRefreshTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions for %s: %w", user.ID, err)
	}
	return nil
}

func (s *FirebaseService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	tok, err := s.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.GetUser(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return u, nil
}

// RefreshToken mints a custom token the client exchanges for a fresh ID token.
func (s *FirebaseService) RefreshToken(ctx context.Context, user *models.User) (string, error) {
	if user == nil {
		return "", ErrUnauthorized
	}
	token, err := s.client.CustomToken(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}
	return token, nil
}

func (s *FirebaseService) GetUser(ctx context.Context, id string) (*models.User, error) {
	rec, err := s.client.GetUser(ctx, id)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch firebase user %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

func (s *FirebaseService) ListUsers(ctx context.Context, filters models.UserFilters, page models.PageRequest) (models.Page[models.User], error) {
	var all []models.User
	iter := s.client.Users(ctx, "")
	for {
		rec, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return models.Page[models.User]{}, fmt.Errorf("failed to list firebase users: %w", err)
		}
		all = append(all, *fromRecord(rec.UserRecord))
	}
	return filterUsers(all, filters, page), nil
}

func (s *FirebaseService) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	if !validRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.modify(ctx, id, func(u *models.User) { u.Role = role })
}

// Suspend disables the Firebase account and revokes its sessions.
func (s *FirebaseService) Suspend(ctx context.Context, id string, suspended bool, reason string) (*models.User, error) {
	u, err := s.modify(ctx, id, func(u *models.User) {
		u.Suspended = suspended
		u.SuspendedReason = ""
		if suspended {
			u.SuspendedReason = reason
		}
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.client.UpdateUser(ctx, id, (&fbauth.UserToUpdate{}).Disabled(suspended)); err != nil {
		return nil, fmt.Errorf("failed to update firebase user %s: %w", id, err)
	}
	if suspended {
		if err := s.client.RevokeRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("Failed to revoke sessions of suspended user", zap.String("userId", id), zap.Error(err))
		}
	}
	return u, nil
}

func (s *FirebaseService) UpdateEntitlements(ctx context.Context, id string, fn func(*models.Entitlements)) (*models.User, error) {
	return s.modify(ctx, id, func(u *models.User) {
		e := u.Entitlements.Clone()
		fn(&e)
		u.Entitlements = e
	})
}

// modify reads the user, applies fn and writes the claims back. Custom claims
// are replaced as a whole, so every marketplace field is rewritten.
func (s *FirebaseService) modify(ctx context.Context, id string, fn func(*models.User)) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(u)
	if err := s.client.SetCustomUserClaims(ctx, id, encodeClaims(u)); err != nil {
		return nil, fmt.Errorf("failed to update claims for %s: %w", id, err)
	}
	return u, nil
}

func fromRecord(rec *fbauth.UserRecord) *models.User {
	u := &models.User{}
	if rec.UserInfo != nil {
		u.ID = rec.UID
		u.Email = rec.Email
		u.Name = rec.DisplayName
		u.Phone = rec.PhoneNumber
		u.Avatar = rec.PhotoURL
	}
	u.IsVerified = rec.EmailVerified
	if rec.UserMetadata != nil {
		u.CreatedAt = time.UnixMilli(rec.UserMetadata.CreationTimestamp)
		if ts := rec.UserMetadata.LastLogInTimestamp; ts > 0 {
			t := time.UnixMilli(ts)
			u.LastLoginAt = &t
		}
	}
	decodeClaims(u, rec.CustomClaims)
	if rec.Disabled {
		u.Suspended = true
	}
	return u
}

func otpKey(userID, phone string) string {
	return userID + ":" + strings.TrimSpace(phone)
}

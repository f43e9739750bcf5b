package service

import (
	"context"
	"errors"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/pkg/jwtutil"
	"requirement-service/pkg/password"
	"requirement-service/prometheus"

	"gorm.io/gorm"
)

// ErrInvalidCredentials is the single authentication failure surfaced to clients
var ErrInvalidCredentials = apperror.Unauthenticated("invalid credentials")

// RegisterInput is the self-registration payload
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

// AuthService issues and checks bearer tokens
type AuthService struct {
	db     *gorm.DB
	users  *UserService
	hasher *password.Hasher
	tokens *jwtutil.JWTUtil
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, users *UserService, hasher *password.Hasher, tokens *jwtutil.JWTUtil) *AuthService {
	return &AuthService{db: db, users: users, hasher: hasher, tokens: tokens, now: utcNow}
}

// Register creates an active analyst with the default permission set
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserResponse, error) {
	return s.users.Create(ctx, UserInput{
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      model.RoleAnalyst,
	})
}

// Login checks the password, stamps last_login and issues a token
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (*TokenResponse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", trimmed(username)).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				prometheus.RecordAuthError("user_not_found")
				return apperror.Unauthenticated("incorrect username or password")
			}
			return err
		}
		if !s.hasher.Verify(plaintext, u.PasswordHash) {
			prometheus.RecordAuthError("invalid_password")
			return apperror.Unauthenticated("incorrect username or password")
		}
		if !u.IsActive {
			prometheus.RecordAuthError("inactive_user")
			return apperror.Validation("inactive user")
		}

		now := s.now()
		u.LastLogin = &now
		return tx.Model(&u).Update("last_login", now).Error
	})
	if err != nil {
		return nil, internal(err, "failed to log in")
	}
	return s.issue(&u)
}

// RefreshToken issues a fresh token for an authenticated user
func (s *AuthService) RefreshToken(ctx context.Context, actor *model.User) (*TokenResponse, error) {
	return s.issue(actor)
}

func (s *AuthService) issue(u *model.User) (*TokenResponse, error) {
	token, expiresAt, err := s.tokens.IssueToken(u.ID, u.Username)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, apperror.Internal(err, "failed to issue token")
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		ExpiresAt:   expiresAt,
		User:        newUserResponse(u),
	}, nil
}

// Me returns the full projection of the authenticated user
func (s *AuthService) Me(actor *model.User) *UserResponse {
	return newUserResponse(actor)
}

// ChangePassword requires the current password and applies the password policy to the new one
func (s *AuthService) ChangePassword(ctx context.Context, actor *model.User, current, next string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	if !s.hasher.Verify(current, actor.PasswordHash) {
		prometheus.RecordAuthError("invalid_password")
		return apperror.Validation("incorrect current password")
	}
	if err := password.Validate(next); err != nil {
		return apperror.Validation("%v", err)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperror.Internal(err, "failed to hash password")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.User{}).Where("id = ?", actor.ID).Update("password_hash", hash).Error
	})
	if err != nil {
		return internal(err, "failed to change password")
	}
	actor.PasswordHash = hash
	return nil
}

// Authenticate resolves a bearer token to an active user. Every failure is
// ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		prometheus.RecordAuthError("invalid_token")
		return nil, ErrInvalidCredentials
	}

	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prometheus.RecordAuthError("unknown_subject")
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal(err, "failed to load token subject")
	}
	if !u.IsActive {
		prometheus.RecordAuthError("inactive_user")
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

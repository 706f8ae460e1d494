package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/repository"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// TokenRevoker records logged-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthService registers users and issues bearer tokens.
type AuthService struct {
	userRepo   *repository.UserRepository
	jwt        *utils.JWTManager
	revoker    TokenRevoker
	clock      clock.Clock
	bcryptCost int
}

// NewAuthService constructs an AuthService. revoker may be nil, in which case
// logout only succeeds client-side and tokens stay valid until expiry.
func NewAuthService(userRepo *repository.UserRepository, jwt *utils.JWTManager, revoker TokenRevoker, clk clock.Clock) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwt:        jwt,
		revoker:    revoker,
		clock:      clk,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,min=2,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	verr := validateStruct(req)
	if _, ok := verr.Fields["password"]; !ok && len(req.Password) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("The password field must not be greater than %d bytes.", maxPasswordBytes))
	}
	if verr.HasErrors() {
		return nil, verr
	}

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, utils.FieldError("email", "The email has already been taken.")
	case !errors.Is(err, sql.ErrNoRows):
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to look up user by email")
		return nil, utils.ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return nil, utils.ErrInternal
	}

	now := s.clock.Now()
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.FieldError("email", "The email has already been taken.")
		}
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		return nil, utils.ErrInternal
	}

	log.Info().Int64("user_id", user.ID).Msg("User registered")
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if verr := validateStruct(req); verr.HasErrors() {
		return nil, verr
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("email", req.Email).Msg("Login for unknown email")
			return nil, utils.ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to get user by email")
		return nil, utils.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Int64("user_id", user.ID).Msg("Password verification failed")
		return nil, utils.ErrInvalidCredentials
	}

	log.Info().Int64("user_id", user.ID).Msg("Login successful")
	return s.issue(user)
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to revoke token")
		return utils.ErrInternal
	}
	return nil
}

// Me returns the user behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrUnauthorized
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user")
		return nil, utils.ErrInternal
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.jwt.GenerateJWT(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to sign token")
		return nil, utils.ErrInternal
	}
	return &AuthResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAtTime(),
		User:      user,
	}, nil
}

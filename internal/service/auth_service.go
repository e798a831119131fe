package service

import (
	"context"
	"fmt"

	"loyalty-service/internal/models"
	"loyalty-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Account types accepted by login
const (
	AccountTypeUser     = "user"
	AccountTypeMerchant = "merchant"
)

// dummyHash is compared against when no account matches the email, so a
// login attempt costs one bcrypt comparison whether or not the account
// exists.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthStore is the persistence surface for credential checks.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
}

// AuthService verifies dashboard and merchant credentials. Passwords are
// stored as bcrypt hashes.
type AuthService struct {
	store  AuthStore
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store AuthStore) *AuthService {
	return &AuthService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// LoginResult identifies the authenticated account.
type LoginResult struct {
	Type  string      `json:"type"`
	ID    interface{} `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
}

// Login checks credentials against the users or merchants table depending
// on accountType.
func (s *AuthService) Login(ctx context.Context, email, password, accountType string) (*LoginResult, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	if email == "" || password == "" || accountType == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrValidation)
	}

	var (
		result *LoginResult
		hash   string
	)

	switch accountType {
	case AccountTypeUser:
		user, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		if user != nil {
			hash = user.Password
			result = &LoginResult{
				Type:  AccountTypeUser,
				ID:    user.UserID,
				Email: user.Email,
				Name:  user.Name,
			}
		}

	case AccountTypeMerchant:
		merchant, err := s.store.GetMerchantByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up merchant: %w", err)
		}
		if merchant != nil {
			hash = merchant.Password
			result = &LoginResult{
				Type:  AccountTypeMerchant,
				ID:    merchant.MerchantID,
				Email: merchant.Email,
				Name:  "Merchant",
			}
		}

	default:
		return nil, fmt.Errorf("%w: type must be user or merchant", ErrValidation)
	}

	if result == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		util.LoginAttemptsTotal.WithLabelValues(accountType, "failure").Inc()
		return nil, ErrAuth
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.logger.Info("Login rejected", zap.String("type", accountType), zap.String("email", email))
		util.LoginAttemptsTotal.WithLabelValues(accountType, "failure").Inc()
		return nil, ErrAuth
	}

	util.LoginAttemptsTotal.WithLabelValues(accountType, "success").Inc()
	return result, nil
}

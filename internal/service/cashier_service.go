package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-register/internal/domain"
	"pos-register/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Default token lifetimes, used when configuration supplies none
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid cashier code or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// CashierService handles register operator authentication. Cashier
// accounts are master data seeded by migrations; there is no
// self-registration.
type CashierService interface {
	Login(ctx context.Context, code, password string) (accessToken, refreshToken string, cashier *domain.Cashier, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims stamped onto settlement requests
type Claims struct {
	CashierCode string `json:"cashier_code"`
	jwt.RegisteredClaims
}

type cashierService struct {
	cashierRepo      repository.CashierRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtSecret        string
	accessExpiry     time.Duration
	refreshExpiry    time.Duration
}

// NewCashierService creates a new instance of CashierService.
// Non-positive expiries fall back to the package defaults.
func NewCashierService(
	cashierRepo repository.CashierRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtSecret string,
	accessExpiry time.Duration,
	refreshExpiry time.Duration,
) CashierService {
	if accessExpiry <= 0 {
		accessExpiry = AccessTokenExpiration
	}
	if refreshExpiry <= 0 {
		refreshExpiry = RefreshTokenExpiration
	}
	return &cashierService{
		cashierRepo:      cashierRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecret:        jwtSecret,
		accessExpiry:     accessExpiry,
		refreshExpiry:    refreshExpiry,
	}
}

// Login authenticates a cashier and returns JWT tokens
func (s *cashierService) Login(ctx context.Context, code, password string) (accessToken, refreshToken string, cashier *domain.Cashier, err error) {
	cashier, err = s.cashierRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCashierNotFound) {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("failed to find cashier: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cashier.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.generateAccessToken(cashier)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = s.generateRefreshToken(ctx, cashier)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, cashier, nil
}

// Logout invalidates the refresh token
func (s *cashierService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken generates a new access token using a valid refresh token
func (s *cashierService) RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return "", ErrTokenExpired
	}

	cashier, err := s.cashierRepo.FindByCode(ctx, refreshToken.CashierCode)
	if err != nil {
		return "", fmt.Errorf("failed to find cashier: %w", err)
	}

	newAccessToken, err = s.generateAccessToken(cashier)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return newAccessToken, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *cashierService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateAccessToken generates a JWT access token with the cashier code claim
func (s *cashierService) generateAccessToken(cashier *domain.Cashier) (string, error) {
	expirationTime := time.Now().Add(s.accessExpiry)
	claims := &Claims{
		CashierCode: cashier.Code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// generateRefreshToken generates a refresh token and stores it in the database
func (s *cashierService) generateRefreshToken(ctx context.Context, cashier *domain.Cashier) (string, error) {
	tokenString := uuid.New().String()

	refreshToken := &domain.RefreshToken{
		ID:          uuid.New(),
		CashierCode: cashier.Code,
		Token:       tokenString,
		ExpiresAt:   time.Now().Add(s.refreshExpiry),
		CreatedAt:   time.Now(),
		Revoked:     false,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"reviewhub/internal/apperror"
	"reviewhub/internal/config"
	"reviewhub/internal/dto"
	"reviewhub/internal/mailer"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
	"reviewhub/internal/validate"
)

// Claims are the JWT payload minted on a successful code exchange.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Signup registers a user or, when the exact (username, email) pair
	// already exists, idempotently re-issues a fresh confirmation code.
	Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error)
	// IssueToken exchanges a matching confirmation code for a bearer token.
	// Codes stay valid after a successful exchange; invalidating them is a
	// pending product decision.
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo  repository.UserRepository
	mail      mailer.Mailer
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer, cfg *config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		mail:      mail,
		jwtSecret: cfg.JWTSecret,
		tokenTTL:  cfg.AccessTokenTTL,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error) {
	if err := validate.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validate.Email(req.Email); err != nil {
		return nil, err
	}

	byName, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	byEmail, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Exact pair match: re-issue a fresh code and resend it.
	if byName != nil && byEmail != nil && byName.ID == byEmail.ID {
		code, err := generateConfirmationCode()
		if err != nil {
			return nil, err
		}
		byName.ConfirmationCode = &code
		if err := s.userRepo.Save(ctx, byName); err != nil {
			return nil, err
		}
		if err := s.mail.SendConfirmationCode(ctx, byName.Email, code); err != nil {
			return nil, err
		}
		return byName, nil
	}
	if byName != nil {
		return nil, apperror.Conflict("username already in use")
	}
	if byEmail != nil {
		return nil, apperror.Conflict("email already in use")
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:         req.Username,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Bio:              req.Bio,
		Role:             models.RoleUser,
		ConfirmationCode: &code,
	}
	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	// A concurrent signup racing past the checks above loses on the unique
	// index and comes back as Conflict from the repository.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.mail.SendConfirmationCode(ctx, user.Email, code); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("user", username)
		}
		return "", err
	}

	if confirmationCode == "" || user.ConfirmationCode == nil || *user.ConfirmationCode != confirmationCode {
		return "", apperror.AuthenticationFailed("invalid confirmation code")
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, apperror.AuthenticationFailed("invalid token")
	}
	if !token.Valid {
		return nil, apperror.AuthenticationFailed("invalid token")
	}
	return claims, nil
}

const confirmationCodeDigits = 6

// generateConfirmationCode returns a zero-padded numeric code. It is a
// short-lived email challenge, not a long-term secret.
func generateConfirmationCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < confirmationCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return fmt.Sprintf("%0*d", confirmationCodeDigits, n), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// Claims represents the JWT claims. The user id travels in the subject.
type Claims struct {
	Name  string            `json:"name"`
	Email string            `json:"email"`
	Role  entities.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles the user directory and token operations
type AuthService struct {
	ds         *DataStore
	validator  *validator.Validate
	jwtConfig  config.JWTConfig
	bcryptCost int
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(ds *DataStore, v *validator.Validate, jwtConfig config.JWTConfig, bcryptCost int, logger *logger.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		ds:         ds,
		validator:  v,
		jwtConfig:  jwtConfig,
		bcryptCost: bcryptCost,
		logger:     logger.WithComponent("auth"),
	}
}

// Register creates a user account with the user role and signs a token for it
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	user, err := s.CreateUser(ctx, ports.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     entities.UserRoleUser,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User registered successfully", "user_id", user.ID, "email", user.Email)
	return s.authResponse(user)
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	user, err := s.FindByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return s.authResponse(user)
}

// FindByCredentials returns the user whose email and password match.
// Unknown emails and wrong passwords both yield ErrUnauthorized.
func (s *AuthService) FindByCredentials(ctx context.Context, email, password string) (*entities.User, error) {
	var user *entities.User
	err := s.ds.View(ctx, func(tx *Tx) error {
		var err error
		user, err = tx.UserByEmail(email)
		return err
	})
	if errors.Is(err, entities.ErrNotFound) {
		s.logger.Warnw("Login attempt with non-existent email", "email", email)
		return nil, fmt.Errorf("invalid credentials: %w", entities.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "email", email, "user_id", user.ID)
		return nil, fmt.Errorf("invalid credentials: %w", entities.ErrUnauthorized)
	}

	public := user.Public()
	return &public, nil
}

// CreateUser adds a user to the directory. Emails are unique ignoring case.
func (s *AuthService) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user entities.User
	err = s.ds.Update(ctx, func(tx *Tx) error {
		if _, err := tx.UserByEmail(req.Email); err == nil {
			return &entities.ConflictError{Entity: "user", ID: req.Email, Reason: "email already registered"}
		}

		user = entities.User{
			ID:           tx.NewID(ports.CollectionUsers),
			Name:         req.Name,
			Email:        req.Email,
			Role:         req.Role,
			PasswordHash: string(hashedPassword),
		}
		tx.PutUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// GetUser retrieves a user by ID without the password hash
func (s *AuthService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	var user *entities.User
	err := s.ds.View(ctx, func(tx *Tx) error {
		var err error
		user, err = tx.User(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer), jwt.WithTimeFunc(s.ds.Now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &ports.Claims{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (s *AuthService) authResponse(user *entities.User) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := s.ds.Now()
	claims := &Claims{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

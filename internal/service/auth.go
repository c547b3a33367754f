package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// AuthService handles authentication business logic
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenExp  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenExp:  24 * time.Hour,
	}
}

// Authenticate validates user credentials
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", model.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrNotAuthenticated)
	}

	if user.Status != 1 {
		return nil, fmt.Errorf("%w: user is inactive", model.ErrNotAuthenticated)
	}

	return &user, nil
}

// GenerateToken issues a signed JWT for a user
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenExp).Unix(),
	}
	if user.RoleID != nil {
		claims["role_id"] = *user.RoleID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates a JWT and returns its claims
func (s *AuthService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, model.ErrNotAuthenticated
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrNotAuthenticated
	}
	return claims, nil
}

// HashPassword hashes a plaintext password
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CreateUser creates a new user with a hashed password
func (s *AuthService) CreateUser(ctx context.Context, user *model.User) error {
	hashed, err := s.HashPassword(user.Password)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	user.Password = hashed

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return nil
}

// Register self-registers a new user. Registration is open only when some
// role carries allow_registration; that role becomes the new user's role.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Where("allow_registration = ?", true).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: registration is closed", model.ErrForbidden)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}

	var count int64
	s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("%w: username already taken", model.ErrInvalidInput)
	}

	roleID := role.ID
	user := &model.User{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		RoleID:   &roleID,
		Status:   1,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

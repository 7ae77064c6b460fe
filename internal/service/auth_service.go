package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

type AuthService interface {
	Login(req dto.LoginRequestDTO) (*dto.LoginResponseDTO, error)
	GetUser(id uint) (*model.User, error)

	// EnsureDefaultAdmin seeds a super admin when the user table is empty so a
	// fresh deployment is reachable.
	EnsureDefaultAdmin() error
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Login(req dto.LoginRequestDTO) (*dto.LoginResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	ttl := time.Duration(s.cfg.JWT.TTLHours) * time.Hour
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &dto.LoginResponseDTO{
		Token: token,
		User: dto.UserDTO{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func (s *authService) GetUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) EnsureDefaultAdmin() error {
	n, err := s.userRepo.Count()
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing default password: %w", err)
	}
	admin := model.User{
		Name:         "Administrator",
		Email:        "admin@formpilot.local",
		PasswordHash: string(hash),
		Role:         model.RoleSuperAdmin,
	}
	if err := s.userRepo.Create(&admin); err != nil {
		return fmt.Errorf("seeding default admin: %w", err)
	}
	log.Warn().Str("email", admin.Email).Msg("Seeded default super admin, change the password immediately")
	return nil
}

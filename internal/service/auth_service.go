package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
)

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	GenerateToken(user *domain.User) (string, error)
}

// PasswordHasher хэширует и проверяет пароли
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// AuthService определяет регистрацию, вход и профиль
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, string, error)
	Me(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
}

// NewAuthService создаёт новый экземпляр сервиса
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, hasher PasswordHasher) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, string, error) {
	email := strings.TrimSpace(req.Email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", domain.ErrDuplicateUserEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, "", err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	role := domain.RoleManager
	if req.RoleID != nil {
		role = *req.RoleID
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

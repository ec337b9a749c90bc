package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"nova-advisor-be/internal/config"
	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/repository/specification"
	"nova-advisor-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User-facing auth errors, surfaced verbatim.
var (
	ErrInvalidUsername  = errors.New("Nombre de usuario no válido")
	ErrPasswordMismatch = errors.New("Las contraseñas no coinciden")
	ErrUserExists       = errors.New("Usuario ya registrado")
	ErrUserNotFound     = errors.New("Usuario no encontrado")
	ErrInvalidPassword  = errors.New("Contraseña incorrecta")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	denylist   *TokenDenylist
	cfg        config.AuthConfig
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, denylist *TokenDenylist, cfg config.AuthConfig) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		denylist:   denylist,
		cfg:        cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, ErrInvalidUsername
	}
	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return s.issueToken(user)
}

// Logout revokes the presented token for the remainder of its lifetime.
// Invalid or already-expired tokens are a no-op.
func (s *authService) Logout(_ context.Context, tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	s.denylist.Revoke(jti, expiresAt)
	return nil
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &dto.UserDTO{
		Id:        user.Id,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *authService) issueToken(user *entity.User) (*dto.AuthResponse, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"jti":     uuid.New().String(),
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     signed,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	}, nil
}

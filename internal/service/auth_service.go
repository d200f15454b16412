package service

import (
	"context"
	"os"
	"time"

	"riverai-be/internal/apperror"
	"riverai-be/internal/dto"
	"riverai-be/internal/repository/specification"
	"riverai-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	UpdateAiConfig(ctx context.Context, userId uuid.UUID, req *dto.UpdateAiConfigRequest) error
	GetAiConfig(ctx context.Context, userId uuid.UUID) (*dto.GetAiConfigResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory) IAuthService {
	return &authService{
		uowFactory: uowFactory,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:    signed,
		UserId:   user.Id,
		Username: user.Username,
	}, nil
}

func (s *authService) UpdateAiConfig(ctx context.Context, userId uuid.UUID, req *dto.UpdateAiConfigRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user")
	}

	if req.ApiBaseURL != "" {
		user.ApiBaseURL = &req.ApiBaseURL
	} else {
		user.ApiBaseURL = nil
	}
	if req.ApiKey != "" {
		user.ApiKey = &req.ApiKey
	} else {
		user.ApiKey = nil
	}

	return uow.UserRepository().Update(ctx, user)
}

func (s *authService) GetAiConfig(ctx context.Context, userId uuid.UUID) (*dto.GetAiConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}

	res := &dto.GetAiConfigResponse{
		HasApiKey: user.ApiKey != nil && *user.ApiKey != "",
	}
	if user.ApiBaseURL != nil {
		res.ApiBaseURL = *user.ApiBaseURL
	}
	return res, nil
}

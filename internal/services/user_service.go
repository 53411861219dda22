package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ecotrade/ecotrade-backend/internal/auth"
	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type UserService struct {
	store repo.Store
	tm    *auth.TokenManager
}

func NewUserService(store repo.Store, tm *auth.TokenManager) *UserService {
	return &UserService{store: store, tm: tm}
}

func (s *UserService) Register(ctx context.Context, username, email, password string, role models.Role) (models.User, error) {
	u := models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Role:     role,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < 8 {
		return models.User{}, errors.New("password too short")
	}
	if _, err := s.store.Users().GetByEmail(ctx, u.Email); err == nil {
		return models.User{}, errors.New("email already registered")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash

	var out models.User
	err = s.store.WithTx(ctx, func(st repo.Store) error {
		created, err := st.Users().Create(ctx, u)
		if err != nil {
			return err
		}
		// Every account starts with an empty wallet.
		if _, err := st.Wallets().GetOrCreate(ctx, created.ID); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

func (s *UserService) Login(ctx context.Context, email, password string) (models.User, TokenPair, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, TokenPair{}, errors.New("invalid credentials")
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return models.User{}, TokenPair{}, errors.New("invalid credentials")
	}
	access, refresh, exp, err := s.tm.GeneratePair(u.ID, string(u.Role))
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return u, TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    time.Until(exp).Truncate(time.Second),
	}, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, isRefresh, err := s.tm.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return TokenPair{}, errors.New("invalid refresh token")
	}
	access, refresh, exp, err := s.tm.GeneratePair(claims.UserID, claims.Role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    time.Until(exp).Truncate(time.Second),
	}, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users().List(ctx)
}

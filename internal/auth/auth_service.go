package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	autherrors "people-desk/internal/auth/errors"
	"people-desk/internal/auth/token"
	"people-desk/internal/config"
	"people-desk/internal/identity"
	"people-desk/internal/rbac"
	"people-desk/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Guest(ctx context.Context, req GuestRequest) (LoginResponse, error)
	Me(ctx context.Context, caller identity.Identity) (MeResponse, error)
	Seed(ctx context.Context) (SeedResponse, error)
}

type service struct {
	repo   Repository
	rbac   rbac.Service
	auth   config.AuthConfig
	seed   config.SeedConfig
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, rbacService rbac.Service, authCfg config.AuthConfig, seedCfg config.SeedConfig, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{
		repo:   repo,
		rbac:   rbacService,
		auth:   authCfg,
		seed:   seedCfg,
		now:    time.Now,
		logger: l,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login unknown email")
			return LoginResponse{}, autherrors.ErrInvalidCredentials
		}
		s.logger.Error("login fetch user failed", zap.Error(err))
		return LoginResponse{}, apperror.Persistence(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("login wrong password", zap.String("user_id", user.ID.String()))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	id := identity.Identity{UserID: &user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	resp, err := s.issue(id)
	if err != nil {
		return LoginResponse{}, err
	}

	s.logger.Info("login success", zap.String("user_id", user.ID.String()), zap.String("role", user.Role.String()))
	return resp, nil
}

// Guest issues an EMPLOYEE token without a user id for staff that have no account.
func (s *service) Guest(ctx context.Context, req GuestRequest) (LoginResponse, error) {
	if !s.auth.AllowGuest {
		return LoginResponse{}, autherrors.ErrGuestDisabled
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return LoginResponse{}, apperror.RequiredField("Name")
	}

	id := identity.Identity{
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  rbac.RoleEmployee,
	}
	resp, err := s.issue(id)
	if err != nil {
		return LoginResponse{}, err
	}

	s.logger.Info("guest token issued")
	return resp, nil
}

func (s *service) Me(ctx context.Context, caller identity.Identity) (MeResponse, error) {
	if caller.UserID != nil {
		if _, err := s.repo.GetByID(ctx, *caller.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return MeResponse{}, autherrors.ErrUserNotFound
			}
			return MeResponse{}, apperror.Persistence(err)
		}
	}

	caps := s.rbac.Capabilities(caller.Role)
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}

	return MeResponse{User: toUserResponse(caller), Capabilities: names}, nil
}

// Seed creates the configured demo users, or resets their password and role when they already exist.
func (s *service) Seed(ctx context.Context) (SeedResponse, error) {
	if !s.seed.Enabled {
		return SeedResponse{}, autherrors.ErrSeedDisabled
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return SeedResponse{}, err
	}

	out := SeedResponse{Users: make([]SeededUser, 0, len(s.seed.Users))}
	for _, su := range s.seed.Users {
		role, err := rbac.ParseRole(su.Role)
		if err != nil {
			s.logger.Warn("seed user skipped", zap.String("email", su.Email), zap.Error(err))
			continue
		}

		created, err := s.seedUser(ctx, su, role, string(hashed))
		if err != nil {
			s.logger.Error("seed user failed", zap.String("email", su.Email), zap.Error(err))
			return SeedResponse{}, apperror.Persistence(err)
		}
		out.Users = append(out.Users, SeededUser{Email: strings.ToLower(su.Email), Role: role.String(), Created: created})
	}

	s.logger.Info("seed completed", zap.Int("users", len(out.Users)))
	return out, nil
}

func (s *service) seedUser(ctx context.Context, su config.SeedUser, role rbac.Role, hashed string) (bool, error) {
	now := s.now()
	email := strings.ToLower(strings.TrimSpace(su.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		existing.Name = su.Name
		existing.Password = hashed
		existing.Role = role
		existing.UpdatedAt = now
		return false, s.repo.Update(ctx, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	user := &User{
		ID:        uuid.New(),
		Name:      su.Name,
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			// Another seed run created it first.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) issue(id identity.Identity) (LoginResponse, error) {
	signed, expiresAt, err := token.Issue(s.auth.JWTSecret, id, s.auth.TokenTTL, s.now())
	if err != nil {
		s.logger.Error("sign token failed", zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}
	return LoginResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
		User:        toUserResponse(id),
	}, nil
}

func toUserResponse(id identity.Identity) UserResponse {
	resp := UserResponse{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role.String(),
		Guest: id.IsGuest(),
	}
	if id.UserID != nil {
		v := id.UserID.String()
		resp.ID = &v
	}
	return resp
}

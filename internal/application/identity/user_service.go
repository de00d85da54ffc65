package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/auth"
)

// UserService lets owners manage accounts
type UserService struct {
	users     identity.UserRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewUserService creates a new UserService. blacklist may be nil.
func NewUserService(users identity.UserRepository, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *UserService {
	return &UserService{
		users:     users,
		jwt:       jwtService,
		blacklist: blacklist,
		logger:    logger,
	}
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]UserResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out, nil
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, id int64) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Create creates a user with a unique email
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	user, err := identity.NewUser(req.Name, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, user.Email, 0); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	resp := ToUserResponse(user)
	return &resp, nil
}

// Update applies the non-nil fields of req. Owners cannot demote or
// deactivate themselves. Deactivation revokes the user's live tokens.
func (s *UserService) Update(ctx context.Context, actor identity.Actor, id int64, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Email != nil {
		name, email := user.Name, user.Email
		if req.Name != nil {
			name = *req.Name
		}
		if req.Email != nil {
			email = strings.ToLower(strings.TrimSpace(*req.Email))
			if email != user.Email {
				if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
					return nil, err
				}
			}
		}
		if err := user.UpdateProfile(name, email); err != nil {
			return nil, err
		}
	}

	if req.Role != nil {
		role, err := identity.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		if actor.UserID == user.ID && role != user.Role {
			return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "You cannot change your own role")
		}
		if err := user.ChangeRole(role); err != nil {
			return nil, err
		}
	}

	deactivated := false
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if *req.IsActive {
			err = user.Activate()
		} else {
			if actor.UserID == user.ID {
				return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "You cannot deactivate your own account")
			}
			err = user.Deactivate()
			deactivated = true
		}
		if err != nil {
			return nil, err
		}
	}

	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	if deactivated && s.blacklist != nil {
		if err := s.blacklist.InvalidateUserTokens(ctx, user.ID, s.jwt.GetAccessTokenExpiration()); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated user", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("User updated", zap.Int64("user_id", user.ID), zap.Int64("by", actor.UserID))
	resp := ToUserResponse(user)
	return &resp, nil
}

// EnsureOwner creates the first owner account when the users table is empty.
// It reports whether an account was created.
func (s *UserService) EnsureOwner(ctx context.Context, name, email, password string) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	owner, err := identity.NewUser(name, email, password, identity.RoleOwner)
	if err != nil {
		return false, err
	}
	if err := s.users.Save(ctx, owner); err != nil {
		return false, err
	}
	s.logger.Info("Seeded owner account", zap.Int64("user_id", owner.ID), zap.String("email", owner.Email))
	return true, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	exists, err := s.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "A user with this email already exists")
	}
	return nil
}

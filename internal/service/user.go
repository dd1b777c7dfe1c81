package service

import (
	"context"
	"fmt"

	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/auth"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"gorm.io/gorm"
)

// UserService contains the business logic for user account operations.
type UserService struct {
	db     *gorm.DB
	policy *rbac.Policy
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB, policy *rbac.Policy) *UserService {
	return &UserService{db: db, policy: policy}
}

// List returns one page of users matching the filter.
func (s *UserService) List(ctx context.Context, actor *models.User, f query.UserFilter, p query.Page) (*query.Result[models.User], error) {
	if s.policy.Scope(actor, rbac.ResourceUser) == rbac.ScopeNone {
		return nil, errForbidden
	}

	var items []models.User
	q := s.db.WithContext(ctx).Model(&models.User{}).Scopes(f.Scope)
	pg, err := query.Paginate(q, p, "users.id ASC", &items)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &query.Result[models.User]{Items: items, Pagination: pg}, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	if s.policy.Scope(actor, rbac.ResourceUser) == rbac.ScopeNone {
		return nil, errForbidden
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func usernameConflict(username string) error {
	return &ConflictError{Message: fmt.Sprintf("Username '%s' sudah digunakan", username)}
}

// Create hashes the password and inserts a user.
func (s *UserService) Create(ctx context.Context, actor *models.User, req CreateUserRequest) (*models.User, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceUser) {
		return nil, errForbidden
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if !req.Role.Valid() {
		return nil, fieldError("role", models.ErrInvalidRole.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: req.Username, PasswordHash: hash, Role: req.Role}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := usernameTaken(tx, req.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			return usernameConflict(req.Username)
		}

		if err := tx.Create(&user).Error; err != nil {
			return constraint(err, usernameConflict(req.Username).Error())
		}

		return audit.LogAction(tx, audit.ActorOf(actor), audit.ActionCreateUser, audit.Resource(audit.ResourceUser, user.ID), map[string]interface{}{
			"username": user.Username,
			"role":     user.Role,
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func usernameTaken(tx *gorm.DB, username string, exceptID uint) (bool, error) {
	return codeTaken(tx, &models.User{}, "username", username, exceptID)
}

// Update applies a partial update. A principal cannot change their own role.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, req UpdateUserRequest) (*models.User, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceUser) {
		return nil, errForbidden
	}
	if req.Role != nil && !req.Role.Valid() {
		return nil, fieldError("role", models.ErrInvalidRole.Error())
	}
	if err := rbac.CheckRoleChange(actor, id, req.Role); err != nil {
		return nil, &ForbiddenError{Message: "Anda tidak dapat mengubah role akun Anda sendiri"}
	}

	var user models.User
	if req.empty() {
		if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return nil, notFound(err)
		}
		return &user, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err)
		}

		changes := map[string]interface{}{}
		action := audit.ActionUpdateUser
		if req.Username != nil && *req.Username != user.Username {
			taken, err := usernameTaken(tx, *req.Username, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return usernameConflict(*req.Username)
			}
			changes["username"] = *req.Username
			user.Username = *req.Username
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
			changes["password"] = "changed"
		}
		if req.Role != nil && *req.Role != user.Role {
			changes["old_role"] = user.Role
			changes["role"] = *req.Role
			user.Role = *req.Role
			action = audit.ActionChangeRole
		}

		if err := tx.Save(&user).Error; err != nil {
			return constraint(err, usernameConflict(user.Username).Error())
		}

		return audit.LogAction(tx, audit.ActorOf(actor), action, audit.Resource(audit.ResourceUser, user.ID), changes)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user. A principal cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !s.policy.CanWrite(actor, rbac.ResourceUser) {
		return errForbidden
	}
	if err := rbac.CheckDelete(actor, id); err != nil {
		return &ForbiddenError{Message: "Anda tidak dapat menghapus akun Anda sendiri"}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		return audit.LogAction(tx, audit.ActorOf(actor), audit.ActionDeleteUser, audit.Resource(audit.ResourceUser, user.ID), map[string]interface{}{
			"username": user.Username,
		})
	})
}

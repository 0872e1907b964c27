package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/vcpms/internal/portfolio/auth"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"go.uber.org/zap"
)

// AdminService backs the staff-only user and group administration pages.
// Staff accounts cannot be changed through it.
type AdminService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	pageSize int
}

func NewAdminService(repo Repository, producer EventProducer, logger *zap.Logger, pageSize int) *AdminService {
	if pageSize < 1 {
		pageSize = listing.DefaultAdminPageSize
	}
	return &AdminService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("admin_service"),
		pageSize: pageSize,
	}
}

// ListUsers pages the non-staff users.
func (s *AdminService) ListUsers(ctx context.Context, page int) (listing.Page[models.User], error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return listing.Page[models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	regular := make([]models.User, 0, len(users))
	for _, u := range users {
		if !u.IsStaff {
			regular = append(regular, u)
		}
	}
	return listing.Paginate(regular, page, s.pageSize), nil
}

func groupRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func (s *AdminService) checkUser(ctx context.Context, in models.UserInput, withPassword bool, excludeID uint) error {
	v := e.NewValidationError()
	mergeInto(v, in.Validate(withPassword), "")
	if !v.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, in.Email, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			v.Add("email", "User with this Email already exists.")
		}
	}
	if in.GroupID != 0 {
		_, err := s.repo.GetGroup(ctx, in.GroupID)
		ok, err := found(err)
		if err != nil {
			return err
		}
		if !ok {
			v.Add("group", invalidChoice)
		}
	}
	return v.OrNil()
}

// CreateUser adds a regular account with the form's password and group.
func (s *AdminService) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := s.checkUser(ctx, in, true, 0); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Password: hash}
	in.Apply(u)
	if err := s.repo.CreateUser(ctx, u, groupRef(in.GroupID)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.producer.Produce(events.UserCreated, u.ID, u)
	return u, nil
}

// editableUser returns the user unless it is a staff account.
func (s *AdminService) editableUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsStaff {
		return nil, fmt.Errorf("user %d is staff: %w", id, e.ErrForbidden)
	}
	return u, nil
}

// GetUser returns a regular user for the edit form.
func (s *AdminService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.editableUser(ctx, id)
}

func (s *AdminService) UpdateUser(ctx context.Context, id uint, in models.UserInput) (*models.User, error) {
	u, err := s.editableUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, in, false, id); err != nil {
		return nil, err
	}
	in.Apply(u)
	if err := s.repo.UpdateUser(ctx, u, groupRef(in.GroupID)); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.producer.Produce(events.UserUpdated, u.ID, u)
	return u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.editableUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.producer.Produce(events.UserDeleted, id, nil)
	return nil
}

// ResetPassword sets a regular user's password to models.DefaultResetPassword.
func (s *AdminService) ResetPassword(ctx context.Context, id uint) error {
	if _, err := s.editableUser(ctx, id); err != nil {
		return err
	}
	hash, err := auth.HashPassword(models.DefaultResetPassword)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	s.logger.Info("password reset", zap.Uint("user_id", id))
	return nil
}

// CreateSuperuser adds an active staff superuser.
func (s *AdminService) CreateSuperuser(ctx context.Context, in models.UserInput) (*models.User, error) {
	in.IsActive = true
	in.GroupID = 0
	if err := s.checkUser(ctx, in, true, 0); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Password: hash, IsStaff: true, IsSuperuser: true}
	in.Apply(u)
	if err := s.repo.CreateUser(ctx, u, nil); err != nil {
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}
	s.producer.Produce(events.UserCreated, u.ID, u)
	return u, nil
}

func (s *AdminService) ListGroups(ctx context.Context, page int) (listing.Page[models.Group], error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return listing.Page[models.Group]{}, fmt.Errorf("failed to list groups: %w", err)
	}
	return listing.Paginate(groups, page, s.pageSize), nil
}

// GroupChoices lists every group a user can be placed in.
func (s *AdminService) GroupChoices(ctx context.Context) ([]models.Group, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *AdminService) checkGroup(ctx context.Context, in models.GroupInput, excludeID uint) error {
	v := e.NewValidationError()
	mergeInto(v, in.Validate(), "")
	if !v.Has("name") {
		taken, err := s.repo.GroupNameTaken(ctx, in.Name, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
		if taken {
			v.Add("name", "Group already exists")
		}
	}
	return v.OrNil()
}

func (s *AdminService) CreateGroup(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	if err := s.checkGroup(ctx, in, 0); err != nil {
		return nil, err
	}
	g := &models.Group{Name: in.Name}
	if err := s.repo.CreateGroup(ctx, g, in.Permissions); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	s.producer.Produce(events.GroupCreated, g.ID, g)
	return g, nil
}

func (s *AdminService) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	return s.repo.GetGroup(ctx, id)
}

func (s *AdminService) UpdateGroup(ctx context.Context, id uint, in models.GroupInput) (*models.Group, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, in, id); err != nil {
		return nil, err
	}
	g.Name = in.Name
	if err := s.repo.UpdateGroup(ctx, g, in.Permissions); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	s.producer.Produce(events.GroupUpdated, g.ID, g)
	return g, nil
}

func (s *AdminService) DeleteGroup(ctx context.Context, id uint) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	s.producer.Produce(events.GroupDeleted, id, nil)
	return nil
}

// PermissionChoices lists every permission a group can be granted.
func PermissionChoices() []models.Permission {
	return models.PermissionCatalogue
}

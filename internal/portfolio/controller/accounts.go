package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/vcpms/internal/portfolio/auth"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"go.uber.org/zap"
)

// InvalidCredentials is shown for any failed login.
const InvalidCredentials = "The credentials provided were invalid!"

// LoginInput is the bound login form.
type LoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// Login is a started session and the signed token naming it.
type Login struct {
	User      *models.User
	SessionID string
	Token     string
}

// AccountService signs users in and out and serves the account settings
// page.
type AccountService struct {
	repo     Repository
	files    storage.FileStorage
	sessions *session.Manager
	secret   string
	ttl      time.Duration
	producer EventProducer
	logger   *zap.Logger
	now      Clock
}

func NewAccountService(repo Repository, files storage.FileStorage, sessions *session.Manager, secret string, ttl time.Duration, producer EventProducer, logger *zap.Logger) *AccountService {
	return &AccountService{
		repo:     repo,
		files:    files,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		producer: producer,
		logger:   logger.Named("account_service"),
		now:      systemClock,
	}
}

// SessionTTL is how long a login lasts.
func (s *AccountService) SessionTTL() time.Duration { return s.ttl }

// Login checks the credentials of an active user and opens a session with
// every filter and layout reset.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Login, error) {
	if in.Email == "" || in.Password == "" {
		return nil, e.ErrUnauthorized
	}
	user, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive || !auth.CheckPassword(user.Password, in.Password) {
		return nil, e.ErrUnauthorized
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	id, _, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(id, s.secret, s.ttl)
	if err != nil {
		_ = s.sessions.End(ctx, id)
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &Login{User: user, SessionID: id, Token: token}, nil
}

// Logout drops the session and everything stored in it.
func (s *AccountService) Logout(ctx context.Context, rc *session.RequestContext) error {
	if rc == nil || rc.SessionID == "" {
		return nil
	}
	return s.sessions.End(ctx, rc.SessionID)
}

// ChangePassword replaces the password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, user *models.User, in models.ChangePasswordInput) error {
	v := in.Validate()
	if in.OldPassword != "" && !auth.CheckPassword(user.Password, in.OldPassword) {
		v.Add("old_password", "Incorrect Password.")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	user.Password = hash
	s.producer.Produce(events.UserUpdated, user.ID, user)
	return nil
}

// UpdateContactDetails saves the names, email and phone of the user.
func (s *AccountService) UpdateContactDetails(ctx context.Context, user *models.User, in models.ContactDetailsInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	taken, err := s.repo.EmailTaken(ctx, in.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, e.FieldError("email", "User with this Email already exists.")
	}
	updated := *user
	updated.FirstName = in.FirstName
	updated.LastName = in.LastName
	updated.Email = models.NormalizeEmail(in.Email)
	updated.Phone = in.Phone
	if err := s.repo.UpdateUser(ctx, &updated, nil); err != nil {
		return nil, fmt.Errorf("failed to update contact details: %w", err)
	}
	s.producer.Produce(events.UserUpdated, updated.ID, &updated)
	return &updated, nil
}

// UploadProfilePicture stores a new picture and removes the previous one.
func (s *AccountService) UploadProfilePicture(ctx context.Context, user *models.User, up Upload) (*models.User, error) {
	if !models.IsImageFile(up.Name) {
		return nil, e.FieldError("profile_picture", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	rel, err := s.files.Save(storage.ProfilePicturesDir, up.Name, up.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store profile picture: %w", err)
	}
	if err := s.repo.SetProfilePicture(ctx, user.ID, rel); err != nil {
		if rmErr := s.files.Delete(rel); rmErr != nil {
			s.logger.Warn("failed to clean up stored picture", zap.String("path", rel), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to set profile picture: %w", err)
	}
	s.dropPicture(user.ProfilePicture, rel)
	user.ProfilePicture = rel
	s.producer.Produce(events.UserUpdated, user.ID, user)
	return user, nil
}

// RemoveProfilePicture clears the picture. A user without one gets
// ErrNotFound.
func (s *AccountService) RemoveProfilePicture(ctx context.Context, user *models.User) error {
	if user.ProfilePicture == "" {
		return fmt.Errorf("no profile picture: %w", e.ErrNotFound)
	}
	if err := s.repo.SetProfilePicture(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("failed to remove profile picture: %w", err)
	}
	s.dropPicture(user.ProfilePicture, "")
	user.ProfilePicture = ""
	s.producer.Produce(events.UserUpdated, user.ID, user)
	return nil
}

func (s *AccountService) dropPicture(previous, current string) {
	if previous == "" || previous == current {
		return
	}
	if err := s.files.Delete(previous); err != nil {
		s.logger.Warn("failed to remove profile picture", zap.String("path", previous), zap.Error(err))
	}
}

// Deactivate logs the user out and deletes the account.
func (s *AccountService) Deactivate(ctx context.Context, rc *session.RequestContext) error {
	if rc == nil || rc.User == nil {
		return e.ErrUnauthorized
	}
	if err := s.Logout(ctx, rc); err != nil {
		s.logger.Warn("failed to end session", zap.Error(err))
	}
	if err := s.repo.DeleteUser(ctx, rc.User.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.dropPicture(rc.User.ProfilePicture, "")
	s.producer.Produce(events.UserDeleted, rc.User.ID, nil)
	return nil
}

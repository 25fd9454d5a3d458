package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/crypto"
	"github.com/careapp/carecoord/pkg/mail"
	"github.com/careapp/carecoord/pkg/metrics"
)

const (
	defaultOrganizationID   = "default-org-001"
	defaultOrganizationName = "Default Organization"
	defaultResetTokenTTL    = 15 * time.Minute
	resetTokenBytes         = 24
)

// RegisterInput captures the details of a new account.
type RegisterInput struct {
	FirstName        string
	LastName         string
	Uname            string
	Email            string
	Password         string
	Role             string
	UserType         string
	OrganizationID   string
	OrganizationName string
	PatientID        string
}

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithUserClock injects a custom clock primarily for testing.
func WithUserClock(clock func() time.Time) UserOption {
	return func(s *UserService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithPasswordResetTTL overrides the lifetime of password reset tokens.
func WithPasswordResetTTL(ttl time.Duration) UserOption {
	return func(s *UserService) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithUserMailer configures the mailer used to deliver password reset tokens.
func WithUserMailer(mailer mail.Mailer) UserOption {
	return func(s *UserService) {
		s.mailer = mailer
	}
}

// UserService manages accounts, credentials and password resets.
type UserService struct {
	db       *gorm.DB
	mailer   mail.Mailer
	resetTTL time.Duration
	now      func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	svc := &UserService{db: db, resetTTL: defaultResetTokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login authenticates by username.
func (s *UserService) Login(ctx context.Context, uname, password string) (*models.User, error) {
	return s.authenticate(ctx, "uname", "uname = ?", strings.TrimSpace(uname), password)
}

// LoginByEmail authenticates by email address.
func (s *UserService) LoginByEmail(ctx context.Context, email, password string) (*models.User, error) {
	return s.authenticate(ctx, "email", "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)), password)
}

// Register creates an account. The email and username must be unused.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, errors.New("user service: email is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hashed, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	uname := strings.TrimSpace(in.Uname)
	if uname == "" {
		uname = email
	}

	user := &models.User{
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Uname:            uname,
		Email:            email,
		Password:         hashed,
		Role:             strings.ToUpper(strings.TrimSpace(in.Role)),
		UserType:         strings.TrimSpace(in.UserType),
		Status:           "active",
		OrganizationID:   firstNonEmpty(in.OrganizationID, defaultOrganizationID),
		OrganizationName: firstNonEmpty(in.OrganizationName, defaultOrganizationName),
		PatientID:        strings.TrimSpace(in.PatientID),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("user service: create: %w", err)
	}
	return user, nil
}

// Get loads user id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get: %w", err)
	}
	return &user, nil
}

// ChangePassword replaces the password of the user identified by email or username.
// It returns false when the account is unknown or oldPassword does not match.
func (s *UserService) ChangePassword(ctx context.Context, identifier, oldPassword, newPassword string) (bool, error) {
	user, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !crypto.VerifyPassword(user.Password, oldPassword) {
		return false, nil
	}
	if err := s.setPassword(ctx, user.ID, newPassword, nil); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset issues a reset token for the user identified by email or username and mails it.
// It returns false when no such user exists.
func (s *UserService) RequestPasswordReset(ctx context.Context, identifier string) (bool, error) {
	user, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	token, err := crypto.GenerateToken(resetTokenBytes)
	if err != nil {
		return false, fmt.Errorf("user service: generate reset token: %w", err)
	}
	expires := s.now().Add(s.resetTTL)
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"password_reset_token":   crypto.HashToken(token),
		"password_reset_expires": expires,
	}).Error; err != nil {
		return false, fmt.Errorf("user service: store reset token: %w", err)
	}

	if s.mailer != nil {
		msg := mail.PasswordResetMessage(user.Email, user.FirstName, token, s.resetTTL)
		if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			return false, fmt.Errorf("user service: send reset email: %w", err)
		}
	}
	return true, nil
}

// ResetPassword sets a new password using a reset token. It returns false for unknown or expired tokens.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("password_reset_token = ?", crypto.HashToken(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("user service: find reset token: %w", err)
	}
	if user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(s.now()) {
		return false, nil
	}

	reset := map[string]any{"password_reset_token": "", "password_reset_expires": nil}
	if err := s.setPassword(ctx, user.ID, newPassword, reset); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) authenticate(ctx context.Context, method, clause, value, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(clause, value).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user service: login: %w", err)
	}
	if err != nil || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues(method, "failure").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.AuthAttempts.WithLabelValues(method, "success").Inc()
	return &user, nil
}

func (s *UserService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ? OR uname = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: find user: %w", err)
	}
	return &user, nil
}

func (s *UserService) setPassword(ctx context.Context, userID, password string, extra map[string]any) error {
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}
	updates := map[string]any{"password": hashed}
	for key, value := range extra {
		updates[key] = value
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}

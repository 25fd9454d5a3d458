package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is the root of every lookup miss returned by the stores.
var ErrNotFound = errors.New("not found")

var (
	ErrInviteCodeNotFound    = fmt.Errorf("invite code: %w", ErrNotFound)
	ErrScheduleNotFound      = fmt.Errorf("schedule: %w", ErrNotFound)
	ErrTaskNotFound          = fmt.Errorf("task: %w", ErrNotFound)
	ErrRecurringTaskNotFound = fmt.Errorf("recurring task: %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user: %w", ErrNotFound)
	ErrWorkerNotFound        = fmt.Errorf("worker: %w", ErrNotFound)
	ErrShiftNotFound         = fmt.Errorf("shift allocation: %w", ErrNotFound)
	ErrPatientNotFound       = fmt.Errorf("patient: %w", ErrNotFound)
	ErrNotificationNotFound  = fmt.Errorf("notification: %w", ErrNotFound)
	ErrTaskRequestNotFound   = fmt.Errorf("task request: %w", ErrNotFound)
	ErrMessageNotFound       = fmt.Errorf("message: %w", ErrNotFound)
)

var (
	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = errors.New("user: email already exists")
	// ErrUsernameExists is returned when registering a username that is already taken.
	ErrUsernameExists = errors.New("user: username already exists")
	// ErrInvalidCredentials signals a failed password check.
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	// ErrInvalidResetToken signals an unknown or expired password reset token.
	ErrInvalidResetToken = errors.New("user: invalid or expired reset token")
	// ErrInvalidDate is returned when a date is not formatted as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate")
}

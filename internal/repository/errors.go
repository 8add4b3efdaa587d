package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrAPITokenNotFound    = errors.New("api token not found")
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrCiRunNotFound       = errors.New("ci run not found")
	ErrRepoLinkNotFound    = errors.New("repo link not found")

	// ErrDuplicate marks a unique-constraint violation. Check-then-insert
	// sequences accept the narrow race window; this is the storage-level
	// backstop that services translate into a CONFLICT.
	ErrDuplicate = errors.New("duplicate key")
)

// translateError maps driver-level unique violations onto ErrDuplicate,
// covering both gorm's own translation and the raw sqlite/postgres
// messages.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") {
		return ErrDuplicate
	}
	return err
}

func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

package store

import (
	"context"
	"errors"

	"sentinel/pkg/models"
)

// ErrUserNotFound is returned when no user record exists for an id.
var ErrUserNotFound = errors.New("user not found")

// UserReader loads the owning user's record.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AlertWriter appends an alert under its user.
type AlertWriter interface {
	WriteAlert(ctx context.Context, alert *models.Alert) error
	Close() error
}

// AlertLister lists stored alerts for a user, oldest first.
type AlertLister interface {
	ListAlerts(ctx context.Context, userID string, limit int) ([]*models.Alert, error)
}

// InteractionWriter persists captured interaction records.
type InteractionWriter interface {
	PutInteraction(ctx context.Context, interaction *models.Interaction) error
}

// UserWriter creates or replaces user records. Whitelists are maintained out
// of band; the monitor never calls this.
type UserWriter interface {
	PutUser(ctx context.Context, user *models.User) error
}

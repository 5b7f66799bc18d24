package invitations

import (
	"context"
	"errors"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
)

var (
	// ErrNotFound is returned when no invitation row matches.
	ErrNotFound = errors.New("invitation not found")
	// ErrDuplicate is returned when an insert races another for the same (invited user, farm) pair.
	ErrDuplicate = errors.New("invitation already exists for user and farm")
)

// Store persists pending invitations. At most one row exists per (invited user, farm).
type Store interface {
	GetByID(ctx context.Context, id int64) (*models.Invitation, error)
	GetByPair(ctx context.Context, invitedUserID, farmID int64) (*models.Invitation, error)
	// Insert creates the row and sets inv.ID.
	Insert(ctx context.Context, inv *models.Invitation) error
	// Update rewrites suggested role, inviter and date of an existing row.
	Update(ctx context.Context, inv *models.Invitation) error
	Delete(ctx context.Context, id int64) error
}

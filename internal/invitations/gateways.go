package invitations

import (
	"context"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/queue"
)

// IdentityGateway is the part of the users service the orchestrators rely on.
type IdentityGateway interface {
	RoleName(ctx context.Context, roleID int64) (string, error)
	Permissions(ctx context.Context, userRoleID int64) ([]string, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateRoleAssignment(ctx context.Context, userID int64, roleName string) (int64, error)
}

// MembershipGateway is the part of the farms service the orchestrators rely on.
type MembershipGateway interface {
	Farm(ctx context.Context, farmID int64) (*models.Farm, error)
	Membership(ctx context.Context, userID, farmID int64) (*models.FarmMembership, error)
	CreateMembership(ctx context.Context, userRoleID, farmID, stateID int64) error
	MembershipStateID(ctx context.Context, name string) (int64, error)
}

// NotificationGateway is the part of the notifications service the orchestrators rely on.
type NotificationGateway interface {
	StateID(ctx context.Context, name string) (int64, error)
	TypeID(ctx context.Context, name string) (int64, error)
	Devices(ctx context.Context, userID int64) ([]models.Device, error)
	Send(ctx context.Context, n models.Notification) error
	DeleteByInvitation(ctx context.Context, invitationID int64) (int, error)
}

// AuditQueue receives resolution events for archiving.
type AuditQueue interface {
	EnqueueInvitationResolved(ctx context.Context, payload queue.InvitationResolvedPayload) error
}

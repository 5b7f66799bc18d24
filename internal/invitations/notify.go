package invitations

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
)

// maxParallelSends bounds the per-device fan-out.
const maxParallelSends = 8

// sendToDevices dispatches n once per registered device of n.UserID.
// A user without devices is not an error.
func (s *Service) sendToDevices(ctx context.Context, n models.Notification) error {
	devices, err := s.notifier.Devices(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		s.logger.Info("user has no registered devices", zap.Int64("user_id", n.UserID), zap.Int64("invitation_id", n.InvitationID))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSends)
	for _, d := range devices {
		d := d
		token := d.FCMToken
		msg := n
		msg.FCMToken = &token
		g.Go(func() error {
			if err := s.notifier.Send(gctx, msg); err != nil {
				return fmt.Errorf("send to device %d: %w", d.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// clearNotifications removes notifications tied to an invitation. Failures are logged only.
func (s *Service) clearNotifications(ctx context.Context, invitationID int64) {
	deleted, err := s.notifier.DeleteByInvitation(ctx, invitationID)
	if err != nil {
		s.logger.Warn("clearing invitation notifications failed", zap.Int64("invitation_id", invitationID), zap.Error(err))
		return
	}
	s.logger.Info("invitation notifications cleared", zap.Int64("invitation_id", invitationID), zap.Int("deleted_count", deleted))
}

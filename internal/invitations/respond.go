package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/apperrors"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/queue"
)

// RespondInvitation accepts or rejects a pending invitation addressed to caller.
// action is matched case-insensitively and is not trimmed.
//
// On accept the role assignment and farm membership are created before the row is
// deleted, so a failure in between leaves the invitation pending and answerable again.
func (s *Service) RespondInvitation(ctx context.Context, invitationID int64, action string, caller models.Caller) (resolved models.InvitationAction, err error) {
	ctx, span := s.tracer.Start(ctx, "RespondInvitation")
	span.SetAttributes(
		attribute.Int64("invitation_id", invitationID),
		attribute.String("action", action),
		attribute.Int64("caller_id", caller.ID),
	)
	defer func() { endSpan(span, err) }()

	inv, err := s.store.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperrors.Wrap(apperrors.KindNotFound, "Invitación no encontrada", err)
		}
		return "", apperrors.Wrap(apperrors.KindInternal, "Error consultando la invitación", err)
	}
	if inv.InvitedUserID != caller.ID {
		return "", apperrors.New(apperrors.KindForbidden, "No tienes permiso para responder esta invitación")
	}
	span.SetAttributes(attribute.Int64("farm_id", inv.FarmID))

	s.clearNotifications(ctx, inv.ID)

	switch models.InvitationAction(strings.ToLower(action)) {
	case models.ActionAccept:
		if err := s.grantMembership(ctx, inv, caller); err != nil {
			return "", err
		}
		if err := s.resolve(ctx, inv, models.ActionAccept); err != nil {
			return "", err
		}
		return models.ActionAccept, s.notifyInviter(ctx, inv, caller, models.NotificationTypeAccepted, "aceptado", "Invitación aceptada")
	case models.ActionReject:
		if err := s.resolve(ctx, inv, models.ActionReject); err != nil {
			return "", err
		}
		return models.ActionReject, s.notifyInviter(ctx, inv, caller, models.NotificationTypeRejected, "rechazado", "Invitación rechazada")
	default:
		return "", apperrors.New(apperrors.KindInvalidInput, "Acción inválida. Debes usar 'accept' o 'reject'")
	}
}

// grantMembership creates the role assignment and the active farm membership for the invitee.
func (s *Service) grantMembership(ctx context.Context, inv *models.Invitation, caller models.Caller) error {
	roleName, err := s.identity.RoleName(ctx, inv.SuggestedRoleID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, "El rol sugerido no es válido", err)
	}
	userRoleID, err := s.identity.CreateRoleAssignment(ctx, caller.ID, roleName)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "No se pudo obtener el user_role_id", err)
	}
	activeStateID, err := s.farms.MembershipStateID(ctx, models.MembershipStateActive)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "No se pudo obtener el estado 'Activo' para UserRoleFarm", err)
	}
	if err := s.farms.CreateMembership(ctx, userRoleID, inv.FarmID, activeStateID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "No se pudo asociar el usuario a la finca", err)
	}
	s.logger.Info("farm membership created",
		zap.Int64("invitation_id", inv.ID),
		zap.Int64("user_role_id", userRoleID),
		zap.Int64("farm_id", inv.FarmID),
	)
	return nil
}

// resolve deletes the invitation row and records the decision in the audit trail.
func (s *Service) resolve(ctx context.Context, inv *models.Invitation, action models.InvitationAction) error {
	if err := s.store.Delete(ctx, inv.ID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "Error eliminando la invitación", err)
	}
	s.logger.Info("invitation resolved", zap.Int64("invitation_id", inv.ID), zap.String("action", string(action)))

	if s.audit == nil {
		return nil
	}
	event := queue.InvitationResolvedPayload{
		InvitationID:    inv.ID,
		Action:          string(action),
		FarmID:          inv.FarmID,
		InvitedUserID:   inv.InvitedUserID,
		InviterUserID:   inv.InviterUserID,
		SuggestedRoleID: inv.SuggestedRoleID,
		ResolvedAt:      s.timestamp(),
	}
	if err := s.audit.EnqueueInvitationResolved(ctx, event); err != nil {
		s.logger.Warn("audit enqueue failed", zap.Int64("invitation_id", inv.ID), zap.Error(err))
	}
	return nil
}

// notifyInviter tells the inviter on every device that the invitation was answered.
func (s *Service) notifyInviter(ctx context.Context, inv *models.Invitation, caller models.Caller, typeName, verb, title string) error {
	farm, err := s.farms.Farm(ctx, inv.FarmID)
	if err != nil {
		s.partialSuccess("refetch_farm", inv.ID, err)
		return apperrors.Wrap(apperrors.KindNotFound, "Finca no encontrada", err)
	}
	typeID, err := s.notifier.TypeID(ctx, typeName)
	if err != nil {
		s.partialSuccess("resolve_notification_type", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, fmt.Sprintf("No se encontró el tipo de notificación '%s'", typeName), err)
	}
	stateID, err := s.notifier.StateID(ctx, models.NotificationStateResponded)
	if err != nil {
		s.partialSuccess("resolve_notification_state", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, fmt.Sprintf("El estado '%s' no fue encontrado para 'Notifications'", models.NotificationStateResponded), err)
	}

	message := fmt.Sprintf("El usuario %s ha %s tu invitación a la finca %s.", caller.Name, verb, farm.Name)
	n := models.Notification{
		Message:             message,
		UserID:              inv.InviterUserID,
		NotificationTypeID:  typeID,
		InvitationID:        inv.ID,
		NotificationStateID: stateID,
		FCMTitle:            title,
		FCMBody:             message,
	}
	if err := s.sendToDevices(ctx, n); err != nil {
		s.partialSuccess("send_notification", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, "Error enviando la notificación de respuesta", err)
	}
	return nil
}

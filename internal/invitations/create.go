package invitations

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/apperrors"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
)

// CreateRequest is the body of POST /invitations/create-invitation.
type CreateRequest struct {
	Email           string `json:"email" binding:"required,email"`
	SuggestedRoleID int64  `json:"suggested_role_id" binding:"required"`
	FarmID          int64  `json:"farm_id" binding:"required"`
}

// requiredPermission maps an invitable role to the permission the inviter needs.
func requiredPermission(roleName string) (string, bool) {
	switch roleName {
	case models.RoleAdminFarm:
		return models.PermissionAddAdministratorFarm, true
	case models.RoleOperatorFarm:
		return models.PermissionAddOperatorFarm, true
	default:
		return "", false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CreateInvitation validates the caller's authority over the farm and the invitee's
// eligibility, then inserts or refreshes the pending invitation and notifies the invitee.
//
// Validation never mutates anything. Once the row is committed it is never rolled
// back: notification failures are returned to the caller but the invitation stays.
func (s *Service) CreateInvitation(ctx context.Context, req CreateRequest, caller models.Caller) (inv *models.Invitation, err error) {
	ctx, span := s.tracer.Start(ctx, "CreateInvitation")
	span.SetAttributes(
		attribute.Int64("farm_id", req.FarmID),
		attribute.Int64("suggested_role_id", req.SuggestedRoleID),
		attribute.Int64("caller_id", caller.ID),
	)
	defer func() { endSpan(span, err) }()

	farm, err := s.farms.Farm(ctx, req.FarmID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNotFound, "Finca no encontrada", err)
	}

	activeStateID, err := s.farms.MembershipStateID(ctx, models.MembershipStateActive)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "No se pudo obtener el estado 'Activo' para UserRoleFarm", err)
	}

	callerMembership, err := s.farms.Membership(ctx, caller.ID, req.FarmID)
	if err != nil || callerMembership.StateID != activeStateID {
		return nil, apperrors.Wrap(apperrors.KindForbidden, "No tienes acceso a esta finca", err)
	}

	roleName, err := s.identity.RoleName(ctx, req.SuggestedRoleID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, "El rol sugerido no es válido", err)
	}

	permissions, err := s.identity.Permissions(ctx, callerMembership.UserRoleID)
	if err != nil {
		s.logger.Warn("permission lookup failed, treating as empty",
			zap.Int64("user_role_id", callerMembership.UserRoleID), zap.Error(err))
		permissions = nil
	}
	permission, invitable := requiredPermission(roleName)
	if !invitable {
		return nil, apperrors.New(apperrors.KindForbidden, fmt.Sprintf("No puedes invitar a colaboradores de rol %s", roleName))
	}
	if !contains(permissions, permission) {
		return nil, apperrors.New(apperrors.KindForbidden, fmt.Sprintf("No tienes permiso para invitar a un %s", roleName))
	}

	invitee, err := s.identity.UserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNotFound, "El usuario no está registrado", err)
	}

	inviteeMembership, err := s.farms.Membership(ctx, invitee.ID, req.FarmID)
	switch {
	case err == nil && inviteeMembership.StateID == activeStateID:
		return nil, apperrors.New(apperrors.KindConflict, "El usuario ya está asociado a la finca con un estado activo")
	case err != nil && !errors.Is(err, upstream.ErrNotFound):
		s.logger.Warn("invitee membership lookup failed, continuing",
			zap.Int64("invited_user_id", invitee.ID), zap.Int64("farm_id", req.FarmID), zap.Error(err))
	}

	inv, err = s.upsert(ctx, invitee.ID, req, caller)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("invitation_id", inv.ID))

	message := fmt.Sprintf("Has sido invitado como %s a la finca %s", roleName, farm.Name)
	if err := s.notifyInvitee(ctx, inv, message); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) upsert(ctx context.Context, inviteeID int64, req CreateRequest, caller models.Caller) (*models.Invitation, error) {
	existing, err := s.store.GetByPair(ctx, inviteeID, req.FarmID)
	switch {
	case err == nil:
		existing.SuggestedRoleID = req.SuggestedRoleID
		existing.InviterUserID = caller.ID
		existing.CreatedAt = s.timestamp()
		err := s.store.Update(ctx, existing)
		if err == nil {
			s.logger.Info("invitation refreshed", zap.Int64("invitation_id", existing.ID))
			s.clearNotifications(ctx, existing.ID)
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.KindInternal, "Error creando la invitación", err)
		}
		// Resolved between the lookup and the update.
		s.logger.Info("invitation vanished before refresh, inserting", zap.Int64("invitation_id", existing.ID))
		return s.insert(ctx, inviteeID, req, caller)
	case errors.Is(err, ErrNotFound):
		return s.insert(ctx, inviteeID, req, caller)
	default:
		return nil, apperrors.Wrap(apperrors.KindInternal, "Error creando la invitación", err)
	}
}

func (s *Service) insert(ctx context.Context, inviteeID int64, req CreateRequest, caller models.Caller) (*models.Invitation, error) {
	inv := &models.Invitation{
		InvitedUserID:   inviteeID,
		SuggestedRoleID: req.SuggestedRoleID,
		FarmID:          req.FarmID,
		InviterUserID:   caller.ID,
		CreatedAt:       s.timestamp(),
	}
	if err := s.store.Insert(ctx, inv); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.KindConflict, "Ya existe una invitación para este usuario en la finca", err)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Error creando la invitación", err)
	}
	s.logger.Info("invitation created", zap.Int64("invitation_id", inv.ID))
	return inv, nil
}

func (s *Service) notifyInvitee(ctx context.Context, inv *models.Invitation, message string) error {
	stateID, err := s.notifier.StateID(ctx, models.NotificationStatePending)
	if err != nil {
		s.partialSuccess("resolve_notification_state", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, fmt.Sprintf("El estado '%s' no fue encontrado para 'Notifications'", models.NotificationStatePending), err)
	}
	typeID, err := s.notifier.TypeID(ctx, models.NotificationTypeInvitation)
	if err != nil {
		s.partialSuccess("resolve_notification_type", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, fmt.Sprintf("No se encontró el tipo de notificación '%s'", models.NotificationTypeInvitation), err)
	}

	n := models.Notification{
		Message:             message,
		UserID:              inv.InvitedUserID,
		NotificationTypeID:  typeID,
		InvitationID:        inv.ID,
		NotificationStateID: stateID,
		FCMTitle:            "Nueva Invitación",
		FCMBody:             message,
	}
	if err := s.sendToDevices(ctx, n); err != nil {
		s.partialSuccess("send_notification", inv.ID, err)
		return apperrors.Wrap(apperrors.KindInternal, "Error enviando la notificación de invitación", err)
	}
	return nil
}

package invitations

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/apperrors"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
)

const tracerName = "github.com/DavidValenciaX/coffeetech-invitations-service/internal/invitations"

// Service runs the create and respond invitation workflows across the users,
// farms and notifications services. It is the only writer of invitation rows.
type Service struct {
	store    Store
	identity IdentityGateway
	farms    MembershipGateway
	notifier NotificationGateway
	audit    AuditQueue
	location *time.Location
	now      func() time.Time
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewService creates the invitation orchestrator. audit may be nil. A nil location means UTC.
func NewService(store Store, identity IdentityGateway, farms MembershipGateway, notifier NotificationGateway, audit AuditQueue, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		store:    store,
		identity: identity,
		farms:    farms,
		notifier: notifier,
		audit:    audit,
		location: location,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// Get returns an invitation by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Invitation, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, "Invitación no encontrada", err)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Error consultando la invitación", err)
	}
	return inv, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().In(s.location)
}

// partialSuccess logs a failure that happened after the invitation row was already committed.
func (s *Service) partialSuccess(step string, invitationID int64, err error) {
	s.logger.Error("invitation committed but follow-up failed",
		zap.String("anomaly", "partial_success"),
		zap.String("step", step),
		zap.Int64("invitation_id", invitationID),
		zap.Error(err),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Message(err))
	}
	span.End()
}

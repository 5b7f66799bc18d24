package invitations

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/apperrors"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/middleware"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/response"
)

// Orchestrator is what the handler needs from Service.
type Orchestrator interface {
	CreateInvitation(ctx context.Context, req CreateRequest, caller models.Caller) (*models.Invitation, error)
	RespondInvitation(ctx context.Context, invitationID int64, action string, caller models.Caller) (models.InvitationAction, error)
	Get(ctx context.Context, id int64) (*models.Invitation, error)
}

// Handler handles invitation HTTP endpoints.
type Handler struct {
	svc    Orchestrator
	logger *zap.Logger
}

// NewHandler creates an invitations handler.
func NewHandler(svc Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the invitation routes on g. Every route requires a session.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/create-invitation", h.Create)
	g.POST("/respond-invitation/:invitation_id", h.Respond)
	g.GET("/:invitation_id", h.Get)
}

// Create handles POST /invitations/create-invitation.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Unauthorized(c, "Token de sesión requerido")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Solicitud inválida: "+err.Error())
		return
	}

	inv, err := h.svc.CreateInvitation(c.Request.Context(), req, caller)
	if err != nil {
		h.fail(c, err, zap.Int64("farm_id", req.FarmID))
		return
	}
	response.Created(c, "Invitación creada exitosamente", gin.H{"invitation_id": inv.ID})
}

// Respond handles POST /invitations/respond-invitation/:invitation_id?action=accept|reject.
func (h *Handler) Respond(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Unauthorized(c, "Token de sesión requerido")
		return
	}
	id, err := strconv.ParseInt(c.Param("invitation_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "ID de invitación inválido")
		return
	}

	action, err := h.svc.RespondInvitation(c.Request.Context(), id, c.Query("action"), caller)
	if err != nil {
		h.fail(c, err, zap.Int64("invitation_id", id))
		return
	}
	message := "Has aceptado la invitación exitosamente"
	if action == models.ActionReject {
		message = "Has rechazado la invitación exitosamente"
	}
	response.OK(c, message, nil)
}

// Get handles GET /invitations/:invitation_id. Only the inviter or the invitee may read it.
func (h *Handler) Get(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Unauthorized(c, "Token de sesión requerido")
		return
	}
	id, err := strconv.ParseInt(c.Param("invitation_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "ID de invitación inválido")
		return
	}
	inv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, zap.Int64("invitation_id", id))
		return
	}
	if caller.ID != inv.InvitedUserID && caller.ID != inv.InviterUserID {
		response.FromError(c, apperrors.New(apperrors.KindForbidden, "No tienes permiso para ver esta invitación"))
		return
	}
	response.OK(c, "Invitación encontrada", inv)
}

func (h *Handler) fail(c *gin.Context, err error, fields ...zap.Field) {
	kind := apperrors.KindOf(err)
	fields = append(fields, zap.String("kind", string(kind)), zap.Error(err))
	if kind.HTTPStatus() >= 500 {
		h.logger.Error("invitation request failed", fields...)
	} else {
		h.logger.Info("invitation request rejected", fields...)
	}
	response.FromError(c, err)
}

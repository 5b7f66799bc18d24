package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
)

const uniqueViolation = "23505"

// Repository is the Postgres Store.
type Repository struct {
	pool     *pgxpool.Pool
	location *time.Location
}

// NewRepository creates an invitations repository. Invitation dates are read back in
// location; nil means UTC.
func NewRepository(pool *pgxpool.Pool, location *time.Location) *Repository {
	if location == nil {
		location = time.UTC
	}
	return &Repository{pool: pool, location: location}
}

const selectColumns = `SELECT invitation_id, invited_user_id, suggested_role_id, farm_id, inviter_user_id, invitation_date FROM invitations`

func (r *Repository) scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(&inv.ID, &inv.InvitedUserID, &inv.SuggestedRoleID, &inv.FarmID, &inv.InviterUserID, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.CreatedAt = inv.CreatedAt.In(r.location)
	return &inv, nil
}

// GetByID returns an invitation by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Invitation, error) {
	return r.scanInvitation(r.pool.QueryRow(ctx, selectColumns+` WHERE invitation_id = $1`, id))
}

// GetByPair returns the invitation for an invited user and farm.
func (r *Repository) GetByPair(ctx context.Context, invitedUserID, farmID int64) (*models.Invitation, error) {
	return r.scanInvitation(r.pool.QueryRow(ctx, selectColumns+` WHERE invited_user_id = $1 AND farm_id = $2`, invitedUserID, farmID))
}

// Insert creates an invitation and sets its ID.
func (r *Repository) Insert(ctx context.Context, inv *models.Invitation) error {
	const q = `INSERT INTO invitations (invited_user_id, suggested_role_id, farm_id, inviter_user_id, invitation_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING invitation_id`
	err := r.pool.QueryRow(ctx, q, inv.InvitedUserID, inv.SuggestedRoleID, inv.FarmID, inv.InviterUserID, inv.CreatedAt).Scan(&inv.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Update refreshes suggested role, inviter and date in place.
func (r *Repository) Update(ctx context.Context, inv *models.Invitation) error {
	const q = `UPDATE invitations SET suggested_role_id = $2, inviter_user_id = $3, invitation_date = $4 WHERE invitation_id = $1`
	tag, err := r.pool.Exec(ctx, q, inv.ID, inv.SuggestedRoleID, inv.InviterUserID, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("update invitation %d: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an invitation.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invitations WHERE invitation_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invitation %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

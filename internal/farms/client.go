// Package farms is the gateway to the farms service, which owns farms and the
// user-role-farm memberships that grant access to them.
package farms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/cache"
)

// Client implements the membership gateway over HTTP.
type Client struct {
	http   *upstream.Client
	cache  *cache.Cache
	logger *zap.Logger
}

// NewClient creates the farms service gateway. lookups may be nil to disable caching.
func NewClient(http *upstream.Client, lookups *cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, cache: lookups, logger: logger}
}

// Farm fetches farm details by id.
func (c *Client) Farm(ctx context.Context, farmID int64) (*models.Farm, error) {
	var f models.Farm
	if err := c.http.Get(ctx, "/farms-service/get-farm/"+strconv.FormatInt(farmID, 10), &f); err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	if f.ID == 0 {
		return nil, fmt.Errorf("get farm %d: %w", farmID, upstream.ErrNotFound)
	}
	return &f, nil
}

// Membership fetches a user's membership on a farm.
// The farms service answers {"status":"error"} when there is none, which maps to upstream.ErrNotFound.
func (c *Client) Membership(ctx context.Context, userID, farmID int64) (*models.FarmMembership, error) {
	var out struct {
		Status string `json:"status"`
		models.FarmMembership
	}
	path := "/farms-service/get-user-role-farm/" + strconv.FormatInt(userID, 10) + "/" + strconv.FormatInt(farmID, 10)
	if err := c.http.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if out.Status == "error" || out.FarmMembership.ID == 0 {
		return nil, fmt.Errorf("get membership user %d farm %d: %w", userID, farmID, upstream.ErrNotFound)
	}
	m := out.FarmMembership
	return &m, nil
}

// CreateMembership links a role assignment to a farm with the given state.
func (c *Client) CreateMembership(ctx context.Context, userRoleID, farmID, stateID int64) error {
	in := map[string]int64{
		"user_role_id":            userRoleID,
		"farm_id":                 farmID,
		"user_role_farm_state_id": stateID,
	}
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.http.Post(ctx, "/farms-service/create-user-role-farm", in, &out); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	if out.Status != "success" {
		return fmt.Errorf("create membership: status %q %s: %w", out.Status, out.Message, upstream.ErrMalformed)
	}
	return nil
}

// MembershipStateID resolves a membership state id by name. Results are cached.
func (c *Client) MembershipStateID(ctx context.Context, name string) (int64, error) {
	key := "farms:membership-state:" + strings.ToLower(name)
	return cache.Lookup(ctx, c.cache, key, func(ctx context.Context) (int64, error) {
		var out struct {
			Status string `json:"status"`
			models.MembershipState
		}
		if err := c.http.Get(ctx, "/farms-service/get-user-role-farm-state/"+url.PathEscape(name), &out); err != nil {
			return 0, fmt.Errorf("membership state: %w", err)
		}
		if out.Status == "error" || out.ID == 0 {
			return 0, fmt.Errorf("membership state %q: %w", name, upstream.ErrNotFound)
		}
		return out.ID, nil
	})
}

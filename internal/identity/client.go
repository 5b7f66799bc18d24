// Package identity is the gateway to the users service: session verification,
// user lookup, role assignments and role permissions.
package identity

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/cache"
)

// Client implements the identity gateway over HTTP.
type Client struct {
	http   *upstream.Client
	cache  *cache.Cache
	logger *zap.Logger
}

// NewClient creates the users service gateway. lookups may be nil to disable caching.
func NewClient(http *upstream.Client, lookups *cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, cache: lookups, logger: logger}
}

type userEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		User *models.User `json:"user"`
	} `json:"data"`
}

func (e userEnvelope) user() (*models.User, error) {
	if e.Status != "success" || e.Data.User == nil {
		return nil, upstream.ErrNotFound
	}
	return e.Data.User, nil
}

// VerifySession resolves a session token to the user that owns it.
func (c *Client) VerifySession(ctx context.Context, sessionToken string) (*models.User, error) {
	var env userEnvelope
	if err := c.http.Post(ctx, "/users-service/session-token-verification", map[string]string{"session_token": sessionToken}, &env); err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	u, err := env.user()
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	return u, nil
}

// UserByEmail resolves a registered user by email.
func (c *Client) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var env userEnvelope
	if err := c.http.Post(ctx, "/users-service/user-verification-by-email", map[string]string{"email": email}, &env); err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	u, err := env.user()
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

// CreateRoleAssignment assigns roleName to userID and returns the new assignment id.
func (c *Client) CreateRoleAssignment(ctx context.Context, userID int64, roleName string) (int64, error) {
	in := map[string]interface{}{"user_id": userID, "role_name": roleName}
	var out models.RoleAssignment
	if err := c.http.Post(ctx, "/users-service/user-role", in, &out); err != nil {
		return 0, fmt.Errorf("create role assignment: %w", err)
	}
	if out.ID == 0 {
		return 0, fmt.Errorf("create role assignment: missing user_role_id: %w", upstream.ErrMalformed)
	}
	return out.ID, nil
}

// Permissions lists the permission names attached to a role assignment.
func (c *Client) Permissions(ctx context.Context, userRoleID int64) ([]string, error) {
	var out struct {
		Permissions []struct {
			Name string `json:"name"`
		} `json:"permissions"`
	}
	path := "/users-service/user-role/" + strconv.FormatInt(userRoleID, 10) + "/permissions"
	if err := c.http.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}
	names := make([]string, 0, len(out.Permissions))
	for _, p := range out.Permissions {
		names = append(names, p.Name)
	}
	return names, nil
}

// RoleName resolves a role's display name. Results are cached.
func (c *Client) RoleName(ctx context.Context, roleID int64) (string, error) {
	key := "identity:role-name:" + strconv.FormatInt(roleID, 10)
	return cache.Lookup(ctx, c.cache, key, func(ctx context.Context) (string, error) {
		var out struct {
			RoleName string `json:"role_name"`
		}
		if err := c.http.Get(ctx, "/users-service/"+strconv.FormatInt(roleID, 10)+"/name", &out); err != nil {
			return "", fmt.Errorf("role name: %w", err)
		}
		if out.RoleName == "" {
			return "", fmt.Errorf("role name %d: %w", roleID, upstream.ErrNotFound)
		}
		return out.RoleName, nil
	})
}

// Package notifications is the gateway to the notifications service.
package notifications

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/cache"
)

// Client implements the notification gateway over HTTP.
type Client struct {
	http   *upstream.Client
	cache  *cache.Cache
	logger *zap.Logger
}

// NewClient creates the notifications service gateway. lookups may be nil to disable caching.
func NewClient(http *upstream.Client, lookups *cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, cache: lookups, logger: logger}
}

// StateID resolves a notification state id by name, case-insensitively.
func (c *Client) StateID(ctx context.Context, name string) (int64, error) {
	key := "notifications:state:" + strings.ToLower(name)
	return cache.Lookup(ctx, c.cache, key, func(ctx context.Context) (int64, error) {
		var states []struct {
			ID   int64  `json:"notification_state_id"`
			Name string `json:"name"`
		}
		if err := c.http.Get(ctx, "/notification-states", &states); err != nil {
			return 0, fmt.Errorf("notification states: %w", err)
		}
		entries := make([]models.CatalogEntry, 0, len(states))
		for _, s := range states {
			entries = append(entries, models.CatalogEntry{ID: s.ID, Name: s.Name})
		}
		return match(entries, "notification state", name)
	})
}

// TypeID resolves a notification type id by name, case-insensitively.
func (c *Client) TypeID(ctx context.Context, name string) (int64, error) {
	key := "notifications:type:" + strings.ToLower(name)
	return cache.Lookup(ctx, c.cache, key, func(ctx context.Context) (int64, error) {
		var types []struct {
			ID   int64  `json:"notification_type_id"`
			Name string `json:"name"`
		}
		if err := c.http.Get(ctx, "/notification-types", &types); err != nil {
			return 0, fmt.Errorf("notification types: %w", err)
		}
		entries := make([]models.CatalogEntry, 0, len(types))
		for _, t := range types {
			entries = append(entries, models.CatalogEntry{ID: t.ID, Name: t.Name})
		}
		return match(entries, "notification type", name)
	})
}

func match(entries []models.CatalogEntry, kind, name string) (int64, error) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e.ID, nil
		}
	}
	return 0, fmt.Errorf("%s %q: %w", kind, name, upstream.ErrNotFound)
}

// Devices lists the registered delivery devices of a user.
func (c *Client) Devices(ctx context.Context, userID int64) ([]models.Device, error) {
	var devices []models.Device
	if err := c.http.Get(ctx, "/user-devices/"+strconv.FormatInt(userID, 10), &devices); err != nil {
		return nil, fmt.Errorf("user devices: %w", err)
	}
	return devices, nil
}

// Send dispatches one notification.
func (c *Client) Send(ctx context.Context, n models.Notification) error {
	if err := c.http.Post(ctx, "/send-notification", n, nil); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// DeleteByInvitation removes every notification tied to an invitation and
// returns how many were deleted.
func (c *Client) DeleteByInvitation(ctx context.Context, invitationID int64) (int, error) {
	var out struct {
		DeletedCount int `json:"deleted_count"`
	}
	if err := c.http.Delete(ctx, "/notifications/by-invitation/"+strconv.FormatInt(invitationID, 10), &out); err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return out.DeletedCount, nil
}

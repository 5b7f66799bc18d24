package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	logger := zaptest.NewLogger(t)
	return NewClient(upstream.NewClient("users", srv.URL, time.Second, nil, logger), nil, logger)
}

func TestVerifySession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users-service/session-token-verification", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["session_token"] != "good" {
			_, _ = w.Write([]byte(`{"status":"error","message":"invalid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"user":{"user_id":2,"name":"Ana","email":"ana@example.com"}}}`))
	})
	c := newTestClient(t, mux)

	u, err := c.VerifySession(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, "Ana", u.Name)

	_, err = c.VerifySession(context.Background(), "bad")
	assert.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestUserByEmailServiceDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users-service/user-verification-by-email", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	_, err := c.UserByEmail(context.Background(), "ana@example.com")
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestCreateRoleAssignment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users-service/user-role", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			UserID   int64  `json:"user_id"`
			RoleName string `json:"role_name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.RoleName == "Operador de campo" {
			_, _ = w.Write([]byte(`{"user_role_id": 55}`))
			return
		}
		_, _ = w.Write([]byte(`{"detail": "nope"}`))
	})
	c := newTestClient(t, mux)

	id, err := c.CreateRoleAssignment(context.Background(), 2, "Operador de campo")
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)

	_, err = c.CreateRoleAssignment(context.Background(), 2, "Otro")
	assert.ErrorIs(t, err, upstream.ErrMalformed)
}

func TestPermissionsAndRoleName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users-service/user-role/9/permissions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"permissions":[{"name":"add_operator_farm"},{"name":"read_farm"}]}`))
	})
	mux.HandleFunc("/users-service/2/name", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role_name":"Operador de campo"}`))
	})
	mux.HandleFunc("/users-service/3/name", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	c := newTestClient(t, mux)

	perms, err := c.Permissions(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"add_operator_farm", "read_farm"}, perms)

	name, err := c.RoleName(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Operador de campo", name)

	_, err = c.RoleName(context.Background(), 3)
	assert.ErrorIs(t, err, upstream.ErrNotFound)

	_, err = c.RoleName(context.Background(), 4)
	assert.ErrorIs(t, err, upstream.ErrNotFound)
}

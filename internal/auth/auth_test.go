package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/auth"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/sql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	envs = map[string]string{
		"SESSION_KEY":      "a-session-key-only-used-in-tests",
		"SESSION_MAX_AGE":  "3600",
		"AUTH_BCRYPT_COST": "4",
	}
)

func init() {
	envs = internal.EnvsFromEnviron(os.Environ(), envs)
}

type authTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	auth interface {
		internal.Configurer
		internal.Opener
		auth.Auth
	}
}

func newAuthTest(t *testing.T, envs map[string]string) *authTest {
	ctx := context.TODO()
	s := sql.NewSqlite()
	require.Nil(t, s.Configure(map[string]string{}))
	require.Nil(t, s.Open(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })
	a := auth.NewAuth(s)
	require.Nil(t, a.Configure(envs))
	require.Nil(t, a.Open(ctx))
	return &authTest{sql: s, auth: a}
}

// carry copies the cookies set by a response onto the next request
func carry(w *httptest.ResponseRecorder, r *http.Request) *http.Request {
	for _, cookie := range w.Result().Cookies() {
		r.AddCookie(cookie)
	}
	return r
}

func (a *authTest) TestAuthenticate(t *testing.T) {
	ctx := context.TODO()

	active := false
	_, err := a.auth.Provision(ctx,
		data.UserProvision{
			Username:    "clerk",
			Password:    "clerk-password",
			Permissions: []string{"main_app.view_employee"},
		},
		data.UserProvision{
			Username: "retired",
			Password: "retired-password",
			Active:   &active,
		},
	)
	require.Nil(t, err)

	user, err := a.auth.Authenticate(ctx, "clerk", "clerk-password")
	assert.Nil(t, err)
	if assert.NotNil(t, user) {
		assert.Equal(t, "clerk", user.Username)
		assert.True(t, user.HasPermission(data.PermissionView))
		assert.False(t, user.HasPermission(data.PermissionDelete))
		assert.NotEqual(t, "clerk-password", user.PasswordHash)
	}
	_, err = a.auth.Authenticate(ctx, "clerk", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = a.auth.Authenticate(ctx, "nobody", "clerk-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = a.auth.Authenticate(ctx, "retired", "retired-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func (a *authTest) TestSession(t *testing.T) {
	ctx := context.TODO()

	users, err := a.auth.Provision(ctx, data.UserProvision{
		Username:  "admin",
		Password:  "admin-password",
		Superuser: true,
	})
	require.Nil(t, err)
	require.Len(t, users, 1)

	// anonymous request
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	user, err := a.auth.SessionUser(ctx, r)
	assert.Nil(t, err)
	assert.Nil(t, user)

	// establish, then read back the session
	w := httptest.NewRecorder()
	err = a.auth.EstablishSession(w, r, users[0])
	require.Nil(t, err)
	r = carry(w, httptest.NewRequest(http.MethodGet, "/", nil))
	user, err = a.auth.SessionUser(ctx, r)
	assert.Nil(t, err)
	assert.Equal(t, users[0], user)

	// flashes are popped once
	w = httptest.NewRecorder()
	err = a.auth.AddFlash(w, r, data.Message{Level: data.MessageInfo, Text: "Employee was saved"})
	require.Nil(t, err)
	r = carry(w, httptest.NewRequest(http.MethodGet, "/", nil))
	w = httptest.NewRecorder()
	messages := a.auth.Flashes(w, r)
	assert.Equal(t, []data.Message{{Level: data.MessageInfo, Text: "Employee was saved"}}, messages)
	r = carry(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, a.auth.Flashes(httptest.NewRecorder(), r))
	user, err = a.auth.SessionUser(ctx, r)
	assert.Nil(t, err)
	assert.NotNil(t, user)

	// destroy
	w = httptest.NewRecorder()
	err = a.auth.DestroySession(w, r)
	require.Nil(t, err)
	cookies := w.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.True(t, cookies[0].MaxAge < 0)
	}

	// a garbage cookie is anonymous
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "employee-admin", Value: "garbage"})
	user, err = a.auth.SessionUser(ctx, r)
	assert.Nil(t, err)
	assert.Nil(t, user)
}

func TestAuth(t *testing.T) {
	c := newAuthTest(t, envs)
	t.Run("Authenticate", c.TestAuthenticate)
	t.Run("Session", c.TestSession)
}

func TestLoadUsers(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "users.yaml")
	err := os.WriteFile(path, []byte(`users:
  - username: admin
    password: admin-password
    superuser: true
  - username: clerk
    password: clerk-password
    permissions: [view_employee, add_employee]
`), 0600)
	require.Nil(t, err)
	users, err := auth.LoadUsers(path)
	assert.Nil(t, err)
	if assert.Len(t, users, 2) {
		assert.True(t, users[0].Superuser)
		assert.Equal(t, []string{"view_employee", "add_employee"}, users[1].Permissions)
	}

	// provisioned on open
	envs := map[string]string{
		"AUTH_BCRYPT_COST": "4",
		"AUTH_USERS_FILE":  path,
	}
	c := newAuthTest(t, envs)
	user, err := c.auth.Authenticate(context.TODO(), "clerk", "clerk-password")
	assert.Nil(t, err)
	if assert.NotNil(t, user) {
		assert.True(t, user.HasPermission(data.PermissionAdd))
	}

	// unknown permissions are rejected
	err = os.WriteFile(path, []byte(`users:
  - username: clerk
    password: clerk-password
    permissions: [fire_employee]
`), 0600)
	require.Nil(t, err)
	_, err = auth.LoadUsers(path)
	assert.NotNil(t, err)
}

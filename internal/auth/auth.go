package auth

import (
	"context"
	"encoding/gob"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/sql"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user, an inactive user or
// a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	sessionName   string = "employee-admin"
	sessionUserId string = "user_id"
)

func init() {
	gob.Register(data.Message{})
}

type Auth interface {
	// HashPassword returns the bcrypt hash of password at the configured cost
	HashPassword(password string) (string, error)

	// Authenticate returns the active user matching the credentials; the
	// amount of work done does not depend on whether the user exists
	Authenticate(ctx context.Context, username, password string) (*data.User, error)

	// SessionUser returns the user bound to the session of the request or
	// nil if the request is anonymous
	SessionUser(ctx context.Context, r *http.Request) (*data.User, error)

	// EstablishSession binds the user to the session cookie
	EstablishSession(w http.ResponseWriter, r *http.Request, user *data.User) error

	// DestroySession expires the session cookie
	DestroySession(w http.ResponseWriter, r *http.Request) error

	// AddFlash queues a message to be shown on the next rendered page
	AddFlash(w http.ResponseWriter, r *http.Request, message data.Message) error

	// Flashes pops every queued message
	Flashes(w http.ResponseWriter, r *http.Request) []data.Message

	// Provision hashes the password of each account and writes it, replacing
	// any existing user with the same username
	Provision(ctx context.Context, provisions ...data.UserProvision) ([]*data.User, error)
}

type auth struct {
	sync.RWMutex
	users sql.Users
	store *sessions.CookieStore
	utilities.Logger
	dummyHash []byte
	config    struct {
		sessionKey    string
		sessionMaxAge time.Duration
		sessionSecure bool
		bcryptCost    int
		usersFile     string
	}
}

func NewAuth(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Auth
} {
	a := &auth{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case sql.Users:
			a.users = v
		case utilities.Logger:
			a.Logger = v
		}
	}
	return a
}

func (a *auth) Configure(envs map[string]string) error {
	a.Lock()
	defer a.Unlock()

	a.config.sessionMaxAge = 24 * time.Hour
	a.config.bcryptCost = bcrypt.DefaultCost
	if sessionKey := envs["SESSION_KEY"]; sessionKey != "" {
		a.config.sessionKey = sessionKey
	}
	if _, ok := envs["SESSION_MAX_AGE"]; ok {
		i, _ := strconv.ParseInt(envs["SESSION_MAX_AGE"], 10, 64)
		a.config.sessionMaxAge = time.Duration(i) * time.Second
	}
	if sessionSecure, ok := envs["SESSION_SECURE"]; ok {
		a.config.sessionSecure, _ = strconv.ParseBool(sessionSecure)
	}
	if bcryptCost, ok := envs["AUTH_BCRYPT_COST"]; ok {
		i, err := strconv.Atoi(bcryptCost)
		if err != nil || i < bcrypt.MinCost || i > bcrypt.MaxCost {
			return errors.Errorf("invalid bcrypt cost: %q", bcryptCost)
		}
		a.config.bcryptCost = i
	}
	if usersFile := envs["AUTH_USERS_FILE"]; usersFile != "" {
		a.config.usersFile = usersFile
	}
	return nil
}

func (a *auth) Open(ctx context.Context) error {
	a.Lock()
	defer a.Unlock()

	if a.users == nil {
		return errors.New("users not provided")
	}
	sessionKey := []byte(a.config.sessionKey)
	if len(sessionKey) == 0 {
		a.Info(ctx, "no session key configured, sessions will not survive a restart")
		sessionKey = securecookie.GenerateRandomKey(32)
	}
	a.store = sessions.NewCookieStore(sessionKey)
	a.store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(a.config.sessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   a.config.sessionSecure,
		SameSite: http.SameSiteLaxMode,
	}
	dummyHash, err := bcrypt.GenerateFromPassword(securecookie.GenerateRandomKey(16), a.config.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "unable to generate dummy hash")
	}
	a.dummyHash = dummyHash
	if a.config.usersFile != "" {
		provisions, err := LoadUsers(a.config.usersFile)
		if err != nil {
			return err
		}
		for _, provision := range provisions {
			if _, err := a.provision(ctx, provision); err != nil {
				return err
			}
		}
		a.Info(ctx, "provisioned %d user(s) from %s", len(provisions), a.config.usersFile)
	}
	return nil
}

func (a *auth) Close(ctx context.Context) error {
	return nil
}

func (a *auth) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.config.bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash password")
	}
	return string(hash), nil
}

func (a *auth) HashPassword(password string) (string, error) {
	a.RLock()
	defer a.RUnlock()
	return a.hashPassword(password)
}

func (a *auth) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	a.RLock()
	defer a.RUnlock()

	user, err := a.users.UserReadByUsername(ctx, username)
	switch {
	default:
		return nil, err
	case errors.Is(err, data.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		a.Debug(ctx, "signin failed, unknown user: %q", username)
		return nil, ErrInvalidCredentials
	case err == nil:
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.Debug(ctx, "signin failed for user %q: %s", username, err)
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		a.Debug(ctx, "signin failed, inactive user: %q", username)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

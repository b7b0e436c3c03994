package auth

import (
	"context"
	"net/http"

	"github.com/antonio-alexander/go-employee-admin/internal/data"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
)

// session returns the session of the request, a cookie that can't be decoded
// (e.g. signed with a previous key) yields a new, empty session
func (a *auth) session(r *http.Request) *sessions.Session {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		a.Debug(r.Context(), "discarding undecodable session: %s", err)
	}
	return session
}

func (a *auth) SessionUser(ctx context.Context, r *http.Request) (*data.User, error) {
	a.RLock()
	defer a.RUnlock()

	id, ok := a.session(r).Values[sessionUserId].(int64)
	if !ok {
		return nil, nil
	}
	user, err := a.users.UserRead(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.Active {
		return nil, nil
	}
	return user, nil
}

func (a *auth) EstablishSession(w http.ResponseWriter, r *http.Request, user *data.User) error {
	a.RLock()
	defer a.RUnlock()

	session := a.session(r)
	session.Values = map[any]any{sessionUserId: user.Id}
	if err := session.Save(r, w); err != nil {
		return errors.Wrap(err, "unable to save session")
	}
	return nil
}

func (a *auth) DestroySession(w http.ResponseWriter, r *http.Request) error {
	a.RLock()
	defer a.RUnlock()

	session := a.session(r)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return errors.Wrap(err, "unable to expire session")
	}
	return nil
}

func (a *auth) AddFlash(w http.ResponseWriter, r *http.Request, message data.Message) error {
	a.RLock()
	defer a.RUnlock()

	session := a.session(r)
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		return errors.Wrap(err, "unable to save flash")
	}
	return nil
}

func (a *auth) Flashes(w http.ResponseWriter, r *http.Request) []data.Message {
	a.RLock()
	defer a.RUnlock()

	session := a.session(r)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		a.Error(r.Context(), "unable to save session after reading flashes: %s", err)
	}
	messages := make([]data.Message, 0, len(flashes))
	for _, flash := range flashes {
		if message, ok := flash.(data.Message); ok {
			messages = append(messages, message)
		}
	}
	return messages
}

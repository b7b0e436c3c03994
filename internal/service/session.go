package service

import (
	"net/http"

	"github.com/antonio-alexander/go-employee-admin/internal/auth"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/pkg/errors"
)

const messageWrongCredentials string = "Wrong username or password"

func (s *service) endpointSigninForm(writer http.ResponseWriter, request *http.Request) {
	s.render(writer, request, nil, http.StatusOK, views.TemplateSignin, map[string]any{
		"next":   localNext(request.URL.Query().Get(data.ParameterNext), ""),
		"errors": data.FieldErrors{},
	})
}

func (s *service) endpointSignin(writer http.ResponseWriter, request *http.Request) {
	defer s.timer(request, "signin")()
	ctx := request.Context()
	if err := request.ParseForm(); err != nil {
		s.renderError(writer, request, nil, errors.Wrap(data.ErrBadRequest, err.Error()))
		return
	}
	username := request.PostForm.Get(data.FieldUsername)
	password := request.PostForm.Get(data.FieldPassword)
	next := localNext(request.PostForm.Get(data.ParameterNext), "")
	context := map[string]any{
		"username": username,
		"next":     next,
		"errors":   data.FieldErrors{},
	}
	fieldErrors := make(data.FieldErrors)
	if username == "" {
		fieldErrors[data.FieldUsername] = "This field is required."
	}
	if password == "" {
		fieldErrors[data.FieldPassword] = "This field is required."
	}
	if len(fieldErrors) > 0 {
		context["errors"] = fieldErrors
		s.render(writer, request, nil, http.StatusOK, views.TemplateSignin, context)
		return
	}
	user, err := s.auth.Authenticate(ctx, username, password)
	switch {
	default:
		s.renderError(writer, request, nil, err)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		context["error"] = messageWrongCredentials
		s.render(writer, request, nil, http.StatusOK, views.TemplateSignin, context)
		return
	case err == nil:
	}
	if err := s.auth.EstablishSession(writer, request, user); err != nil {
		s.renderError(writer, request, nil, err)
		return
	}
	http.Redirect(writer, request, localNext(next, data.RouteCreate), http.StatusSeeOther)
	s.Debug(ctx, "user %q signed in", user.Username)
}

func (s *service) endpointSignout(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	if err := s.auth.DestroySession(writer, request); err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	http.Redirect(writer, request, data.RouteSignin, http.StatusSeeOther)
	s.Debug(request.Context(), "user %q signed out", requester.User.Username)
}

package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/photos"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/pkg/errors"
)

var errNotFound = errors.New("page not found")

type handlerFunc func(http.ResponseWriter, *http.Request, *data.Requester)

func idFromPath(pathVariables map[string]string) (int64, error) {
	id, err := strconv.ParseInt(pathVariables[data.PathId], 10, 64)
	if err != nil {
		//a malformed id can't name an employee
		return 0, data.ErrEmployeeNotFound
	}
	return id, nil
}

// localNext returns next when it's a path on this site and fallback otherwise,
// so a signin can't be used to redirect off-site
func localNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func signinUrl(next string) string {
	return data.RouteSignin + "?" + url.Values{data.ParameterNext: {next}}.Encode()
}

// pageUrl links to a page of a listing; searches keep their (possibly empty)
// search word
func pageUrl(path string, search data.EmployeeSearch, searching bool, number int) string {
	search.Page = number
	params := search.ToParams()
	if searching {
		params.Set(data.ParameterSearchWord, search.Term)
	}
	return path + "?" + params.Encode()
}

func permissions(requester *data.Requester) map[string]bool {
	perms := make(map[string]bool)
	if requester == nil {
		return perms
	}
	for permission, ok := range requester.Permissions {
		perms[string(permission)] = ok
	}
	return perms
}

func (s *service) middlewareRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		correlationId := internal.CorrelationIdFromRequest(request)
		ctx := internal.CtxWithCorrelationId(request.Context(), correlationId)
		writer.Header().Set(internal.HeaderCorrelationId, correlationId)
		if s.config.maxRequestBytes > 0 && request.Body != nil {
			request.Body = http.MaxBytesReader(writer, request.Body, s.config.maxRequestBytes)
		}
		s.Debug(ctx, "%s %s", request.Method, request.URL.RequestURI())
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// gate resolves the requester from the session; anonymous requests are sent
// to signin and requests lacking the permission are refused. An empty
// permission only requires a signed in user.
func (s *service) gate(permission data.Permission, next handlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		user, err := s.auth.SessionUser(ctx, request)
		if err != nil {
			s.renderError(writer, request, nil, err)
			return
		}
		if user == nil {
			http.Redirect(writer, request, signinUrl(request.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		requester := data.NewRequester(user)
		if permission != "" && !requester.HasPermission(permission) {
			s.Debug(ctx, "user %q lacks permission %s", user.Username, permission)
			s.renderError(writer, request, requester, data.ErrForbidden)
			return
		}
		next(writer, request, requester)
	}
}

func (s *service) gateSuperuser(next http.HandlerFunc) http.HandlerFunc {
	return s.gate("", func(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
		if !requester.Superuser() {
			handleResponse(writer, data.ErrForbidden, nil)
			return
		}
		next(writer, request)
	})
}

// timer starts a timer for group, the returned function stops it
func (s *service) timer(request *http.Request, group string) func() {
	index := s.Start(group)
	return func() {
		if elapsedTime := s.Stop(group, index); elapsedTime >= 0 {
			s.Trace(request.Context(), "%s took %v", group,
				time.Duration(elapsedTime)*time.Nanosecond)
		}
	}
}

func (s *service) render(writer http.ResponseWriter, request *http.Request, requester *data.Requester, status int, name string, context map[string]any) {
	ctx := request.Context()
	page := map[string]any{
		"perms":    permissions(requester),
		"messages": s.auth.Flashes(writer, request),
	}
	if requester.Authenticated() {
		page["user"] = requester.User
	}
	for key, value := range context {
		page[key] = value
	}
	buffer := &bytes.Buffer{}
	if err := s.views.Render(buffer, name, page); err != nil {
		s.Error(ctx, "error while rendering %s: %s", name, err)
		http.Error(writer, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	if _, err := buffer.WriteTo(writer); err != nil {
		s.Error(ctx, "error while writing %s: %s", name, err)
	}
}

func errorStatus(err error) (int, string) {
	var maxBytesError *http.MaxBytesError

	switch {
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again later."
	case errors.Is(err, data.ErrEmployeeNotFound),
		errors.Is(err, photos.ErrPhotoNotFound),
		errors.Is(err, errNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, data.ErrForbidden):
		return http.StatusForbidden, "You do not have permission to perform this action."
	case errors.Is(err, data.ErrMutateDisabled):
		return http.StatusForbidden, "Changes to employees are currently disabled."
	case errors.As(err, &maxBytesError):
		return http.StatusRequestEntityTooLarge, "The submitted request is too large."
	case errors.Is(err, data.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	}
}

func (s *service) renderError(writer http.ResponseWriter, request *http.Request, requester *data.Requester, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.Error(request.Context(), "error while handling %s %s: %s",
			request.Method, request.URL.Path, err)
	}
	s.render(writer, request, requester, status, views.TemplateError, map[string]any{
		"status":  status,
		"title":   http.StatusText(status),
		"message": message,
	})
}

func (s *service) flash(writer http.ResponseWriter, request *http.Request, level data.MessageLevel, text string) {
	if err := s.auth.AddFlash(writer, request, data.Message{Level: level, Text: text}); err != nil {
		s.Error(request.Context(), "error while adding flash: %s", err)
	}
}

func handleResponse(writer http.ResponseWriter, err error, item any) {
	var bytes []byte

	if err == nil {
		if item == nil {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		bytes, err = json.Marshal(item)
	}
	if err != nil {
		var e struct {
			Error string `json:"error"`
		}

		status, _ := errorStatus(err)
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(status)
		e.Error = err.Error()
		bytes, err = json.Marshal(&e)
		if err != nil {
			fmt.Printf("error handling response: %s\n", err)
			return
		}
		if _, err := writer.Write(bytes); err != nil {
			fmt.Printf("error handling response: %s\n", err)
		}
		return
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := writer.Write(bytes); err != nil {
		fmt.Printf("error handling response: %s\n", err)
	}
}

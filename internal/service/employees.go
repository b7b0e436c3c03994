package service

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const maxMultipartMemory int64 = 1 << 20

var errSearchWordMissing = errors.Wrap(data.ErrBadRequest, "the search_word parameter is required")

// parseEmployeeForm reads the submitted form and stores an uploaded photo;
// the returned photo name is empty when nothing was uploaded
func (s *service) parseEmployeeForm(request *http.Request) (data.EmployeeForm, string, data.FieldErrors, error) {
	var form data.EmployeeForm

	if err := request.ParseMultipartForm(maxMultipartMemory); err != nil &&
		!errors.Is(err, http.ErrNotMultipart) {
		return form, "", nil, errors.Wrap(err, "unable to parse form")
	}
	if request.MultipartForm != nil {
		defer func() { _ = request.MultipartForm.RemoveAll() }()
	}
	form.FromValues(request.PostForm)
	fieldErrors := make(data.FieldErrors)
	file, _, err := request.FormFile(data.FieldPhoto)
	switch {
	default:
		return form, "", nil, errors.Wrap(err, "unable to read photo")
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, "", fieldErrors, nil
	case err == nil:
	}
	defer func(file multipart.File) { _ = file.Close() }(file)
	photo, err := s.photos.Save(request.Context(), file)
	if err != nil {
		var photoErrors data.FieldErrors

		if !errors.As(err, &photoErrors) {
			return form, "", nil, err
		}
		for field, message := range photoErrors {
			fieldErrors[field] = message
		}
	}
	return form, photo, fieldErrors, nil
}

// validate merges the field errors of the form with those found while
// parsing it
func validate(form data.EmployeeForm, fieldErrors data.FieldErrors) (data.Employee, data.FieldErrors) {
	employee, validationErrors := data.ValidateEmployee(form)
	for field, message := range validationErrors {
		fieldErrors[field] = message
	}
	if len(fieldErrors) > 0 {
		return data.Employee{}, fieldErrors
	}
	return employee, nil
}

func (s *service) discardPhoto(request *http.Request, photo string) {
	if photo == "" {
		return
	}
	if err := s.photos.Delete(request.Context(), photo); err != nil {
		s.Error(request.Context(), "error while deleting photo %s: %s", photo, err)
	}
}

func (s *service) endpointEmployeeForm(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	s.render(writer, request, requester, http.StatusOK, views.TemplateCreate, map[string]any{
		"form":   data.EmployeeForm{},
		"errors": data.FieldErrors{},
	})
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employee_create")()
	ctx := request.Context()
	form, photo, fieldErrors, err := s.parseEmployeeForm(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	form.Photo = photo
	employee, fieldErrors := validate(form, fieldErrors)
	if len(fieldErrors) == 0 {
		var employeeCreated *data.Employee

		if employeeCreated, err = s.EmployeeCreate(ctx, employee); err == nil {
			s.flash(writer, request, data.MessageInfo, "Employee was saved")
			http.Redirect(writer, request, data.RouteCreate, http.StatusSeeOther)
			s.Trace(ctx, "executed employee_create: %d", employeeCreated.Id)
			return
		}
		if !errors.As(err, &fieldErrors) {
			s.discardPhoto(request, photo)
			s.renderError(writer, request, requester, err)
			return
		}
	}
	s.discardPhoto(request, photo)
	form.Photo = ""
	s.render(writer, request, requester, http.StatusOK, views.TemplateCreate, map[string]any{
		"form":   form,
		"errors": fieldErrors,
	})
}

func (s *service) employeesPage(writer http.ResponseWriter, request *http.Request, requester *data.Requester, searching bool) {
	var search data.EmployeeSearch
	var page *data.EmployeePage
	var err error

	ctx := request.Context()
	params := request.URL.Query()
	search.FromParams(params)
	path := data.RouteAll
	if searching {
		if _, ok := params[data.ParameterSearchWord]; !ok {
			s.renderError(writer, request, requester, errSearchWordMissing)
			return
		}
		path = data.RouteSearch
		page, err = s.EmployeesSearch(ctx, search)
	} else {
		search.Term = ""
		page, err = s.EmployeesList(ctx, search)
	}
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	context := map[string]any{
		"employees":   page.Employees,
		"page":        page,
		"searching":   searching,
		"search_word": search.Term,
		"action":      path,
	}
	if search.Disabled != nil {
		context["disabled"] = strconv.FormatBool(*search.Disabled)
	}
	if page.HasPrevious() {
		context["first_url"] = pageUrl(path, search, searching, 1)
		context["previous_url"] = pageUrl(path, search, searching, page.PreviousPageNumber())
	}
	if page.HasNext() {
		context["next_url"] = pageUrl(path, search, searching, page.NextPageNumber())
		context["last_url"] = pageUrl(path, search, searching, page.NumPages)
	}
	s.render(writer, request, requester, http.StatusOK, views.TemplateList, context)
}

func (s *service) endpointEmployeesList(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employees_list")()
	s.employeesPage(writer, request, requester, false)
}

func (s *service) endpointEmployeesSearch(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employees_search")()
	s.employeesPage(writer, request, requester, true)
}

func (s *service) employeeFromPath(request *http.Request) (*data.Employee, error) {
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		return nil, err
	}
	return s.EmployeeRead(request.Context(), id)
}

func (s *service) endpointEmployeeDetails(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employee_read")()
	employee, err := s.employeeFromPath(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	s.render(writer, request, requester, http.StatusOK, views.TemplateDetails, map[string]any{
		"employee": employee,
	})
}

func (s *service) endpointEmployeeUpdateForm(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	employee, err := s.employeeFromPath(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	s.render(writer, request, requester, http.StatusOK, views.TemplateUpdate, map[string]any{
		"employee": employee,
		"form":     employee.Form(),
		"errors":   data.FieldErrors{},
	})
}

func (s *service) endpointEmployeeUpdate(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employee_update")()
	ctx := request.Context()
	employee, err := s.employeeFromPath(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	form, photo, fieldErrors, err := s.parseEmployeeForm(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	switch {
	case photo != "":
		form.Photo = photo
	case data.ParseCheckbox(request.PostForm.Get(data.FieldPhotoClear)):
		form.Photo = ""
	default:
		form.Photo = employee.Photo
	}
	employeeUpdate, fieldErrors := validate(form, fieldErrors)
	if len(fieldErrors) == 0 {
		var employeeUpdated *data.Employee

		if employeeUpdated, err = s.EmployeeUpdate(ctx, employee.Id, employeeUpdate); err == nil {
			if employee.Photo != employeeUpdated.Photo {
				s.discardPhoto(request, employee.Photo)
			}
			s.flash(writer, request, data.MessageSuccess, "Employee Updated Successfully")
			http.Redirect(writer, request, fmt.Sprintf(data.RouteDetailsf, employee.Id), http.StatusSeeOther)
			s.Trace(ctx, "executed employee_update: %d", employee.Id)
			return
		}
		if !errors.As(err, &fieldErrors) {
			s.discardPhoto(request, photo)
			s.renderError(writer, request, requester, err)
			return
		}
	}
	s.discardPhoto(request, photo)
	form.Photo = employee.Photo
	s.render(writer, request, requester, http.StatusOK, views.TemplateUpdate, map[string]any{
		"employee": employee,
		"form":     form,
		"errors":   fieldErrors,
	})
}

func (s *service) endpointEmployeeDeleteConfirm(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	employee, err := s.employeeFromPath(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	s.render(writer, request, requester, http.StatusOK, views.TemplateDelete, map[string]any{
		"employee": employee,
	})
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	defer s.timer(request, "employee_delete")()
	ctx := request.Context()
	employee, err := s.employeeFromPath(request)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	if err := s.EmployeeDelete(ctx, employee.Id); err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	s.discardPhoto(request, employee.Photo)
	s.flash(writer, request, data.MessageWarning, "This Employee was deleted permanently")
	http.Redirect(writer, request, data.RouteAll, http.StatusSeeOther)
	s.Trace(ctx, "executed employee_delete: %d", employee.Id)
}

func (s *service) endpointMedia(writer http.ResponseWriter, request *http.Request, requester *data.Requester) {
	name := mux.Vars(request)[data.PathPhoto]
	file, err := s.photos.Read(name)
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.renderError(writer, request, requester, err)
		return
	}
	writer.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(writer, request, name, info.ModTime(), file)
}

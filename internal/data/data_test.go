package data_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal/data"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmployee(t *testing.T) {
	valid := data.EmployeeForm{
		Name:   "Asha Kim",
		Email:  "asha@x.com",
		Dob:    "1990-04-12",
		Salary: "50000",
	}
	tomorrow := time.Now().UTC().Add(48 * time.Hour).Format(data.DateLayout)
	cases := map[string]struct {
		mutate func(f *data.EmployeeForm)
		fields []string
	}{
		"valid":              {mutate: func(f *data.EmployeeForm) {}},
		"trimmed":            {mutate: func(f *data.EmployeeForm) { f.Name = "  Asha Kim  " }},
		"cents":              {mutate: func(f *data.EmployeeForm) { f.Salary = "50000.25" }},
		"missing_name":       {mutate: func(f *data.EmployeeForm) { f.Name = " " }, fields: []string{data.FieldName}},
		"long_name":          {mutate: func(f *data.EmployeeForm) { f.Name = strings.Repeat("a", 101) }, fields: []string{data.FieldName}},
		"missing_email":      {mutate: func(f *data.EmployeeForm) { f.Email = "" }, fields: []string{data.FieldEmail}},
		"invalid_email":      {mutate: func(f *data.EmployeeForm) { f.Email = "asha-at-x" }, fields: []string{data.FieldEmail}},
		"invalid_dob":        {mutate: func(f *data.EmployeeForm) { f.Dob = "12/04/1990" }, fields: []string{data.FieldDob}},
		"future_dob":         {mutate: func(f *data.EmployeeForm) { f.Dob = tomorrow }, fields: []string{data.FieldDob}},
		"ancient_dob":        {mutate: func(f *data.EmployeeForm) { f.Dob = "1850-01-01" }, fields: []string{data.FieldDob}},
		"negative_salary":    {mutate: func(f *data.EmployeeForm) { f.Salary = "-1" }, fields: []string{data.FieldSalary}},
		"three_decimals":     {mutate: func(f *data.EmployeeForm) { f.Salary = "1.234" }, fields: []string{data.FieldSalary}},
		"missing_salary":     {mutate: func(f *data.EmployeeForm) { f.Salary = "" }, fields: []string{data.FieldSalary}},
		"everything_missing": {mutate: func(f *data.EmployeeForm) { *f = data.EmployeeForm{} }, fields: []string{data.FieldName, data.FieldEmail, data.FieldDob, data.FieldSalary}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			form := valid
			c.mutate(&form)
			employee, fieldErrors := data.ValidateEmployee(form)
			if len(c.fields) == 0 {
				assert.Empty(t, fieldErrors)
				assert.Equal(t, "Asha Kim", employee.Name)
				assert.Equal(t, "asha@x.com", employee.Email)
				assert.Equal(t, "1990-04-12", employee.Dob.Format(data.DateLayout))
				return
			}
			assert.Len(t, fieldErrors, len(c.fields))
			for _, field := range c.fields {
				assert.Contains(t, fieldErrors, field)
			}
			assert.Equal(t, data.Employee{}, employee)
		})
	}
}

func TestEmployeeFormRoundTrip(t *testing.T) {
	employee, fieldErrors := data.ValidateEmployee(data.EmployeeForm{
		Name:     "Asha Kim",
		Email:    "asha@x.com",
		Photo:    "photo.png",
		Dob:      "1990-04-12",
		Salary:   "50000.5",
		Disabled: true,
	})
	assert.Empty(t, fieldErrors)
	assert.Equal(t, data.EmployeeForm{
		Name:     "Asha Kim",
		Email:    "asha@x.com",
		Photo:    "photo.png",
		Dob:      "1990-04-12",
		Salary:   "50000.50",
		Disabled: true,
	}, employee.Form())
}

func TestFieldErrorsError(t *testing.T) {
	err := data.FieldErrors{"salary": "bad", "email": "taken"}
	assert.Equal(t, "validation failed: email: taken; salary: bad", err.Error())
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		count, page, pageSize    int
		number, numPages, offset int
	}{
		{count: 0, page: 1, pageSize: 20, number: 1, numPages: 1, offset: 0},
		{count: 45, page: 2, pageSize: 20, number: 2, numPages: 3, offset: 20},
		{count: 45, page: 0, pageSize: 20, number: 1, numPages: 3, offset: 0},
		{count: 45, page: -3, pageSize: 20, number: 1, numPages: 3, offset: 0},
		{count: 45, page: 9, pageSize: 20, number: 3, numPages: 3, offset: 40},
		{count: 40, page: 2, pageSize: 20, number: 2, numPages: 2, offset: 20},
		{count: 5, page: 1, pageSize: 0, number: 1, numPages: 1, offset: 0},
	}
	for _, c := range cases {
		number, numPages, offset := data.Paginate(c.count, c.page, c.pageSize)
		assert.Equal(t, c.number, number)
		assert.Equal(t, c.numPages, numPages)
		assert.Equal(t, c.offset, offset)
	}
}

func TestEmployeeSearchParams(t *testing.T) {
	var search data.EmployeeSearch

	search.FromParams(url.Values{
		data.ParameterSearchWord: {" asha "},
		data.ParameterPage:       {"3"},
		data.ParameterDisabled:   {"false"},
	})
	assert.Equal(t, "asha", search.Term)
	assert.Equal(t, 3, search.Page)
	if assert.NotNil(t, search.Disabled) {
		assert.False(t, *search.Disabled)
	}
	assert.Equal(t, "asha", search.ToParams().Get(data.ParameterSearchWord))

	search = data.EmployeeSearch{}
	search.FromParams(url.Values{
		data.ParameterPage:     {"last"},
		data.ParameterDisabled: {"maybe"},
	})
	assert.Zero(t, search.Page)
	assert.Nil(t, search.Disabled)
}

func TestPermissions(t *testing.T) {
	permission, ok := data.ParsePermission("main_app.view_employee")
	assert.True(t, ok)
	assert.Equal(t, data.PermissionView, permission)
	_, ok = data.ParsePermission("view_department")
	assert.False(t, ok)

	viewer := &data.User{Active: true, Permissions: []data.Permission{data.PermissionView}}
	assert.True(t, viewer.HasPermission(data.PermissionView))
	assert.False(t, viewer.HasPermission(data.PermissionDelete))

	superuser := &data.User{Active: true, Superuser: true}
	for _, permission := range data.Permissions {
		assert.True(t, superuser.HasPermission(permission))
	}

	inactive := &data.User{Superuser: true}
	assert.False(t, inactive.HasPermission(data.PermissionView))

	requester := data.NewRequester(viewer)
	assert.True(t, requester.Authenticated())
	assert.True(t, requester.HasPermission(data.PermissionView))
	assert.False(t, requester.HasPermission(data.PermissionAdd))
	assert.False(t, requester.Superuser())

	anonymous := data.NewRequester(nil)
	assert.False(t, anonymous.Authenticated())
	assert.False(t, anonymous.HasPermission(data.PermissionView))
}

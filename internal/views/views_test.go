package views_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViews(t *testing.T) views.Views {
	v := views.NewViews()
	require.Nil(t, v.Configure(map[string]string{}))
	require.Nil(t, v.Open(context.TODO()))
	return v
}

func render(t *testing.T, v views.Views, name string, context map[string]any) string {
	buffer := &bytes.Buffer{}
	err := v.Render(buffer, name, context)
	require.Nil(t, err)
	return buffer.String()
}

func TestViews(t *testing.T) {
	v := newViews(t)
	user := &data.User{Id: 1, Username: "clerk", Active: true}
	employee := &data.Employee{
		Id:     7,
		Name:   "Asha <Kim>",
		Email:  "asha@x.com",
		Photo:  "c0ffee00-0000-4000-8000-000000000000.png",
		Dob:    time.Date(1990, time.April, 12, 0, 0, 0, 0, time.UTC),
		Salary: 50000,
	}

	t.Run("create", func(t *testing.T) {
		out := render(t, v, views.TemplateCreate, map[string]any{
			"user":   user,
			"perms":  map[string]bool{"add_employee": true},
			"form":   data.EmployeeForm{Name: "Asha", Salary: "abc"},
			"errors": data.FieldErrors{data.FieldSalary: "Enter a non-negative amount"},
			"messages": []data.Message{
				{Level: data.MessageInfo, Text: "Employee was saved"},
			},
		})
		assert.Contains(t, out, `value="Asha"`)
		assert.Contains(t, out, "Enter a non-negative amount")
		assert.Contains(t, out, "Employee was saved")
		assert.Contains(t, out, `href="/"`)
		assert.NotContains(t, out, `href="/all"`)
		assert.Contains(t, out, "clerk")
	})

	t.Run("list", func(t *testing.T) {
		out := render(t, v, views.TemplateList, map[string]any{
			"user":      user,
			"perms":     map[string]bool{"view_employee": true},
			"employees": []*data.Employee{employee},
			"page":      &data.EmployeePage{Number: 2, NumPages: 3, Count: 45, PageSize: 20},
			"action":    "/all",
			"next_url":  "/all?page=3",
			"last_url":  "/all?page=3",
		})
		assert.Contains(t, out, "Asha &lt;Kim&gt;")
		assert.Contains(t, out, "1990-04-12")
		assert.Contains(t, out, "50000.00")
		assert.Contains(t, out, "Page 2 of 3")
		assert.Contains(t, out, `href="/all?page=3"`)
		assert.NotContains(t, out, "previous")
	})

	t.Run("list_empty", func(t *testing.T) {
		out := render(t, v, views.TemplateList, map[string]any{
			"user":        user,
			"employees":   []*data.Employee{},
			"page":        &data.EmployeePage{Number: 1, NumPages: 1},
			"searching":   true,
			"search_word": "zzz",
			"action":      "/search",
		})
		assert.Contains(t, out, "No employees found.")
		assert.Contains(t, out, `Results for "zzz"`)
	})

	t.Run("details", func(t *testing.T) {
		out := render(t, v, views.TemplateDetails, map[string]any{
			"user":     user,
			"perms":    map[string]bool{"view_employee": true, "change_employee": true},
			"employee": employee,
		})
		assert.Contains(t, out, `src="/media/c0ffee00-0000-4000-8000-000000000000.png"`)
		assert.Contains(t, out, `href="/update/7"`)
		assert.NotContains(t, out, `href="/delete/7"`)
	})

	t.Run("update", func(t *testing.T) {
		out := render(t, v, views.TemplateUpdate, map[string]any{
			"user":     user,
			"employee": employee,
			"form":     employee.Form(),
			"errors":   data.FieldErrors{},
		})
		assert.Contains(t, out, `action="/update/7"`)
		assert.Contains(t, out, `value="1990-04-12"`)
		assert.Contains(t, out, `value="50000.00"`)
		assert.Contains(t, out, `name="photo-clear"`)
	})

	t.Run("delete", func(t *testing.T) {
		out := render(t, v, views.TemplateDelete, map[string]any{
			"user":     user,
			"employee": employee,
		})
		assert.Contains(t, out, `action="/delete/7" method="post"`)
	})

	t.Run("signin", func(t *testing.T) {
		out := render(t, v, views.TemplateSignin, map[string]any{
			"username": "clerk",
			"next":     "/all",
			"error":    "Wrong username or password",
		})
		assert.Contains(t, out, "Wrong username or password")
		assert.Contains(t, out, `value="/all"`)
		assert.NotContains(t, out, "Sign out")
	})

	t.Run("error", func(t *testing.T) {
		out := render(t, v, views.TemplateError, map[string]any{
			"status":  404,
			"title":   "Not Found",
			"message": "employee not found",
		})
		assert.Contains(t, out, "404 Not Found")
		assert.Contains(t, out, "employee not found")
	})
}

func TestViewsEmbeddedLayout(t *testing.T) {
	v := newViews(t)
	out := render(t, v, views.TemplateUpdate, map[string]any{
		"form": data.EmployeeForm{Name: "Asha"},
	})
	// layout comes from the extended base and the fields from the include
	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, `name="dob"`)
	assert.Contains(t, out, `value="Asha"`)
}

func TestViewsUnknownTemplate(t *testing.T) {
	v := newViews(t)
	err := v.Render(&bytes.Buffer{}, "missing.html", nil)
	assert.NotNil(t, err)
}

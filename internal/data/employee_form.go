package data

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	NameMaxLength  int = 100
	EmailMaxLength int = 254
)

var (
	regexEmail  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	regexSalary = regexp.MustCompile(`^[0-9]{1,10}(\.[0-9]{1,2})?$`)
	dobMinimum  = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// FieldErrors maps a form field name to a message describing why its value
// was rejected; it doubles as the validation error returned by the gateway.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, field+": "+f[field])
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// EmployeeForm holds the raw submitted values of the employee form. Photo is
// the reference of an already stored file.
type EmployeeForm struct {
	Name     string
	Email    string
	Photo    string
	Dob      string
	Salary   string
	Disabled bool
}

func (f *EmployeeForm) FromValues(values url.Values) {
	f.Name = values.Get(FieldName)
	f.Email = values.Get(FieldEmail)
	f.Dob = values.Get(FieldDob)
	f.Salary = values.Get(FieldSalary)
	f.Disabled = ParseCheckbox(values.Get(FieldDisabled))
}

// ParseCheckbox interprets an html checkbox value; browsers send "on" and
// omit the field when unchecked.
func ParseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func FormatSalary(salary float64) string {
	return strconv.FormatFloat(salary, 'f', 2, 64)
}

// ValidateEmployee checks every field of the form and either returns the
// employee it describes or the complete set of field errors, never both.
func ValidateEmployee(form EmployeeForm) (Employee, FieldErrors) {
	var employee Employee

	fieldErrors := make(FieldErrors)
	employee.Name = strings.TrimSpace(form.Name)
	switch {
	case employee.Name == "":
		fieldErrors[FieldName] = "This field is required."
	case utf8.RuneCountInString(employee.Name) > NameMaxLength:
		fieldErrors[FieldName] = "Ensure this value has at most " +
			strconv.Itoa(NameMaxLength) + " characters."
	}
	employee.Email = strings.TrimSpace(form.Email)
	switch {
	case employee.Email == "":
		fieldErrors[FieldEmail] = "This field is required."
	case len(employee.Email) > EmailMaxLength:
		fieldErrors[FieldEmail] = "Ensure this value has at most " +
			strconv.Itoa(EmailMaxLength) + " characters."
	case !regexEmail.MatchString(employee.Email):
		fieldErrors[FieldEmail] = "Enter a valid email address."
	}
	if dob := strings.TrimSpace(form.Dob); dob == "" {
		fieldErrors[FieldDob] = "This field is required."
	} else {
		t, err := time.ParseInLocation(DateLayout, dob, time.UTC)
		switch {
		case err != nil:
			fieldErrors[FieldDob] = "Enter a valid date."
		case t.Before(dobMinimum):
			fieldErrors[FieldDob] = "Enter a date on or after 1900-01-01."
		case t.After(time.Now().UTC()):
			fieldErrors[FieldDob] = "Date of birth cannot be in the future."
		default:
			employee.Dob = t
		}
	}
	if salary := strings.TrimSpace(form.Salary); salary == "" {
		fieldErrors[FieldSalary] = "This field is required."
	} else if !regexSalary.MatchString(salary) {
		fieldErrors[FieldSalary] = "Enter a non-negative amount with at most two decimal places."
	} else {
		employee.Salary, _ = strconv.ParseFloat(salary, 64)
	}
	employee.Photo = form.Photo
	employee.Disabled = form.Disabled
	if len(fieldErrors) > 0 {
		return Employee{}, fieldErrors
	}
	return employee, nil
}

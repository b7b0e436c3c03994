package data

import (
	"encoding/json"
	"time"
)

type Employee struct {
	Id       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Photo    string    `json:"photo,omitempty"` //stored file name, empty when no photo
	Dob      time.Time `json:"dob"`
	Salary   float64   `json:"salary"`
	Disabled bool      `json:"disabled"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

// Form returns the raw form values that would reproduce the employee, used to
// pre-populate the update form.
func (e *Employee) Form() EmployeeForm {
	return EmployeeForm{
		Name:     e.Name,
		Email:    e.Email,
		Photo:    e.Photo,
		Dob:      e.Dob.Format(DateLayout),
		Salary:   FormatSalary(e.Salary),
		Disabled: e.Disabled,
	}
}

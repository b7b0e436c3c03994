package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/antonio-alexander/go-employee-admin/internal/data"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func errEmailTaken() error {
	return data.FieldErrors{data.FieldEmail: "Employee with this Email already exists."}
}

// employeeCriteria matches the term as a case-insensitive substring of name
// or email; LIKE wildcards in the term are matched literally. Both sides are
// folded by the same database function.
func (d dialect) employeeCriteria(search data.EmployeeSearch) (string, []any) {
	var args []any
	var criteria []string

	if term := search.Term; term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		criteria = append(criteria, fmt.Sprintf(
			"(%[1]s(name) LIKE %[1]s(?) ESCAPE '!' OR %[1]s(email) LIKE %[1]s(?) ESCAPE '!')",
			d.lower))
		args = append(args, pattern, pattern)
	}
	if search.Disabled != nil {
		criteria = append(criteria, "disabled = ?")
		args = append(args, *search.Disabled)
	}
	if len(criteria) <= 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(criteria, " AND "), args
}

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&employee.Name,
		&employee.Email,
		&employee.Photo,
		&employee.Dob,
		&employee.Salary,
		&employee.Disabled,
	); err != nil {
		return nil, err
	}
	employee.Dob = employee.Dob.UTC()
	return employee, nil
}

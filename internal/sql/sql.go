package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

const (
	tableEmployees       = "employees"
	tableUsers           = "users"
	tableUserPermissions = "user_permissions"
)

const employeeColumns = "id, name, email, photo, dob, salary, disabled"

// Sql is the persistence gateway, the only writer of employee records.
type Sql interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesPage(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error)
	EmployeeUpdate(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
	Users
}

type Users interface {
	UserRead(ctx context.Context, id int64) (*data.User, error)
	UserReadByUsername(ctx context.Context, username string) (*data.User, error)
	UserWrite(ctx context.Context, user data.User) (*data.User, error)
}

type config struct {
	Hostname       string        `json:"hostname"`
	Port           string        `json:"port"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	Database       string        `json:"database"`
	File           string        `json:"file"`
	SslMode        string        `json:"ssl_mode"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	QueryTimeout   time.Duration `json:"query_timeout"`
	CreateTables   bool          `json:"create_tables"`
}

type sqlDb struct {
	sync.RWMutex
	dialect
	config config
	*sql.DB
	utilities.Logger
	opened bool
}

func newSql(d dialect, parameters ...any) *sqlDb {
	s := &sqlDb{
		dialect: d,
		Logger:  utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		}
	}
	return s
}

func NewMySql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	return newSql(dialectMysql, parameters...)
}

func NewPostgres(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	return newSql(dialectPostgres, parameters...)
}

func NewSqlite(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	return newSql(dialectSqlite, parameters...)
}

// New creates the gateway for the named driver (mysql, postgres or sqlite).
func New(driver string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	Sql
}, error) {
	switch driver {
	default:
		return nil, errors.Errorf("unsupported database driver: %q", driver)
	case DriverMysql:
		return NewMySql(parameters...), nil
	case DriverPostgres:
		return NewPostgres(parameters...), nil
	case DriverSqlite, "":
		return NewSqlite(parameters...), nil
	}
}

func (s *sqlDb) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	s.config.ConnectTimeout = 30 * time.Second
	s.config.CreateTables = s.dialect.name == DriverSqlite
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if file := envs["DATABASE_FILE"]; file != "" {
		s.config.File = file
	}
	if sslMode := envs["DATABASE_SSL_MODE"]; sslMode != "" {
		s.config.SslMode = sslMode
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_CONNECT_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_CONNECT_TIMEOUT"], 10, 64)
		s.config.ConnectTimeout = time.Duration(i) * time.Second
	}
	if createTables, ok := envs["DATABASE_CREATE_TABLES"]; ok {
		s.config.CreateTables, _ = strconv.ParseBool(createTables)
	}
	return nil
}

func (s *sqlDb) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	dataSourceName := s.dialect.dataSourceName(s.config)
	retryOptions := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
	}
	if s.config.ConnectTimeout > 0 {
		retryOptions = append(retryOptions,
			backoff.WithMaxElapsedTime(s.config.ConnectTimeout))
	} else {
		retryOptions = append(retryOptions, backoff.WithMaxTries(1))
	}
	db, err := backoff.Retry(ctx, func() (*sql.DB, error) {
		db, err := sql.Open(s.dialect.driverName, dataSourceName)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if s.dialect.maxOpenConns > 0 {
			db.SetMaxOpenConns(s.dialect.maxOpenConns)
		}
		if err := db.PingContext(ctx); err != nil {
			s.Debug(ctx, "unable to reach %s database, retrying: %s", s.dialect.name, err)
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}, retryOptions...)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s database", s.dialect.name)
	}
	if s.config.CreateTables {
		for _, statement := range s.dialect.schema {
			if _, err := db.ExecContext(ctx, statement); err != nil {
				_ = db.Close()
				return errors.Wrap(err, "unable to create tables")
			}
		}
	}
	s.DB = db
	s.opened = true
	s.Info(ctx, "opened %s database", s.dialect.name)
	return nil
}

func (s *sqlDb) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

// queryContext applies the configured query timeout
func (s *sqlDb) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// withTx runs fx in a transaction, committing only if fx succeeds
func (s *sqlDb) withTx(ctx context.Context, fx func(tx *sql.Tx) error) error {
	tx, err := s.BeginTx(ctx, &sql.TxOptions{Isolation: s.dialect.isolation})
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	if err := fx(tx); err != nil {
		if err := tx.Rollback(); err != nil {
			s.Error(ctx, "error while rolling back transaction: %s", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit transaction")
	}
	return nil
}

func (s *sqlDb) insert(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	if s.dialect.returningId {
		var id int64

		row := tx.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := tx.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// checkEmail reports a field error when another employee already uses email
func (s *sqlDb) checkEmail(ctx context.Context, tx *sql.Tx, email string, id int64) error {
	var count int

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %[2]s(email) = %[2]s(?) AND id <> ?;`,
		tableEmployees, s.dialect.lower)
	if err := tx.QueryRowContext(ctx, s.rebind(query), email, id).Scan(&count); err != nil {
		return errors.Wrap(err, "unable to check email")
	}
	if count > 0 {
		return errEmailTaken()
	}
	return nil
}

func (s *sqlDb) mutationError(err error, message string) error {
	if s.dialect.isUniqueViolation(err) {
		return errEmailTaken()
	}
	return errors.Wrap(err, message)
}

func (s *sqlDb) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	var employeeCreated *data.Employee

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkEmail(ctx, tx, employee.Email, 0); err != nil {
			return err
		}
		query := fmt.Sprintf(`INSERT INTO %s (name, email, photo, dob, salary, disabled)
			VALUES (?, ?, ?, ?, ?, ?)`, tableEmployees)
		id, err := s.insert(ctx, tx, query, employee.Name, employee.Email,
			employee.Photo, employee.Dob, employee.Salary, employee.Disabled)
		if err != nil {
			return s.mutationError(err, "unable to create employee")
		}
		if employeeCreated, err = s.employeeRead(ctx, tx, id); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}
	s.Trace(ctx, "created employee: %d", employeeCreated.Id)
	return employeeCreated, nil
}

func (s *sqlDb) employeeRead(ctx context.Context, q queryer, id int64) (*data.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?;`,
		employeeColumns, tableEmployees)
	row := q.QueryRowContext(ctx, s.rebind(query), id)
	employee, err := employeeScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrEmployeeNotFound
		}
		return nil, errors.Wrapf(err, "unable to read employee %d", id)
	}
	return employee, nil
}

func (s *sqlDb) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	return s.employeeRead(ctx, s.DB, id)
}

func (s *sqlDb) EmployeesPage(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error) {
	page := &data.EmployeePage{
		Employees: []*data.Employee{},
		PageSize:  search.PageSize,
	}
	if page.PageSize <= 0 {
		page.PageSize = data.DefaultPageSize
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	criteria, args := s.dialect.employeeCriteria(search)
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		var offset int

		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s;`, tableEmployees, criteria)
		if err := tx.QueryRowContext(ctx, s.rebind(query), args...).Scan(&page.Count); err != nil {
			return errors.Wrap(err, "unable to count employees")
		}
		page.Number, page.NumPages, offset = data.Paginate(page.Count, search.Page, page.PageSize)
		query = fmt.Sprintf(`SELECT %s FROM %s %s
			ORDER BY salary ASC, id ASC LIMIT ? OFFSET ?;`,
			employeeColumns, tableEmployees, criteria)
		rows, err := tx.QueryContext(ctx, s.rebind(query),
			append(args, page.PageSize, offset)...)
		if err != nil {
			return errors.Wrap(err, "unable to search employees")
		}
		defer rows.Close()
		for rows.Next() {
			employee, err := employeeScan(rows.Scan)
			if err != nil {
				return errors.Wrap(err, "unable to scan employee")
			}
			page.Employees = append(page.Employees, employee)
		}
		return rows.Err()
	}); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *sqlDb) EmployeeUpdate(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	var employeeUpdated *data.Employee

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.employeeRead(ctx, tx, id); err != nil {
			return err
		}
		if err := s.checkEmail(ctx, tx, employee.Email, id); err != nil {
			return err
		}
		query := fmt.Sprintf(`UPDATE %s SET name = ?, email = ?, photo = ?,
			dob = ?, salary = ?, disabled = ? WHERE id = ?;`, tableEmployees)
		if _, err := tx.ExecContext(ctx, s.rebind(query), employee.Name,
			employee.Email, employee.Photo, employee.Dob, employee.Salary,
			employee.Disabled, id); err != nil {
			return s.mutationError(err, "unable to update employee")
		}
		updated, err := s.employeeRead(ctx, tx, id)
		if err != nil {
			return err
		}
		employeeUpdated = updated
		return nil
	}); err != nil {
		return nil, err
	}
	s.Trace(ctx, "updated employee: %d", id)
	return employeeUpdated, nil
}

func (s *sqlDb) EmployeeDelete(ctx context.Context, id int64) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, tableEmployees)
		result, err := tx.ExecContext(ctx, s.rebind(query), id)
		if err != nil {
			return errors.Wrap(err, "unable to delete employee")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "unable to delete employee")
		}
		if n == 0 {
			return data.ErrEmployeeNotFound
		}
		return nil
	}); err != nil {
		return err
	}
	s.Trace(ctx, "deleted employee: %d", id)
	return nil
}

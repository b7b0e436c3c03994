package sql

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib" //import for driver support
)

const (
	DriverMysql    string = "mysql"
	DriverPostgres string = "postgres"
	DriverSqlite   string = "sqlite"
)

// sqlite's built-in lower() only folds ascii, so connections opened through
// this driver carry a unicode aware replacement
const driverSqliteUnicode string = "sqlite3_unicode"

func init() {
	sql.Register(driverSqliteUnicode, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// dialect captures everything that differs between the supported databases;
// queries are written with ? placeholders and rebound when needed.
type dialect struct {
	name              string
	driverName        string
	isolation         sql.IsolationLevel
	numberedArgs      bool
	returningId       bool
	maxOpenConns      int
	lower             string
	schema            []string
	isUniqueViolation func(err error) bool
}

var dialectMysql = dialect{
	name:       DriverMysql,
	driverName: "mysql",
	isolation:  sql.LevelSerializable,
	lower:      "LOWER",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(254) NOT NULL,
			photo VARCHAR(255) NOT NULL DEFAULT '',
			dob DATE NOT NULL,
			salary DECIMAL(12,2) NOT NULL,
			disabled BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE KEY employees_email (email),
			KEY employees_salary (salary, id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			superuser BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE KEY users_username (username)
		)`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id BIGINT NOT NULL,
			permission VARCHAR(100) NOT NULL,
			PRIMARY KEY (user_id, permission),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	},
	isUniqueViolation: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
	},
}

var dialectPostgres = dialect{
	name:         DriverPostgres,
	driverName:   "pgx",
	isolation:    sql.LevelSerializable,
	numberedArgs: true,
	returningId:  true,
	lower:        "LOWER",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(254) NOT NULL,
			photo VARCHAR(255) NOT NULL DEFAULT '',
			dob DATE NOT NULL,
			salary NUMERIC(12,2) NOT NULL,
			disabled BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS employees_email ON employees (LOWER(email))`,
		`CREATE INDEX IF NOT EXISTS employees_salary ON employees (salary, id)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(150) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			superuser BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			permission VARCHAR(100) NOT NULL,
			PRIMARY KEY (user_id, permission)
		)`,
	},
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

// sqlite only allows a single writer, and an in-memory database only exists
// for the lifetime of its connection, so the pool is pinned to one connection
var dialectSqlite = dialect{
	name:         DriverSqlite,
	driverName:   driverSqliteUnicode,
	isolation:    sql.LevelDefault,
	maxOpenConns: 1,
	lower:        "unicode_lower",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL COLLATE NOCASE UNIQUE,
			photo TEXT NOT NULL DEFAULT '',
			dob DATE NOT NULL,
			salary DECIMAL(12,2) NOT NULL,
			disabled BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS employees_salary ON employees (salary, id)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			superuser BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			permission TEXT NOT NULL,
			PRIMARY KEY (user_id, permission)
		)`,
	},
	isUniqueViolation: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

func (d dialect) dataSourceName(c config) string {
	switch d.name {
	default:
		return ""
	case DriverMysql:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.Username, c.Password, c.Hostname, c.Port, c.Database)
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.Username, c.Password),
			Host:   c.Hostname + ":" + c.Port,
			Path:   "/" + c.Database,
		}
		if c.SslMode != "" {
			u.RawQuery = url.Values{"sslmode": {c.SslMode}}.Encode()
		}
		return u.String()
	case DriverSqlite:
		file := c.File
		if file == "" {
			file = ":memory:"
		}
		return "file:" + file + "?_foreign_keys=on"
	}
}

// rebind converts ? placeholders into $1..$n for databases that need them
func (d dialect) rebind(query string) string {
	if !d.numberedArgs {
		return query
	}
	var builder strings.Builder
	var n int

	for _, r := range query {
		if r != '?' {
			builder.WriteRune(r)
			continue
		}
		n++
		builder.WriteString("$" + strconv.Itoa(n))
	}
	return builder.String()
}

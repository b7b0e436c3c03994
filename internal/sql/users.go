package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/antonio-alexander/go-employee-admin/internal/data"

	"github.com/pkg/errors"
)

func (s *sqlDb) userRead(ctx context.Context, tx *sql.Tx, column string, value any) (*data.User, error) {
	user := &data.User{}
	query := fmt.Sprintf(`SELECT id, username, password_hash, active, superuser
		FROM %s WHERE %s = ?;`, tableUsers, column)
	if err := tx.QueryRowContext(ctx, s.rebind(query), value).Scan(
		&user.Id,
		&user.Username,
		&user.PasswordHash,
		&user.Active,
		&user.Superuser,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "unable to read user")
	}
	query = fmt.Sprintf(`SELECT permission FROM %s WHERE user_id = ? ORDER BY permission;`,
		tableUserPermissions)
	rows, err := tx.QueryContext(ctx, s.rebind(query), user.Id)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read user permissions")
	}
	defer rows.Close()
	for rows.Next() {
		var p string

		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(err, "unable to scan user permission")
		}
		if permission, ok := data.ParsePermission(p); ok {
			user.Permissions = append(user.Permissions, permission)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read user permissions")
	}
	return user, nil
}

func (s *sqlDb) UserRead(ctx context.Context, id int64) (*data.User, error) {
	var user *data.User

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) (err error) {
		user, err = s.userRead(ctx, tx, "id", id)
		return
	}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *sqlDb) UserReadByUsername(ctx context.Context, username string) (*data.User, error) {
	var user *data.User

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) (err error) {
		user, err = s.userRead(ctx, tx, "username", username)
		return
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// UserWrite creates or replaces the user with the same username, including
// the full set of permissions.
func (s *sqlDb) UserWrite(ctx context.Context, user data.User) (*data.User, error) {
	var userWritten *data.User

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		id := user.Id
		existing, err := s.userRead(ctx, tx, "username", user.Username)
		switch {
		default:
			return err
		case errors.Is(err, data.ErrUserNotFound):
			query := fmt.Sprintf(`INSERT INTO %s (username, password_hash, active, superuser)
				VALUES (?, ?, ?, ?)`, tableUsers)
			if id, err = s.insert(ctx, tx, query, user.Username, user.PasswordHash,
				user.Active, user.Superuser); err != nil {
				return errors.Wrap(err, "unable to create user")
			}
		case err == nil:
			id = existing.Id
			query := fmt.Sprintf(`UPDATE %s SET password_hash = ?, active = ?, superuser = ?
				WHERE id = ?;`, tableUsers)
			if _, err := tx.ExecContext(ctx, s.rebind(query), user.PasswordHash,
				user.Active, user.Superuser, id); err != nil {
				return errors.Wrap(err, "unable to update user")
			}
		}
		query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?;`, tableUserPermissions)
		if _, err := tx.ExecContext(ctx, s.rebind(query), id); err != nil {
			return errors.Wrap(err, "unable to clear user permissions")
		}
		query = fmt.Sprintf(`INSERT INTO %s (user_id, permission) VALUES (?, ?);`,
			tableUserPermissions)
		written := make(map[data.Permission]bool)
		for _, permission := range user.Permissions {
			if written[permission] {
				continue
			}
			written[permission] = true
			if _, err := tx.ExecContext(ctx, s.rebind(query), id, string(permission)); err != nil {
				return errors.Wrap(err, "unable to write user permission")
			}
		}
		userWritten, err = s.userRead(ctx, tx, "id", id)
		return err
	}); err != nil {
		return nil, err
	}
	s.Trace(ctx, "wrote user: %s", userWritten.Username)
	return userWritten, nil
}

package auth

import (
	"context"
	"os"

	"github.com/antonio-alexander/go-employee-admin/internal/data"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type usersFile struct {
	Users []data.UserProvision `yaml:"users"`
}

// LoadUsers reads the staff accounts from a yaml file of the form:
//
//	users:
//	  - username: admin
//	    password: secret
//	    superuser: true
//	  - username: clerk
//	    password: secret
//	    permissions: [view_employee, add_employee]
func LoadUsers(path string) ([]data.UserProvision, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read users file %s", path)
	}
	file := usersFile{}
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, errors.Wrapf(err, "unable to parse users file %s", path)
	}
	for i, user := range file.Users {
		if user.Username == "" || user.Password == "" {
			return nil, errors.Errorf("user %d in %s: username and password are required", i, path)
		}
		for _, p := range user.Permissions {
			if _, ok := data.ParsePermission(p); !ok {
				return nil, errors.Errorf("user %q in %s: unknown permission %q", user.Username, path, p)
			}
		}
	}
	return file.Users, nil
}

func (a *auth) provision(ctx context.Context, provision data.UserProvision) (*data.User, error) {
	passwordHash, err := a.hashPassword(provision.Password)
	if err != nil {
		return nil, err
	}
	user := data.User{
		Username:     provision.Username,
		PasswordHash: passwordHash,
		Active:       provision.Active == nil || *provision.Active,
		Superuser:    provision.Superuser,
	}
	for _, p := range provision.Permissions {
		if permission, ok := data.ParsePermission(p); ok {
			user.Permissions = append(user.Permissions, permission)
		}
	}
	userWritten, err := a.users.UserWrite(ctx, user)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to provision user %q", provision.Username)
	}
	return userWritten, nil
}

func (a *auth) Provision(ctx context.Context, provisions ...data.UserProvision) ([]*data.User, error) {
	a.RLock()
	defer a.RUnlock()

	users := make([]*data.User, 0, len(provisions))
	for _, provision := range provisions {
		user, err := a.provision(ctx, provision)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

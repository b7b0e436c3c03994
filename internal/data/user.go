package data

import "strings"

type Permission string

const (
	PermissionAdd    Permission = "add_employee"
	PermissionView   Permission = "view_employee"
	PermissionChange Permission = "change_employee"
	PermissionDelete Permission = "delete_employee"
)

var Permissions = []Permission{
	PermissionAdd,
	PermissionView,
	PermissionChange,
	PermissionDelete,
}

func ParsePermission(s string) (Permission, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "main_app.")
	for _, permission := range Permissions {
		if string(permission) == s {
			return permission, true
		}
	}
	return "", false
}

type User struct {
	Id           int64        `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Active       bool         `json:"active"`
	Superuser    bool         `json:"superuser"`
	Permissions  []Permission `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission Permission) bool {
	if u == nil || !u.Active {
		return false
	}
	if u.Superuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Requester is the request scoped identity handed to every handler; a nil
// User means the request is anonymous.
type Requester struct {
	User        *User
	Permissions map[Permission]bool
}

func NewRequester(user *User) *Requester {
	r := &Requester{
		User:        user,
		Permissions: make(map[Permission]bool),
	}
	for _, permission := range Permissions {
		r.Permissions[permission] = user.HasPermission(permission)
	}
	return r
}

func (r *Requester) Authenticated() bool {
	return r != nil && r.User != nil && r.User.Active
}

func (r *Requester) HasPermission(permission Permission) bool {
	if !r.Authenticated() {
		return false
	}
	return r.Permissions[permission]
}

func (r *Requester) Superuser() bool {
	return r.Authenticated() && r.User.Superuser
}

// UserProvision describes a staff account as written in the provisioning file.
type UserProvision struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Active      *bool    `yaml:"active,omitempty"`
	Superuser   bool     `yaml:"superuser"`
	Permissions []string `yaml:"permissions"`
}

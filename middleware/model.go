package middleware

import (
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type UserToken struct {
	RealmAccess RealmAccess `json:"realm_access"`
	Roles       []UserRole  `json:"role"`
	Email       string      `json:"email"`
	ClientID    string      `json:"azp"`
	UserID      uuid.UUID   `json:"sub"`
	Scopes      string      `json:"scope"`
	jwt.RegisteredClaims
}

type RealmAccess struct {
	Roles []UserRole `json:"roles"`
}

type UserRole string

const (
	Admin        UserRole = "admin"
	Rancher      UserRole = "rancher"
	Veterinarian UserRole = "veterinarian"
	Worker       UserRole = "worker"
	Service      UserRole = "service"
)

// rolePriority decides which role is reported when a user holds several.
var rolePriority = []UserRole{Admin, Veterinarian, Rancher, Worker, Service}

func (s UserRole) ToString() string {
	return string(s)
}

// AllRoles merges realm roles and client roles.
func (u UserToken) AllRoles() []UserRole {
	return append(append([]UserRole{}, u.RealmAccess.Roles...), u.Roles...)
}

// PrimaryRole returns the most privileged ranch role of the token, falling back to the first role it carries.
func (u UserToken) PrimaryRole() UserRole {
	roles := u.AllRoles()
	for _, role := range rolePriority {
		if contains(roles, role) {
			return role
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return ""
}

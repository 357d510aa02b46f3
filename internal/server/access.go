package server

import (
	"fmt"
	"net/http"
)

const (
	RolePublic = "PUBLIC"
	RoleAdmin  = "ADMIN"
)

type AccessRule struct {
	Method string
	Path   string
	Roles  []string
}

var endpointAccess = []AccessRule{
	{Method: http.MethodGet, Path: "/healthz", Roles: []string{RolePublic}},
	{Method: http.MethodGet, Path: "/metrics", Roles: []string{RolePublic}},

	{Method: http.MethodPost, Path: "/auth/create", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/auth/authenticate", Roles: []string{RolePublic}},
	{Method: http.MethodGet, Path: "/user/create", Roles: []string{RolePublic}},

	{Method: http.MethodGet, Path: "/mylist/retrieve/all/{user_id}", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/mylist/create-user", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/mylist/create", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/mylist/update", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/mylist/import", Roles: []string{RolePublic}},
	{Method: http.MethodPut, Path: "/mylist/title/{mylist_id}", Roles: []string{RolePublic}},
	{Method: http.MethodPut, Path: "/mylist/theme/{mylist_id}", Roles: []string{RolePublic}},
	{Method: http.MethodPut, Path: "/mylist/topic/{mylist_id}", Roles: []string{RolePublic}},
	{Method: http.MethodPut, Path: "/mylist/privateflag/{mylist_id}", Roles: []string{RolePublic}},
	{Method: http.MethodDelete, Path: "/mylist/{mylist_id}", Roles: []string{RolePublic}},

	{Method: http.MethodGet, Path: "/browse/retrieve/theme", Roles: []string{RolePublic}},
	{Method: http.MethodGet, Path: "/browse/retrieve/last-updated-date", Roles: []string{RolePublic}},
	{Method: http.MethodGet, Path: "/discover/retrieve/all/", Roles: []string{RolePublic}},

	{Method: http.MethodPost, Path: "/contact", Roles: []string{RolePublic}},
	{Method: http.MethodPost, Path: "/report", Roles: []string{RolePublic}},

	{Method: http.MethodPut, Path: "/reportedflag/activate/{mylist_id}", Roles: []string{RoleAdmin}},
	{Method: http.MethodPut, Path: "/reportedflag/inactivate/{mylist_id}", Roles: []string{RoleAdmin}},
}

func accessRoles(method, path string) []string {
	for _, rule := range endpointAccess {
		if rule.Method == method && rule.Path == path {
			return rule.Roles
		}
	}
	panic(fmt.Sprintf("missing access roles for %s %s", method, path))
}

func roleAllowed(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func isPublicAccess(roles []string) bool {
	return roleAllowed(roles, RolePublic)
}

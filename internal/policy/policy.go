// Package policy is the stateless access evaluator. Every handler asks
// Decide before touching storage.
package policy

import (
	"net/http"

	"reviewhub/internal/models"
)

// Resource is the kind of object a request targets.
type Resource int

const (
	ResourceCategory Resource = iota
	ResourceGenre
	ResourceTitle
	ResourceReview
	ResourceComment
	ResourceUser
)

// Requester carries everything the evaluator needs to know about the caller.
// Anonymous callers are the zero value.
type Requester struct {
	Authenticated bool
	UserID        string
	Role          models.Role
	IsSuperuser   bool
}

func (r Requester) isStaff() bool {
	return r.Authenticated && (r.Role == models.RoleAdmin || r.IsSuperuser)
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Decide maps (HTTP method, resource kind, requester, owner) to allow/deny.
// ownerID is the author of the targeted object, or empty for collection-level
// operations such as create. Unmatched combinations deny.
//
// Reads are open to everyone, including anonymous callers, except on the
// admin user-management surface, which is staff-only for every method.
func Decide(method string, kind Resource, r Requester, ownerID string) bool {
	switch kind {
	case ResourceCategory, ResourceGenre, ResourceTitle:
		if safeMethod(method) {
			return true
		}
		// catalog mutations are admin-only
		return r.isStaff()

	case ResourceReview, ResourceComment:
		if safeMethod(method) {
			return true
		}
		if !r.Authenticated {
			return false
		}
		if ownerID == "" {
			// create: any authenticated user
			return true
		}
		if ownerID == r.UserID || r.IsSuperuser {
			return true
		}
		switch r.Role {
		case models.RoleAdmin, models.RoleModerator:
			// moderators manage any review or comment, but nothing else
			return true
		case models.RoleUser:
			return false
		}
		return false

	case ResourceUser:
		// self-service is handled by CanManageSelf; this is the admin surface
		return r.isStaff()
	}

	return false
}

// CanManageSelf gates the /users/me endpoint: any authenticated requester may
// read and update their own record. The role field stays read-only on this
// path; that is enforced by the user service, not here.
func CanManageSelf(r Requester) bool {
	return r.Authenticated
}

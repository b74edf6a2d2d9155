// Package guard enforces the invariants protecting privileged accounts
// from each other. The rules run inside the same tenant-scoped call as
// the mutation they guard, so a target can never change hands between
// the check and the write.
package guard

import (
	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
)

// EnsureCanModify rejects role or status changes on a privileged
// target issued by anyone but that target itself. An admin may change
// their own role or status, never another admin's.
func EnsureCanModify(actorUserID uint, target *model.User) error {
	if target.Role == model.RoleAdmin && target.ID != actorUserID {
		return apperr.Forbidden("cannot modify another admin account")
	}
	return nil
}

// EnsureCanDelete rejects deletion of a privileged account
// unconditionally; not even a super-admin key holder can remove an
// admin through this path.
func EnsureCanDelete(target *model.User) error {
	if target.Role == model.RoleAdmin {
		return apperr.Forbidden("admin accounts cannot be deleted")
	}
	return nil
}

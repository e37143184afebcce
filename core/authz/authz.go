// Package authz is the authorization gate: pure predicates deciding whether
// a given actor may view or mutate a given record. The route layer consults
// these before every mutating or disclosure-sensitive operation; a false
// result always surfaces as a permission-denied error, never a silent no-op.
package authz

import (
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
)

// CanManage reports whether the actor is an authenticated elevated operator.
func CanManage(actor user.Actor) bool {
	return actor.IsOperator() && actor.IsAdmin
}

// CanViewUnmasked reports whether the tutor may see the student's unmasked
// contact identity, given the ledger's answer for the pair.
func CanViewUnmasked(actor user.Actor, granted bool) bool {
	if actor.IsOperator() {
		return true
	}
	return actor.IsTutor() && granted
}

// CanModifyRequest reports whether the actor may mutate the request: the
// owning student, the assigned tutor performing a tutor action, or an
// operator.
func CanModifyRequest(actor user.Actor, req request.Request) bool {
	switch {
	case actor.IsOperator():
		return true
	case actor.IsStudent():
		return req.StudentID == actor.ID
	case actor.IsTutor():
		return req.IsAssignedTo(actor.ID)
	}
	return false
}

// CanViewDocument reports whether the actor may download the request's
// decrypted requirement document.
func CanViewDocument(actor user.Actor, req request.Request) bool {
	return CanModifyRequest(actor, req)
}

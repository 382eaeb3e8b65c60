// Package policy decides whether a subject may mutate a resource.
package policy

import (
	"inkpress/app/models"
)

// Operation names a guarded mutation.
type Operation string

const (
	UpdatePost    Operation = "post.update"
	DeletePost    Operation = "post.delete"
	UpdateComment Operation = "comment.update"
	DeleteComment Operation = "comment.delete"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	// DenyAnonymous means no subject was present.
	DenyAnonymous
	// DenyNotOwner means the subject does not own the resource.
	DenyNotOwner
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// Authorizer checks a subject against the owner reference of a resource.
type Authorizer interface {
	Authorize(subject *models.Subject, ownerID string, op Operation) Decision
}

// OwnerPolicy allows a present subject when the resource has no owner or
// the owner is that subject. Ownership is compared by id only.
type OwnerPolicy struct{}

func (OwnerPolicy) Authorize(subject *models.Subject, ownerID string, _ Operation) Decision {
	if subject == nil || subject.ID == "" {
		return DenyAnonymous
	}
	if ownerID == "" || ownerID == subject.ID {
		return Allow
	}
	return DenyNotOwner
}

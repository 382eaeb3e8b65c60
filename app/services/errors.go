package services

import (
	"errors"
	"fmt"

	"inkpress/app/apperr"
	"inkpress/app/models"
	"inkpress/app/policy"
	"inkpress/app/repositories"
)

const (
	msgPostNotFound    = "Blog post not found"
	msgCommentNotFound = "Comment not found"
	msgNotAuthed       = "Not authenticated"
)

// classify turns a repository or model error into a typed error. Errors that
// are already typed pass through unchanged.
func classify(op string, err error, notFound string) error {
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return &apperr.Error{Kind: apperr.Validation, Op: op, Msg: verr.Error(), Err: err}
	case errors.Is(err, repositories.ErrNotFound):
		return &apperr.Error{Kind: apperr.NotFound, Op: op, Msg: notFound, Err: err}
	case errors.Is(err, repositories.ErrConflict):
		return &apperr.Error{Kind: apperr.Conflict, Op: op, Msg: "The record is busy, please retry", Err: err}
	default:
		return apperr.Wrap(apperr.Internal, op, err)
	}
}

// authorize applies the gate and reports the denial as a typed error.
func authorize(gate policy.Authorizer, op string, subject *models.Subject, ownerID string, operation policy.Operation, noun string) error {
	switch gate.Authorize(subject, ownerID, operation) {
	case policy.Allow:
		return nil
	case policy.DenyAnonymous:
		return apperr.New(apperr.Unauthorized, op, msgNotAuthed)
	default:
		return apperr.New(apperr.Forbidden, op, fmt.Sprintf("Not authorized to modify this %s", noun))
	}
}

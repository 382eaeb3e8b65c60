// Package controllers adapts HTTP requests to the services and writes the
// JSON envelope every endpoint answers with.
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"inkpress/app/apperr"
	"inkpress/app/logger"
	"inkpress/app/models"
)

// maxJSONBody bounds the size of JSON request bodies.
const maxJSONBody = 1 << 20

func sendJSON(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func sendData(w http.ResponseWriter, status int, data interface{}) {
	sendJSON(w, status, models.Envelope{Success: true, Data: data})
}

func sendList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	sendJSON(w, http.StatusOK, models.Envelope{Success: true, Data: items, Count: &count})
}

// sendError maps err to its status and public message. Internal details are
// logged, never sent.
func sendError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "step", apperr.StepOf(err), "error", err)
	} else {
		log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	sendJSON(w, status, models.Envelope{Success: false, Error: apperr.Public(err)})
}

// committed reports whether a mutation took effect despite err. Cleanup
// failures after a commit are logged and otherwise ignored.
func committed(r *http.Request, log *logger.Logger, err error) bool {
	if err == nil {
		return true
	}
	if apperr.KindOf(err) != apperr.Inconsistency {
		return false
	}
	log.Warn("Mutation committed with pending cleanup", "method", r.Method, "path", r.URL.Path, "step", apperr.StepOf(err), "error", err)
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.New(apperr.Validation, "decode", "Request body is required")
		case errors.As(err, &maxErr):
			return apperr.New(apperr.Validation, "decode", fmt.Sprintf("Request body cannot exceed %d bytes", maxErr.Limit))
		default:
			return &apperr.Error{Kind: apperr.Validation, Op: "decode", Msg: "Invalid JSON body", Err: err}
		}
	}
	return nil
}

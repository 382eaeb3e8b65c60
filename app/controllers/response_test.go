package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkpress/app/apperr"
	"inkpress/app/logger"
	"inkpress/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) models.Envelope {
	t.Helper()
	var env models.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestSendError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	tests := []struct {
		name    string
		err     error
		status  int
		message string
		level   zapcore.Level
	}{
		{
			name:    "validation is shown",
			err:     apperr.New(apperr.Validation, "posts.create", "Title is required"),
			status:  http.StatusBadRequest,
			message: "Title is required",
			level:   zapcore.DebugLevel,
		},
		{
			name:    "forbidden",
			err:     apperr.New(apperr.Forbidden, "posts.update", "Not authorized to modify this post"),
			status:  http.StatusForbidden,
			message: "Not authorized to modify this post",
			level:   zapcore.DebugLevel,
		},
		{
			name:    "internal details are hidden",
			err:     apperr.Wrap(apperr.Internal, "posts.list", errors.New("badger: value log truncated")),
			status:  http.StatusInternalServerError,
			message: "Internal Server Error",
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			w := httptest.NewRecorder()
			sendError(w, httptest.NewRequest("GET", "/api/posts", nil), log, tt.err)

			assert.Equal(t, tt.status, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Error)
			assert.NotContains(t, w.Body.String(), "badger")

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
		})
	}
}

func TestSendListCountsEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	sendList[*models.Post](w, nil)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"data":[]`)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestCommitted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := logger.FromZap(zap.New(core))
	r := httptest.NewRequest("DELETE", "/api/posts/1", nil)

	assert.True(t, committed(r, log, nil))
	assert.False(t, committed(r, log, apperr.New(apperr.NotFound, "posts.delete", "Blog post not found")))

	cleanup := (&apperr.Error{Kind: apperr.Inconsistency, Op: "posts.delete", Err: errors.New("unreachable")}).AtStep("release-image")
	assert.True(t, committed(r, log, cleanup))
	entries := logs.FilterMessage("Mutation committed with pending cleanup").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "release-image", entries[0].ContextMap()["step"])
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "Request body is required"},
		{"malformed", "{", "Invalid JSON body"},
		{"too large", `{"content":"` + strings.Repeat("x", maxJSONBody) + `"}`, "Request body cannot exceed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/api/comments", strings.NewReader(tt.body))
			var dst commentRequest
			err := decodeJSON(w, r, &dst)
			require.Error(t, err)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
			assert.Contains(t, apperr.Public(err), tt.message)
		})
	}
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", " web", "api"}, splitTags([]string{"go, web", "api"}))
	assert.Nil(t, splitTags(nil))
}

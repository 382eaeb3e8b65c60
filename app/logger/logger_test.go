package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login", "email", "a@example.com", "password", "hunter2", "jwt_token", "abc")

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a@example.com", fields["email"])
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "[REDACTED]", fields["jwt_token"])
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "PostService")

	log.Warn("slow")

	assert.Equal(t, 1, logs.FilterField(zap.String("service", "PostService")).Len())
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		t.Run(mode, func(t *testing.T) {
			l, err := New(mode)
			assert.NoError(t, err)
			assert.NotNil(t, l.SugaredLogger)
		})
	}
}

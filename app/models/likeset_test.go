package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeSetToggle(t *testing.T) {
	s := NewLikeSet("b")

	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Contains("a"))
	assert.Equal(t, []string{"a", "b"}, s.Members())

	assert.False(t, s.Toggle("a"))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, []string{"b"}, s.Members())
}

func TestLikeSetNoDuplicates(t *testing.T) {
	s := NewLikeSet("a", "a", "a")
	s.Add("a")
	assert.Equal(t, 1, s.Len())
}

func TestLikeSetJSON(t *testing.T) {
	t.Run("nil encodes as empty array", func(t *testing.T) {
		var s LikeSet
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	})

	t.Run("duplicates collapse on decode", func(t *testing.T) {
		var s LikeSet
		require.NoError(t, json.Unmarshal([]byte(`["z","a","z"]`), &s))
		assert.Equal(t, []string{"a", "z"}, s.Members())
	})
}

package tags

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignment(t *testing.T) {
	want := &AssignmentRequest{
		Tag:   "pii",
		Value: "email",
		Objects: []ObjectRef{
			{Type: ObjectColumn, Path: "A.PUBLIC.USERS.EMAIL"},
			{Type: ObjectView, Path: "A.PUBLIC.V_USERS"},
		},
	}

	t.Run("yaml", func(t *testing.T) {
		got, err := ParseAssignment([]byte(`
tag: pii
value: email
objects:
  - type: column
    path: A.PUBLIC.USERS.EMAIL
  - type: VIEW
    path: " A.PUBLIC.V_USERS "
`))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("json", func(t *testing.T) {
		got, err := ParseAssignment([]byte(`{"tag": "pii", "value": "email", "objects": [` +
			`{"type": "column", "path": "A.PUBLIC.USERS.EMAIL"}, {"type": "view", "path": "A.PUBLIC.V_USERS"}]}`))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestParseAssignment_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty file", ``, ""},
		{"not a mapping", `- pii`, ""},
		{"unknown field", "tag: pii\nvalue: x\ncolor: red\nobjects: [{type: user, path: a}]", ""},
		{"missing tag", "value: x\nobjects: [{type: user, path: a}]", "tag"},
		{"blank value", "tag: pii\nvalue: ' '\nobjects: [{type: user, path: a}]", "value"},
		{"no objects", "tag: pii\nvalue: x\nobjects: []", "objects"},
		{"bad type", "tag: pii\nvalue: x\nobjects: [{type: warehouse, path: a}]", "objects[0].type"},
		{"blank path", "tag: pii\nvalue: x\nobjects: [{type: user, path: a}, {type: role, path: ''}]", "objects[1].path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAssignment([]byte(tt.input))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestReadAssignmentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assign.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tag: owner\nvalue: team-a\nobjects: [{type: role, path: ANALYST}]\n"), 0o600))

	req, err := ReadAssignmentFile(path)
	require.NoError(t, err)
	assert.Equal(t, "owner", req.Tag)

	_, err = ReadAssignmentFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"catalog-sync/core/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRoot executes the root command with a fresh sqlite catalog in a temp dir.
func runRoot(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_DRIVER", "sqlite")
	t.Setenv("CATALOG_NAME", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestTagCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")

	out, err := runRoot(t, db, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog initialized.")

	out, err = runRoot(t, db, "create-tag", "pii", "email", "phone")
	require.NoError(t, err)
	assert.Contains(t, out, "Tag 'pii' created successfully.")

	_, err = runRoot(t, db, "create-tag", "pii")
	assert.Error(t, err)

	out, err = runRoot(t, db, "show-tags", "--name-like", "pi")
	require.NoError(t, err)
	assert.Contains(t, out, `"allowed_values"`)
	assert.Contains(t, out, `"email"`)

	file := filepath.Join(dir, "assign.yaml")
	require.NoError(t, os.WriteFile(file, []byte("tag: pii\nvalue: email\nobjects:\n  - type: column\n    path: A.PUBLIC.USERS.EMAIL\n"), 0o600))
	out, err = runRoot(t, db, "set-tag", file)
	require.NoError(t, err)
	assert.Contains(t, out, "set on 1 objects")

	out, err = runRoot(t, db, "set-tag", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping...")
}

func TestShowRequiredGrants(t *testing.T) {
	out, err := runRoot(t, filepath.Join(t.TempDir(), "c.db"), "show-required-grants")
	require.NoError(t, err)
	assert.Contains(t, out, "MANAGE GRANTS")
}

func TestScanRejectsUnknownTarget(t *testing.T) {
	_, err := runRoot(t, filepath.Join(t.TempDir(), "c.db"), "scan", "warehouses")
	assert.ErrorContains(t, err, "unknown resource kind")
}

func TestScanTargets(t *testing.T) {
	assert.Len(t, scanTargets, len(catalog.Kinds)+1)
	assert.Equal(t, "all", scanTargets[len(scanTargets)-1])
}

func TestCheckCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	out, err := runRoot(t, db, "check")
	assert.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, out, "table database_objs does not exist")

	_, err = runRoot(t, db, "init")
	require.NoError(t, err)

	out, err = runRoot(t, db, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is healthy.")
}

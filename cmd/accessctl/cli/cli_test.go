package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizos/bizos/internal/rbac"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	cmd := NewRootCommand(Options{Stdout: stdout, Stderr: new(bytes.Buffer), RedisAddr: "127.0.0.1:0"})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMatrixExportThenVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.yaml")

	_, err := run(t, "matrix", "export", "--file", path)
	require.NoError(t, err)

	reloaded, err := rbac.LoadMatrixFile(path)
	require.NoError(t, err)
	assert.Equal(t, rbac.DefaultMatrix().Roles(), reloaded.Roles())

	out, err := run(t, "--matrix", path, "matrix", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "matrix ok")
}

func TestMatrixVerifyReportsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  admin: [\"*\"]\n  owner: [\"*\"]\n"), 0o600))

	out, err := run(t, "matrix", "verify", "--file", path)
	require.ErrorIs(t, err, ErrGaps)
	assert.Contains(t, out, "problem(s) detected")
	assert.Contains(t, out, "driver")

	out, err = run(t, "--matrix", path, "--json", "matrix", "verify")
	require.ErrorIs(t, err, ErrGaps)
	var summary VerifySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.False(t, summary.OK)
	assert.Equal(t, 2, summary.Roles)
	assert.NotEmpty(t, summary.Errors)
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "check", "Driver", "driver.portal")
	require.NoError(t, err)
	assert.Equal(t, "driver driver.portal: granted\n", out)

	out, err = run(t, "--json", "check", "driver", "finance.admin")
	require.NoError(t, err)
	var res CheckResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Granted)
	assert.Equal(t, rbac.RoleDriver, res.Role)

	_, err = run(t, "check", "driver", "driver.refuel")
	assert.ErrorIs(t, err, rbac.ErrUnknownPermission)

	_, err = run(t, "check", "driver")
	assert.Error(t, err)
}

func TestTablesAndNavCommands(t *testing.T) {
	out, err := run(t, "tables", "customer")
	require.NoError(t, err)
	assert.Equal(t, "customer has no table access\n", out)

	out, err = run(t, "nav", "POD Worker")
	require.NoError(t, err)
	assert.Contains(t, out, "landing: /pod")
	assert.Contains(t, out, "Print on Demand")
	assert.NotContains(t, out, "/finance")

	out, err = run(t, "--json", "nav", "ghost")
	require.NoError(t, err)
	var body struct {
		DefaultPath string          `json:"default_path"`
		Sidebar     json.RawMessage `json:"sidebar"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "/denied", body.DefaultPath)
	assert.JSONEq(t, `[]`, string(body.Sidebar))
}

func TestJobsTriggerValidation(t *testing.T) {
	_, err := run(t, "jobs", "trigger", "access:role_cache_invalidate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")

	_, err = run(t, "jobs", "trigger", "access:reindex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

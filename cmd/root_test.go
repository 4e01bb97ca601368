package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a pristine root command with the given args and captures its
// output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testRootCmd := newRootCmd()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs(args)
	err := testRootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestModelCmd_RequiresExactlyOneInputMode(t *testing.T) {
	_, err := execute(t, "model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")

	_, err = execute(t, "model", "--tasks", "tasks.json", "--description", "a shop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestModelCmd_ProjectIDNeedsDatabase(t *testing.T) {
	_, err := execute(t, "model", "--project-id", "proj-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestReportCmd_RequiresExactlyOneSource(t *testing.T) {
	_, err := execute(t, "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")

	_, err = execute(t, "report", "--input", "model.json", "--run-id", "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

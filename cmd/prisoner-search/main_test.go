package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
)

func memoryConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
storage:
  backend: memory
queue:
  backend: memory
`), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexStatus(t *testing.T) {
	out, err := execute(t, "index", "status", "--config-dir", memoryConfigDir(t))
	require.NoError(t, err)

	var result struct {
		Status indexstatus.IndexStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, indexstatus.StateAbsent, result.Status.CurrentState)
}

func TestIndexSwitchRefusedIsConflict(t *testing.T) {
	_, err := execute(t, "index", "switch", "--config-dir", memoryConfigDir(t))

	require.Error(t, err)
	assert.True(t, orchestrator.IsPrecondition(err))
	assert.Equal(t, exitConflict, exitCode(err))
}

func TestIndexUpdateRequiresPrisonerNumber(t *testing.T) {
	_, err := execute(t, "index", "update", "--config-dir", memoryConfigDir(t))
	assert.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("storage:\n  backend: cassandra\n"), 0644))

	_, err := execute(t, "index", "status", "--config-dir", dir)
	require.Error(t, err)
	assert.Equal(t, exitError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitError, exitCode(fmt.Errorf("boom")))
	assert.Equal(t, exitNotFound, exitCode(fmt.Errorf("update: %w", synchronizer.ErrPrisonerNotFound)))
	assert.Equal(t, exitConflict, exitCode(&orchestrator.PreconditionError{Err: orchestrator.ErrBuildNotInProgress}))
}

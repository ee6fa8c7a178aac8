package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophervrp/bbcore/bbt"
	"github.com/gophervrp/bbcore/config"
	"github.com/gophervrp/bbcore/mlplugin"
)

const toyCVRP = `NAME : toy-cvrp
TYPE : CVRP
DIMENSION : 3
CAPACITY : 10
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1 0 0
2 3 0
3 0 4
DEMAND_SECTION
1 0
2 4
3 5
DEPOT_SECTION
1
-1
EOF
`

func writeToyInstance(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toy.vrp")
	require.NoError(t, os.WriteFile(path, []byte(toyCVRP), 0o644))
	return path
}

func TestBuildControllerWiresRootNodeAndCollaborators(t *testing.T) {
	opts := runOptions{
		instancePath: writeToyInstance(t),
		timeLimit:    time.Second,
		mode:         config.CVRP,
		mlMode:       mlplugin.NoUse,
	}

	rc, err := buildController(opts)
	require.NoError(t, err)

	assert.Equal(t, "toy-cvrp", rc.inst.Name)
	assert.NotNil(t, rc.controller.Pricer)
	assert.NotNil(t, rc.controller.Cutter)
	assert.NotNil(t, rc.controller.Feasibility)
	assert.NotNil(t, rc.controller.Candidates)
	assert.NotNil(t, rc.controller.Metrics)
	assert.Nil(t, rc.controller.Checkpoint)
	assert.Nil(t, rc.controller.MLScorer)
	assert.Nil(t, rc.recorder)
	assert.Equal(t, rc.controller.Frontier.Len(), 1)
}

func TestBuildControllerWiresMLUseModelScorer(t *testing.T) {
	opts := runOptions{
		instancePath: writeToyInstance(t),
		timeLimit:    time.Second,
		mode:         config.CVRP,
		mlMode:       mlplugin.UseModel,
	}

	rc, err := buildController(opts)
	require.NoError(t, err)
	assert.NotNil(t, rc.controller.MLScorer)
}

func TestBuildControllerWiresGetDataRecorder(t *testing.T) {
	opts := runOptions{
		instancePath: writeToyInstance(t),
		timeLimit:    time.Second,
		mode:         config.CVRP,
		mlMode:       mlplugin.GetData1,
	}

	rc, err := buildController(opts)
	require.NoError(t, err)
	assert.NotNil(t, rc.controller.MLRecorder)
	assert.NotNil(t, rc.recorder)
}

func TestBuildControllerWithDumpOutSetsCheckpoint(t *testing.T) {
	opts := runOptions{
		instancePath: writeToyInstance(t),
		timeLimit:    time.Second,
		mode:         config.CVRP,
		mlMode:       mlplugin.NoUse,
		dumpOut:      t.TempDir(),
	}

	rc, err := buildController(opts)
	require.NoError(t, err)
	assert.NotNil(t, rc.controller.Checkpoint)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(bbt.ExitOptimal, nil))
	assert.Equal(t, 1, exitCode(bbt.ExitTimeLimit, nil))
	assert.Equal(t, 2, exitCode(bbt.ExitInfeasible, nil))
	assert.Equal(t, 3, exitCode(bbt.ExitUnknown, nil))
	assert.Equal(t, 3, exitCode(bbt.ExitOptimal, assert.AnError))
}

func TestBuildCheckpointStorePrefersRedis(t *testing.T) {
	store, runID, err := buildCheckpointStore(runOptions{redisAddr: "localhost:6379", dumpOut: "ignored"})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.NotNil(t, store)
}

func TestBuildCheckpointStoreResumesRunIDFromDumpIn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123-000000.ckpt"), []byte("x"), 0o644))

	store, runID, err := buildCheckpointStore(runOptions{dumpIn: dir})
	require.NoError(t, err)
	assert.Equal(t, "abc123", runID)
	assert.NotNil(t, store)
}

func TestBuildCheckpointStoreDumpInWithoutFilesErrors(t *testing.T) {
	_, _, err := buildCheckpointStore(runOptions{dumpIn: t.TempDir()})
	assert.Error(t, err)
}

func TestBuildCheckpointStoreNoneConfigured(t *testing.T) {
	store, runID, err := buildCheckpointStore(runOptions{})
	require.NoError(t, err)
	assert.Empty(t, runID)
	assert.Nil(t, store)
}

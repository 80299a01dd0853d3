package harness

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name matches scenario name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "partial-commit.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_InsertGetsSequentialID(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: insert
description: "a new step is persisted with a generated id"
liturgy: {id: sunday, title: Sunday, date: "2026-10-18"}
operations:
  - add_step: {title: Welcome}
  - commit: {}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{"Welcome"}, result.State.RemoteTitles)
	require.Len(t, result.Trace, 4)
	require.Len(t, result.Trace[1].Rows, 1)
	assert.Empty(t, result.Trace[1].Rows[0].ID, "inserts carry no id")
	assert.False(t, result.State.Dirty)
}

func TestRun_OpenFailure(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: open-failure
description: "the initial load fails"
liturgy: {id: sunday, title: Sunday, date: "2026-10-18"}
fail:
  - {call: list_steps, error: offline}
operations:
  - commit: {}
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestRun_FailedOperationFailsScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: missing-step
description: "editing a step that does not exist"
liturgy: {id: sunday, title: Sunday, date: "2026-10-18"}
operations:
  - remove: {step: ghost}
  - commit: {}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "ghost")
	assert.Equal(t, []string{"list_steps"}, result.Methods(), "the run stops before the commit")
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong-expectations
description: "every assertion is wrong"
liturgy: {id: sunday, title: Sunday, date: "2026-10-18"}
steps:
  - {id: a, title: Welcome, type: other}
operations:
  - remove: {step: a}
assertions:
  dirty: false
  pending_deletes: []
  remote_titles: []
  call_order: [bulk_delete]
  commit_error: DELETE_FAILED
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)

	joined := strings.Join(result.Errors, "\n")
	for _, name := range []string{"dirty", "pending_deletes", "remote_titles", "call_order", "commit_error"} {
		assert.Contains(t, joined, "Assertion failed: "+name)
	}
	assert.Contains(t, joined, "[1] list_steps")
}

func TestParseScenario_Rejects(t *testing.T) {
	base := "description: d\nliturgy: {id: l, title: L, date: \"2026-10-18\"}\n"
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", base + "operations: [{commit: {}}]", "name is required"},
		{"missing liturgy", "name: n\ndescription: d\noperations: [{commit: {}}]", "liturgy.id is required"},
		{"no operations", "name: n\n" + base, "operations list is required"},
		{"unknown field", "name: n\n" + base + "operations: [{commit: {}}]\nasserts: {}", "asserts"},
		{"bad op", "name: n\n" + base + "operations: [{commit: {}, remove: {step: a}}]", "exactly one of"},
		{"unknown call", "name: n\n" + base + "operations: [{commit: {}}]\nfail: [{call: drop_table, error: x}]", `unknown call "drop_table"`},
		{"failure without error", "name: n\n" + base + "operations: [{commit: {}}]\nfail: [{call: bulk_delete}]", "error is required"},
		{"negative times", "name: n\n" + base + "operations: [{commit: {}}]\nfail: [{call: list_steps, times: -1, error: x}]", "times must not be negative"},
		{"unknown song", "name: n\n" + base + "operations: [{commit: {}}]\nsteps: [{title: W, type: song-block, songs: [s9]}]", `unknown song "s9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{Seq: 1, Call: "bulk_upsert", Rows: []TraceRow{{Title: "A", Type: "other"}}})

	data, err := Snapshot("s", result)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"s","trace":[{"call":"bulk_upsert","rows":[{"order":0,"title":"A","type":"other"}],"seq":1}]}`, string(data))
}

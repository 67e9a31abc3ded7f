package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtool/glyph/internal/build"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), Filename))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func emit(rec *Recorder, typ, scenarioName, detail string) {
	rec.OnEvent(build.Event{Type: build.EventType(typ), Scenario: scenarioName, Detail: detail})
}

func TestStore_BuildLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	buildID, err := NewBuildID()
	require.NoError(t, err)

	require.NoError(t, store.StartBuild(ctx, buildID, "login"))
	require.NoError(t, store.AddEvent(ctx, buildID, "step_done", "step 1/3", ""))
	require.NoError(t, store.AddEvent(ctx, buildID, "execution", "passed", `{"elapsed_ms":120}`))

	specPath := "scenarios/login.spec.js"
	require.NoError(t, store.FinishBuild(ctx, buildID, BuildCompleted, 3, &specPath, nil))

	builds, err := store.ListBuilds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "login", builds[0].Scenario)
	assert.Equal(t, BuildCompleted, builds[0].Status)
	assert.Equal(t, 3, builds[0].Iteration)
	require.NotNil(t, builds[0].SpecPath)
	assert.Equal(t, specPath, *builds[0].SpecPath)

	events, err := store.Events(ctx, buildID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "build_started", events[0].Type)
	assert.Equal(t, "step_done", events[1].Type)
	assert.Equal(t, "execution", events[2].Type)
	for i, e := range events {
		assert.Equal(t, i+1, e.Seq)
	}
}

func TestStore_ListBuildsNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	for i, created := range []string{
		"2026-08-01T10:00:00Z",
		"2026-08-02T10:00:00Z",
		"2026-08-03T10:00:00Z",
	} {
		_, err := store.db.ExecContext(ctx, `INSERT INTO builds(build_id, created_at, scenario, status, iteration)
			VALUES(?, ?, ?, ?, 0)`,
			"b"+string(rune('1'+i)), created, "login", BuildCompleted)
		require.NoError(t, err)
	}

	builds, err := store.ListBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b3", builds[0].BuildID)
	assert.Equal(t, "b2", builds[1].BuildID)
}

func TestRecorder_MirrorsBuildEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	rec := NewRecorder(ctx, store)

	emit(rec, "scenario_start", "login", "")
	emit(rec, "step_done", "login", "")
	emit(rec, "step_done", "login", "")
	emit(rec, "scenario_done", "login", "scenarios/login.spec.js")

	builds, err := store.ListBuilds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, BuildCompleted, builds[0].Status)
	assert.Equal(t, 2, builds[0].Iteration)
	require.NotNil(t, builds[0].SpecPath)
	assert.Equal(t, "scenarios/login.spec.js", *builds[0].SpecPath)
}

func TestRecorder_FailureKeepsReason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	rec := NewRecorder(ctx, store)

	emit(rec, "scenario_start", "login", "")
	emit(rec, "scenario_fail", "login", "model declined step 1")

	builds, err := store.ListBuilds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, BuildFailed, builds[0].Status)

	events, err := store.Events(ctx, builds[0].BuildID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "build_failed", last.Type)
	assert.Equal(t, "model declined step 1", last.Message)
}

func TestPrune_RetentionPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	recent := time.Now().UTC().Format(time.RFC3339)
	seed := []struct {
		id, created, status string
	}{
		{"b1", old, BuildCompleted},
		{"b2", old, BuildFailed},
		{"b3", recent, BuildCompleted},
		{"b4", recent, BuildRunning},
	}
	for _, b := range seed {
		_, err := store.db.ExecContext(ctx, `INSERT INTO builds(build_id, created_at, scenario, status, iteration)
			VALUES(?, ?, 'login', ?, 0)`, b.id, b.created, b.status)
		require.NoError(t, err)
		_, err = store.db.ExecContext(ctx, `INSERT INTO build_events(build_id, seq, ts, type) VALUES(?, 1, ?, 'build_started')`,
			b.id, b.created)
		require.NoError(t, err)
	}

	// Dry run reports without deleting.
	removed, err := Prune(ctx, store, RetentionPolicy{KeepLast: 1, KeepDays: 7, DryRun: true})
	require.NoError(t, err)
	require.Len(t, removed, 2)
	builds, err := store.ListBuilds(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, builds, 4)

	// Real prune: keeps the running build, the newest finished build, and
	// anything younger than the cutoff.
	removed, err = Prune(ctx, store, RetentionPolicy{KeepLast: 1, KeepDays: 7})
	require.NoError(t, err)
	require.Len(t, removed, 2)

	builds, err = store.ListBuilds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	left := map[string]bool{}
	for _, b := range builds {
		left[b.BuildID] = true
	}
	assert.True(t, left["b3"], "newest finished build kept")
	assert.True(t, left["b4"], "running build kept")

	// Cascade removed the events of pruned builds.
	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM build_events WHERE build_id IN ('b1','b2')`).Scan(&count))
	assert.Zero(t, count)
}

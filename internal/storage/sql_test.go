package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	internal_storage "github.com/Himanshujchavan/GROQPILOT/internal/storage"
	"github.com/Himanshujchavan/GROQPILOT/internal/testutil"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

func taskRecord(id string, offset time.Duration, status models.TaskStatus) models.TaskRecord {
	return models.TaskRecord{
		ID:        id,
		Kind:      models.ActionTaskKind,
		Status:    status,
		StartTime: base.Add(offset),
		Request: &models.AutomationRequest{
			Target:     "files",
			Action:     "list_files",
			Parameters: map[string]any{"directory": "/tmp"},
		},
	}
}

// testStoreContract runs the behaviour shared by every SQL dialect.
func testStoreContract(t *testing.T, store *internal_storage.SQLStore) {
	t.Run("SaveAndGetTask", func(t *testing.T) {
		rec := taskRecord("save_get", 0, models.RunningTaskStatus)
		require.NoError(t, store.SaveTask(rec))

		got, err := store.GetTask("save_get")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("SaveDuplicate", func(t *testing.T) {
		rec := taskRecord("dup", 0, models.RunningTaskStatus)
		require.NoError(t, store.SaveTask(rec))
		assert.ErrorIs(t, store.SaveTask(rec), storage.ErrAlreadyExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.GetTask("missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateTask", func(t *testing.T) {
		rec := taskRecord("update", 0, models.RunningTaskStatus)
		require.NoError(t, store.SaveTask(rec))

		rec.Result = map[string]any{"file_count": "3"}
		rec.Finish(models.CompletedTaskStatus, base.Add(2*time.Second))
		require.NoError(t, store.UpdateTask(rec))

		got, err := store.GetTask("update")
		require.NoError(t, err)
		assert.Equal(t, models.CompletedTaskStatus, got.Status)
		require.NotNil(t, got.ExecutionTime)
		assert.InDelta(t, 2.0, *got.ExecutionTime, 1e-9)
		assert.Equal(t, "3", got.Result["file_count"])
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		assert.ErrorIs(t, store.UpdateTask(taskRecord("nope", 0, models.FailedTaskStatus)), storage.ErrNotFound)
	})

	t.Run("TransactionCommitAndRollback", func(t *testing.T) {
		tx, err := store.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.SaveTask(taskRecord("rolled_back", 0, models.RunningTaskStatus)))
		require.NoError(t, tx.Rollback())
		_, err = store.GetTask("rolled_back")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		tx, err = store.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.SaveTask(taskRecord("committed", 0, models.RunningTaskStatus)))
		require.NoError(t, tx.Commit())
		_, err = store.GetTask("committed")
		assert.NoError(t, err)
	})

	t.Run("NotATransaction", func(t *testing.T) {
		assert.Error(t, store.Commit())
		assert.Error(t, store.Rollback())
	})

	t.Run("Schedules", func(t *testing.T) {
		next := base.Add(time.Hour)
		sc := models.ScheduledTask{
			ID:        "scheduled_1",
			Name:      "nightly report",
			Target:    "email",
			Action:    "summarize",
			Schedule:  models.Schedule{Type: models.WeeklySchedule, Time: "09:00", Days: []int{1, 3}},
			Active:    true,
			Status:    models.ScheduledTaskStatus,
			CreatedAt: base,
			NextRun:   &next,
		}
		require.NoError(t, store.SaveSchedule(sc))
		assert.ErrorIs(t, store.SaveSchedule(sc), storage.ErrAlreadyExists)

		got, err := store.GetSchedule("scheduled_1")
		require.NoError(t, err)
		assert.Equal(t, sc, got)

		sc.Active = false
		sc.LastResult = "submitted"
		require.NoError(t, store.UpdateSchedule(sc))

		list, err := store.ListSchedules()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.False(t, list[0].Active)
		assert.Equal(t, "submitted", list[0].LastResult)

		require.NoError(t, store.DeleteSchedule("scheduled_1"))
		assert.ErrorIs(t, store.DeleteSchedule("scheduled_1"), storage.ErrNotFound)
		_, err = store.GetSchedule("scheduled_1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSQLiteStore(t *testing.T) {
	store, err := internal_storage.NewSQLStore(internal_storage.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate())
	// A second run is a no-op.
	require.NoError(t, store.Migrate())

	testStoreContract(t, store)
}

func TestSQLiteListAndCount(t *testing.T) {
	store, err := internal_storage.NewSQLStore(internal_storage.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate())

	require.NoError(t, store.SaveTask(taskRecord("b", time.Second, models.RunningTaskStatus)))
	require.NoError(t, store.SaveTask(taskRecord("a", time.Second, models.CompletedTaskStatus)))
	require.NoError(t, store.SaveTask(taskRecord("c", 0, models.RunningTaskStatus)))

	list, err := store.ListTasks()
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	n, err := store.CountTasks(models.RunningTaskStatus)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInitStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		store, err := internal_storage.InitStore("", "", false)
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStore{}, store)
	})

	t.Run("SQLite", func(t *testing.T) {
		store, err := internal_storage.InitStore(internal_storage.DriverSQLite, filepath.Join(t.TempDir(), "init.db"), true)
		require.NoError(t, err)
		defer store.Close()
		n, err := store.CountTasks(models.RunningTaskStatus)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := internal_storage.InitStore("mysql", "dsn", false)
		assert.Error(t, err)
	})
}

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	store := internal_storage.NewSQLStoreFromDB(testDB.DB, internal_storage.DriverPostgres)
	require.NoError(t, store.Migrate())

	testStoreContract(t, store)
}

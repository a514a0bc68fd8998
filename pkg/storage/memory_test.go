package storage_test

import (
	"testing"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Tasks(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("SaveGetUpdate", func(t *testing.T) {
		s := storage.NewMemoryStore()
		rec := models.TaskRecord{ID: "a", Status: models.RunningTaskStatus, StartTime: base, Result: map[string]any{"k": "v"}}
		require.NoError(t, s.SaveTask(rec))
		assert.True(t, errors.Is(s.SaveTask(rec), storage.ErrAlreadyExists))

		got, err := s.GetTask("a")
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		got.Result["k"] = "changed"
		again, err := s.GetTask("a")
		require.NoError(t, err)
		assert.Equal(t, "v", again.Result["k"])

		got.Status = models.CompletedTaskStatus
		require.NoError(t, s.UpdateTask(got))
		updated, err := s.GetTask("a")
		require.NoError(t, err)
		assert.Equal(t, models.CompletedTaskStatus, updated.Status)

		_, err = s.GetTask("missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.True(t, errors.Is(s.UpdateTask(models.TaskRecord{ID: "missing"}), storage.ErrNotFound))
	})

	t.Run("ListOrderAndCount", func(t *testing.T) {
		s := storage.NewMemoryStore()
		require.NoError(t, s.SaveTask(models.TaskRecord{ID: "late", Status: models.RunningTaskStatus, StartTime: base.Add(time.Minute)}))
		require.NoError(t, s.SaveTask(models.TaskRecord{ID: "early", Status: models.FailedTaskStatus, StartTime: base}))
		require.NoError(t, s.SaveTask(models.TaskRecord{ID: "b-same", Status: models.RunningTaskStatus, StartTime: base}))

		tasks, err := s.ListTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"b-same", "early", "late"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

		n, err := s.CountTasks(models.RunningTaskStatus)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("TransactionVisibility", func(t *testing.T) {
		s := storage.NewMemoryStore()
		tx, err := s.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.SaveTask(models.TaskRecord{ID: "tx", StartTime: base}))

		_, err = s.GetTask("tx")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = tx.GetTask("tx")
		assert.NoError(t, err)

		require.NoError(t, tx.Commit())
		_, err = s.GetTask("tx")
		assert.NoError(t, err)
		assert.Error(t, tx.Commit())
	})

	t.Run("Rollback", func(t *testing.T) {
		s := storage.NewMemoryStore()
		tx, err := s.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.SaveTask(models.TaskRecord{ID: "gone", StartTime: base}))
		require.NoError(t, tx.Rollback())
		_, err = s.GetTask("gone")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("NotATransaction", func(t *testing.T) {
		s := storage.NewMemoryStore()
		assert.Error(t, s.Commit())
		assert.Error(t, s.Rollback())
		tx, err := s.Begin()
		require.NoError(t, err)
		_, err = tx.Begin()
		assert.Error(t, err)
	})

	t.Run("ConflictingCreatesDetectedOnCommit", func(t *testing.T) {
		s := storage.NewMemoryStore()
		tx1, _ := s.Begin()
		tx2, _ := s.Begin()
		require.NoError(t, tx1.SaveTask(models.TaskRecord{ID: "same", StartTime: base}))
		require.NoError(t, tx2.SaveTask(models.TaskRecord{ID: "same", StartTime: base}))
		require.NoError(t, tx1.Commit())
		assert.True(t, errors.Is(tx2.Commit(), storage.ErrAlreadyExists))
	})
}

func TestMemoryStore_Schedules(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	next := base.Add(time.Hour)

	s := storage.NewMemoryStore()
	task := models.ScheduledTask{
		ID:        "s1",
		Target:    "clipboard",
		Action:    "get_text",
		Schedule:  models.Schedule{Type: models.WeeklySchedule, Time: "09:00", Days: []int{1, 3}},
		Active:    true,
		Status:    models.ScheduledTaskStatus,
		CreatedAt: base,
		NextRun:   &next,
	}
	require.NoError(t, s.SaveSchedule(task))
	assert.True(t, errors.Is(s.SaveSchedule(task), storage.ErrAlreadyExists))

	got, err := s.GetSchedule("s1")
	require.NoError(t, err)
	assert.Equal(t, task, got)
	got.Schedule.Days[0] = 6
	again, _ := s.GetSchedule("s1")
	assert.Equal(t, 1, again.Schedule.Days[0])

	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.DeleteSchedule("s1"))
	_, err = tx.GetSchedule("s1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	list, err := tx.ListSchedules()
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = s.ListSchedules()
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, tx.Commit())

	list, err = s.ListSchedules()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, errors.Is(s.DeleteSchedule("s1"), storage.ErrNotFound))
}

func TestMemoryStore_CommitChecksBaseRecords(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	newStore := func(t *testing.T) *storage.MemoryStore {
		s := storage.NewMemoryStore()
		require.NoError(t, s.SaveSchedule(models.ScheduledTask{ID: "s1", Active: true, CreatedAt: base}))
		require.NoError(t, s.SaveTask(models.TaskRecord{ID: "t1", Status: models.RunningTaskStatus, StartTime: base}))
		return s
	}

	t.Run("UpdateAfterConcurrentDelete", func(t *testing.T) {
		s := newStore(t)
		update, _ := s.Begin()
		require.NoError(t, update.UpdateSchedule(models.ScheduledTask{ID: "s1", Active: true, LastResult: "submitted"}))

		del, _ := s.Begin()
		require.NoError(t, del.DeleteSchedule("s1"))
		require.NoError(t, del.Commit())

		assert.True(t, errors.Is(update.Commit(), storage.ErrNotFound))
		_, err := s.GetSchedule("s1")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("FailedCommitAppliesNothing", func(t *testing.T) {
		s := newStore(t)
		tx, _ := s.Begin()
		require.NoError(t, tx.UpdateTask(models.TaskRecord{ID: "t1", Status: models.CompletedTaskStatus, StartTime: base}))
		require.NoError(t, tx.UpdateSchedule(models.ScheduledTask{ID: "s1", Active: false}))
		require.NoError(t, s.DeleteSchedule("s1"))

		assert.True(t, errors.Is(tx.Commit(), storage.ErrNotFound))
		got, err := s.GetTask("t1")
		require.NoError(t, err)
		assert.Equal(t, models.RunningTaskStatus, got.Status)
	})

	t.Run("DoubleDelete", func(t *testing.T) {
		s := newStore(t)
		first, _ := s.Begin()
		second, _ := s.Begin()
		require.NoError(t, first.DeleteSchedule("s1"))
		require.NoError(t, second.DeleteSchedule("s1"))
		require.NoError(t, first.Commit())
		assert.True(t, errors.Is(second.Commit(), storage.ErrNotFound))
	})

	t.Run("SaveThenDeleteInOneTransaction", func(t *testing.T) {
		s := newStore(t)
		tx, _ := s.Begin()
		require.NoError(t, tx.SaveSchedule(models.ScheduledTask{ID: "s2", CreatedAt: base}))
		require.NoError(t, tx.DeleteSchedule("s2"))
		require.NoError(t, tx.Commit())
		_, err := s.GetSchedule("s2")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("DeleteThenSaveReplaces", func(t *testing.T) {
		s := newStore(t)
		tx, _ := s.Begin()
		require.NoError(t, tx.DeleteSchedule("s1"))
		require.NoError(t, tx.SaveSchedule(models.ScheduledTask{ID: "s1", Name: "replaced", CreatedAt: base}))
		require.NoError(t, tx.Commit())
		got, err := s.GetSchedule("s1")
		require.NoError(t, err)
		assert.Equal(t, "replaced", got.Name)
	})
}

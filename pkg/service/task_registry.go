package service

import (
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/pkg/errors"
)

// TaskRegistry tracks the lifecycle records of background actions and
// workflows. Each record has one writer, the unit executing it; readers see
// whole records only. Records are never evicted.
type TaskRegistry struct {
	store  storage.Store
	logger Logger
}

func NewTaskRegistry(store storage.Store, logger Logger) *TaskRegistry {
	return &TaskRegistry{
		store:  store,
		logger: logger,
	}
}

func (r *TaskRegistry) Create(rec models.TaskRecord) error {
	return withTx(r.store, r.logger, func(tx storage.Store) error {
		if err := tx.SaveTask(rec); err != nil {
			r.logger.Errorf("Failed to save task %s: %v", rec.ID, err)
			return errors.Wrapf(err, "failed to save task %s", rec.ID)
		}
		return nil
	})
}

func (r *TaskRegistry) Get(id string) (models.TaskRecord, error) {
	rec, err := r.store.GetTask(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.TaskRecord{}, WrapError(NotFound, err, "Task "+id+" not found")
		}
		return models.TaskRecord{}, errors.Wrapf(err, "failed to get task %s", id)
	}
	return rec, nil
}

// List returns every record keyed by id.
func (r *TaskRegistry) List() (map[string]models.TaskRecord, error) {
	recs, err := r.Records()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.TaskRecord, len(recs))
	for _, rec := range recs {
		out[rec.ID] = rec
	}
	return out, nil
}

// Records returns every record ordered by start time.
func (r *TaskRegistry) Records() ([]models.TaskRecord, error) {
	recs, err := r.store.ListTasks()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	return recs, nil
}

func (r *TaskRegistry) Count(status models.TaskStatus) (int, error) {
	return r.store.CountTasks(status)
}

// Update applies fn to the current record and stores the result atomically.
// If fn returns an error nothing is written.
func (r *TaskRegistry) Update(id string, fn func(rec *models.TaskRecord) error) (updated models.TaskRecord, err error) {
	err = withTx(r.store, r.logger, func(tx storage.Store) error {
		rec, err := tx.GetTask(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return WrapError(NotFound, err, "Task "+id+" not found")
			}
			return errors.Wrapf(err, "failed to load task %s", id)
		}
		if err := fn(&rec); err != nil {
			return err
		}
		if err := tx.UpdateTask(rec); err != nil {
			r.logger.Errorf("Failed to update task %s: %v", id, err)
			return errors.Wrapf(err, "failed to update task %s", id)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return models.TaskRecord{}, err
	}
	return updated, nil
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error.
func withTx(store storage.Store, logger Logger, fn func(tx storage.Store) error) (err error) {
	txStore, err := store.Begin()
	if err != nil {
		logger.Errorf("Failed to begin transaction: %v", err)
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			logger.Errorf("Failed to commit: %v", commitErr)
			err = errors.Wrap(commitErr, "failed to commit")
		}
	}()
	return fn(txStore)
}

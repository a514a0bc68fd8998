package storage

import (
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Store defines the storage operations for task records and scheduled tasks.
// Writes made through a Store returned by Begin become visible to other
// readers only on Commit, and always as whole records.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Task record operations
	SaveTask(t models.TaskRecord) error
	GetTask(id string) (models.TaskRecord, error)
	UpdateTask(t models.TaskRecord) error
	ListTasks() ([]models.TaskRecord, error)
	CountTasks(status models.TaskStatus) (int, error)

	// Scheduled task operations
	SaveSchedule(s models.ScheduledTask) error
	GetSchedule(id string) (models.ScheduledTask, error)
	UpdateSchedule(s models.ScheduledTask) error
	DeleteSchedule(id string) error
	ListSchedules() ([]models.ScheduledTask, error)
}

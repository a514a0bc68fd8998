package storage

import (
	"sort"
	"sync"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/pkg/errors"
)

// MemoryStore implements Store in process memory. Records live for the
// lifetime of the process; nothing is evicted.
type MemoryStore struct {
	mu        sync.RWMutex
	tasks     map[string]models.TaskRecord
	schedules map[string]models.ScheduledTask
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:     make(map[string]models.TaskRecord),
		schedules: make(map[string]models.ScheduledTask),
	}
}

func (m *MemoryStore) Begin() (Store, error) {
	return &memoryTx{
		base:      m,
		tasks:     make(map[string]models.TaskRecord),
		created:   make(map[string]bool),
		schedules: make(map[string]models.ScheduledTask),
		added:     make(map[string]bool),
		deleted:   make(map[string]bool),
	}, nil
}

func (m *MemoryStore) Commit() error {
	return errors.New("cannot commit: not a transaction")
}

func (m *MemoryStore) Rollback() error {
	return errors.New("cannot rollback: not a transaction")
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) SaveTask(t models.TaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return errors.Wrapf(ErrAlreadyExists, "task %s", t.ID)
	}
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) GetTask(id string) (models.TaskRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.TaskRecord{}, errors.Wrapf(ErrNotFound, "task %s", id)
	}
	return t.Clone(), nil
}

func (m *MemoryStore) UpdateTask(t models.TaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return errors.Wrapf(ErrNotFound, "task %s", t.ID)
	}
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) ListTasks() ([]models.TaskRecord, error) {
	m.mu.RLock()
	tasks := make([]models.TaskRecord, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].StartTime.Equal(tasks[j].StartTime) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].StartTime.Before(tasks[j].StartTime)
	})
	return tasks, nil
}

func (m *MemoryStore) CountTasks(status models.TaskStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.tasks {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SaveSchedule(s models.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; ok {
		return errors.Wrapf(ErrAlreadyExists, "scheduled task %s", s.ID)
	}
	m.schedules[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetSchedule(id string) (models.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return models.ScheduledTask{}, errors.Wrapf(ErrNotFound, "scheduled task %s", id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) UpdateSchedule(s models.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return errors.Wrapf(ErrNotFound, "scheduled task %s", s.ID)
	}
	m.schedules[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) DeleteSchedule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return errors.Wrapf(ErrNotFound, "scheduled task %s", id)
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryStore) ListSchedules() ([]models.ScheduledTask, error) {
	m.mu.RLock()
	schedules := make([]models.ScheduledTask, 0, len(m.schedules))
	for _, s := range m.schedules {
		schedules = append(schedules, s.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].CreatedAt.Equal(schedules[j].CreatedAt) {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})
	return schedules, nil
}

// memoryTx stages writes and applies them to the base store in one critical
// section on Commit. Commit fails without applying anything when a record it
// updates or deletes is gone from the base store, or one it creates appeared.
type memoryTx struct {
	base      *MemoryStore
	tasks     map[string]models.TaskRecord
	created   map[string]bool // tasks saved in this transaction
	schedules map[string]models.ScheduledTask
	added     map[string]bool // schedules saved in this transaction
	deleted   map[string]bool
	done      bool
}

func (tx *memoryTx) Begin() (Store, error) {
	return nil, errors.New("cannot begin transaction: already in a transaction")
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.done = true
	b := tx.base
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range tx.tasks {
		_, exists := b.tasks[id]
		if tx.created[id] && exists {
			return errors.Wrapf(ErrAlreadyExists, "task %s", id)
		}
		if !tx.created[id] && !exists {
			return errors.Wrapf(ErrNotFound, "task %s", id)
		}
	}
	for id := range tx.deleted {
		if _, ok := b.schedules[id]; !ok {
			return errors.Wrapf(ErrNotFound, "scheduled task %s", id)
		}
	}
	for id := range tx.schedules {
		_, exists := b.schedules[id]
		if tx.added[id] && exists {
			return errors.Wrapf(ErrAlreadyExists, "scheduled task %s", id)
		}
		if !tx.added[id] && !exists {
			return errors.Wrapf(ErrNotFound, "scheduled task %s", id)
		}
	}

	for id, t := range tx.tasks {
		b.tasks[id] = t
	}
	for id := range tx.deleted {
		delete(b.schedules, id)
	}
	for id, s := range tx.schedules {
		b.schedules[id] = s
	}
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.done = true
	return nil
}

func (tx *memoryTx) Close() error {
	return nil
}

func (tx *memoryTx) SaveTask(t models.TaskRecord) error {
	if _, err := tx.GetTask(t.ID); err == nil {
		return errors.Wrapf(ErrAlreadyExists, "task %s", t.ID)
	}
	tx.tasks[t.ID] = t.Clone()
	tx.created[t.ID] = true
	return nil
}

func (tx *memoryTx) GetTask(id string) (models.TaskRecord, error) {
	if t, ok := tx.tasks[id]; ok {
		return t.Clone(), nil
	}
	return tx.base.GetTask(id)
}

func (tx *memoryTx) UpdateTask(t models.TaskRecord) error {
	if _, err := tx.GetTask(t.ID); err != nil {
		return err
	}
	tx.tasks[t.ID] = t.Clone()
	return nil
}

func (tx *memoryTx) ListTasks() ([]models.TaskRecord, error) {
	tasks, err := tx.base.ListTasks()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		seen[t.ID] = true
		if staged, ok := tx.tasks[t.ID]; ok {
			tasks[i] = staged.Clone()
		}
	}
	for id, t := range tx.tasks {
		if !seen[id] {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

func (tx *memoryTx) CountTasks(status models.TaskStatus) (int, error) {
	tasks, err := tx.ListTasks()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range tasks {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) SaveSchedule(s models.ScheduledTask) error {
	if _, err := tx.GetSchedule(s.ID); err == nil {
		return errors.Wrapf(ErrAlreadyExists, "scheduled task %s", s.ID)
	}
	if tx.deleted[s.ID] {
		// Deleted and saved again in this transaction: a replacement.
		delete(tx.deleted, s.ID)
	} else {
		tx.added[s.ID] = true
	}
	tx.schedules[s.ID] = s.Clone()
	return nil
}

func (tx *memoryTx) GetSchedule(id string) (models.ScheduledTask, error) {
	if tx.deleted[id] {
		return models.ScheduledTask{}, errors.Wrapf(ErrNotFound, "scheduled task %s", id)
	}
	if s, ok := tx.schedules[id]; ok {
		return s.Clone(), nil
	}
	return tx.base.GetSchedule(id)
}

func (tx *memoryTx) UpdateSchedule(s models.ScheduledTask) error {
	if _, err := tx.GetSchedule(s.ID); err != nil {
		return err
	}
	tx.schedules[s.ID] = s.Clone()
	return nil
}

func (tx *memoryTx) DeleteSchedule(id string) error {
	if _, err := tx.GetSchedule(id); err != nil {
		return err
	}
	delete(tx.schedules, id)
	if tx.added[id] {
		delete(tx.added, id)
		return nil
	}
	tx.deleted[id] = true
	return nil
}

func (tx *memoryTx) ListSchedules() ([]models.ScheduledTask, error) {
	base, err := tx.base.ListSchedules()
	if err != nil {
		return nil, err
	}
	out := make([]models.ScheduledTask, 0, len(base)+len(tx.schedules))
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s.ID] = true
		if tx.deleted[s.ID] {
			continue
		}
		if staged, ok := tx.schedules[s.ID]; ok {
			s = staged.Clone()
		}
		out = append(out, s)
	}
	for id, s := range tx.schedules {
		if !seen[id] {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// SQLStore keeps records as JSON payloads next to the columns used for
// filtering and ordering. Queries are written with '?' and rebound per driver.
type SQLStore struct {
	db     DBInterface
	driver string
}

func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, errors.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent sqlite transactions would hit SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// NewSQLStoreFromDB wraps an open connection, e.g. one owned by a test harness.
func NewSQLStoreFromDB(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Driver() string {
	return s.driver
}

// DB returns the underlying connection, or nil inside a transaction.
func (s *SQLStore) DB() *sqlx.DB {
	db, _ := s.db.(*sqlx.DB)
	return db
}

func (s *SQLStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &SQLStore{db: tx, driver: s.driver}, nil
	}
	return nil, errors.New("cannot begin transaction on unknown type")
}

func (s *SQLStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return errors.New("cannot commit: not a transaction")
}

func (s *SQLStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return errors.New("cannot rollback: not a transaction")
}

func (s *SQLStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

func (s *SQLStore) exec(query string, args ...interface{}) (int64, error) {
	res, err := s.db.Exec(s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) SaveTask(t models.TaskRecord) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "encode task %s", t.ID)
	}
	n, err := s.exec(`INSERT INTO task_records (id, kind, status, start_time, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, string(t.Kind), string(t.Status), t.StartTime.UnixNano(), string(payload))
	if err != nil {
		return errors.Wrapf(err, "save task %s", t.ID)
	}
	if n == 0 {
		return errors.Wrapf(storage.ErrAlreadyExists, "task %s", t.ID)
	}
	return nil
}

func (s *SQLStore) GetTask(id string) (models.TaskRecord, error) {
	var payload string
	err := s.db.Get(&payload, s.db.Rebind("SELECT payload FROM task_records WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskRecord{}, errors.Wrapf(storage.ErrNotFound, "task %s", id)
	}
	if err != nil {
		return models.TaskRecord{}, errors.Wrapf(err, "get task %s", id)
	}
	return decodeTask(payload)
}

func (s *SQLStore) UpdateTask(t models.TaskRecord) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "encode task %s", t.ID)
	}
	n, err := s.exec("UPDATE task_records SET kind = ?, status = ?, start_time = ?, payload = ? WHERE id = ?",
		string(t.Kind), string(t.Status), t.StartTime.UnixNano(), string(payload), t.ID)
	if err != nil {
		return errors.Wrapf(err, "update task %s", t.ID)
	}
	if n == 0 {
		return errors.Wrapf(storage.ErrNotFound, "task %s", t.ID)
	}
	return nil
}

func (s *SQLStore) ListTasks() ([]models.TaskRecord, error) {
	var payloads []string
	if err := s.db.Select(&payloads, "SELECT payload FROM task_records ORDER BY start_time, id"); err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	tasks := make([]models.TaskRecord, 0, len(payloads))
	for _, p := range payloads {
		t, err := decodeTask(p)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *SQLStore) CountTasks(status models.TaskStatus) (int, error) {
	var n int
	if err := s.db.Get(&n, s.db.Rebind("SELECT COUNT(*) FROM task_records WHERE status = ?"), string(status)); err != nil {
		return 0, errors.Wrapf(err, "count %s tasks", status)
	}
	return n, nil
}

func (s *SQLStore) SaveSchedule(sc models.ScheduledTask) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return errors.Wrapf(err, "encode scheduled task %s", sc.ID)
	}
	n, err := s.exec(`INSERT INTO scheduled_tasks (id, active, created_at, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		sc.ID, sc.Active, sc.CreatedAt.UnixNano(), string(payload))
	if err != nil {
		return errors.Wrapf(err, "save scheduled task %s", sc.ID)
	}
	if n == 0 {
		return errors.Wrapf(storage.ErrAlreadyExists, "scheduled task %s", sc.ID)
	}
	return nil
}

func (s *SQLStore) GetSchedule(id string) (models.ScheduledTask, error) {
	var payload string
	err := s.db.Get(&payload, s.db.Rebind("SELECT payload FROM scheduled_tasks WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ScheduledTask{}, errors.Wrapf(storage.ErrNotFound, "scheduled task %s", id)
	}
	if err != nil {
		return models.ScheduledTask{}, errors.Wrapf(err, "get scheduled task %s", id)
	}
	return decodeSchedule(payload)
}

func (s *SQLStore) UpdateSchedule(sc models.ScheduledTask) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return errors.Wrapf(err, "encode scheduled task %s", sc.ID)
	}
	n, err := s.exec("UPDATE scheduled_tasks SET active = ?, payload = ? WHERE id = ?", sc.Active, string(payload), sc.ID)
	if err != nil {
		return errors.Wrapf(err, "update scheduled task %s", sc.ID)
	}
	if n == 0 {
		return errors.Wrapf(storage.ErrNotFound, "scheduled task %s", sc.ID)
	}
	return nil
}

func (s *SQLStore) DeleteSchedule(id string) error {
	n, err := s.exec("DELETE FROM scheduled_tasks WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "delete scheduled task %s", id)
	}
	if n == 0 {
		return errors.Wrapf(storage.ErrNotFound, "scheduled task %s", id)
	}
	return nil
}

func (s *SQLStore) ListSchedules() ([]models.ScheduledTask, error) {
	var payloads []string
	if err := s.db.Select(&payloads, "SELECT payload FROM scheduled_tasks ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "list scheduled tasks")
	}
	schedules := make([]models.ScheduledTask, 0, len(payloads))
	for _, p := range payloads {
		sc, err := decodeSchedule(p)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, nil
}

func decodeTask(payload string) (models.TaskRecord, error) {
	var t models.TaskRecord
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return models.TaskRecord{}, errors.Wrap(err, "decode task")
	}
	return t, nil
}

func decodeSchedule(payload string) (models.ScheduledTask, error) {
	var sc models.ScheduledTask
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		return models.ScheduledTask{}, errors.Wrap(err, "decode scheduled task")
	}
	return sc, nil
}

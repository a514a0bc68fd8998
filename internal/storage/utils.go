package storage

import (
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/pkg/errors"
)

// InitStore opens the store selected by driver. SQL stores are migrated when
// migrate is set.
func InitStore(driver, dsn string, migrate bool) (storage.Store, error) {
	if driver == "" || driver == DriverMemory {
		return storage.NewMemoryStore(), nil
	}
	store, err := NewSQLStore(driver, dsn)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, errors.WithMessage(err, driver)
		}
	}
	return store, nil
}

package db

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/beacon-dev/beacon/internal/models"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Organization{},
		&models.Service{},
		&models.Incident{},
		&models.StatusChange{},
		&models.EmailSubscriber{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

// IsUniqueViolation reports whether err is a postgres duplicate-key error,
// which we surface as a Conflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// IsTransient reports whether err looks like a temporary store failure worth
// retrying: a dropped connection or a postgres connection/shutdown error
// (class 08 or 57).
func IsTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		return class == "08" || class == "57"
	}

	return false
}

// WithRetry runs fn, retrying transient store failures with a short backoff.
// Non-transient errors are returned immediately.
func WithRetry(attempts int, delay time.Duration, fn func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}

		time.Sleep(delay * time.Duration(i+1))
	}

	return err
}

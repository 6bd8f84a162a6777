// Package dbtest provides an in-memory database for package tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"presale/config"
	"presale/internal/database"

	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := &config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             fmt.Sprintf("file:presale_test_%d?mode=memory&cache=shared", seq.Add(1)),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	}
	db, err := database.NewDB(cfg, false)
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate test database: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

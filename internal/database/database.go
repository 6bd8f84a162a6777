package database

import (
	"fmt"
	"time"

	"presale/config"
	"presale/internal/models"
	"presale/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func NewDB(cfg *config.DatabaseConfig, development bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Error // Only log errors, not every SQL query
	if development {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.Driver == "sqlite" {
		// sqlite has a single writer; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("Database connected", "driver", cfg.Driver)
	return db, nil
}

// mysqlTableOptions makes wallets and purchase ids compare byte for byte.
// MySQL's default collation folds case, which would merge distinct wallets
// and distinct settlement signatures.
const mysqlTableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

const mysqlCollation = "utf8mb4_bin"

func migrateModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.Setting{},
	}
}

// AutoMigrate runs Gorm auto-migration for all models. On MySQL, tables are
// created with a binary collation and existing tables are converted to it.
func AutoMigrate(db *gorm.DB) error {
	isMySQL := db.Dialector.Name() == "mysql"
	if isMySQL {
		db = db.Set("gorm:table_options", mysqlTableOptions)
	}
	if err := db.AutoMigrate(migrateModels()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if isMySQL {
		if err := enforceBinaryCollation(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func enforceBinaryCollation(db *gorm.DB) error {
	for _, m := range migrateModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		table := stmt.Schema.Table
		var collation string
		err := db.Raw("SELECT TABLE_COLLATION FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?", table).
			Scan(&collation).Error
		if err != nil {
			return err
		}
		if collation == mysqlCollation {
			continue
		}
		logger.Warn("Converting table to binary collation", "table", table, "from", collation)
		err = db.Exec(fmt.Sprintf("ALTER TABLE `%s` CONVERT TO CHARACTER SET utf8mb4 COLLATE %s", table, mysqlCollation)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the database answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

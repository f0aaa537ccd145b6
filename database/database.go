package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"panellicense/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DefaultSQLitePath is used when no DSN is configured for sqlite.
const DefaultSQLitePath = "./panellicense.db"

// Open opens and pings the database. sqlite is limited to a single connection so writers never
// contend on the file lock.
func Open(driver, dsn string, maxOpenConns int) (*sql.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" {
		if driver != DriverSQLite {
			return nil, fmt.Errorf("database dsn is required for driver %q", driver)
		}
		dsn = DefaultSQLitePath
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	logger.WithFields(map[string]interface{}{"driver": driver}).Info("Database connection established")
	return db, nil
}

// CreateTables creates the license schema if it does not exist yet. It is safe to run repeatedly.
func CreateTables(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMySQL:
		statements = mysqlSchema
	case DriverSQLite, "":
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logger.Info("Database schema is up to date")
	return nil
}

// Unlimited entitlements are stored as NULL in the max_* columns. Timestamps are fixed width text.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS licenses (
		id VARCHAR(50) PRIMARY KEY,
		license_key VARCHAR(64) NOT NULL UNIQUE,
		user_id VARCHAR(100),
		tier VARCHAR(20) NOT NULL,
		domain VARCHAR(253),
		hardware_id VARCHAR(255),
		max_servers INTEGER,
		max_domains INTEGER,
		max_storage_gb INTEGER,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		activated_at VARCHAR(50),
		expires_at VARCHAR(50),
		grace_period_end VARCHAR(50),
		created_at VARCHAR(50) NOT NULL,
		updated_at VARCHAR(50) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_licenses_user ON licenses(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status)`,
	`CREATE INDEX IF NOT EXISTS idx_licenses_expires ON licenses(expires_at)`,

	`CREATE TABLE IF NOT EXISTS license_activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		license_id VARCHAR(50) NOT NULL,
		action VARCHAR(50) NOT NULL,
		actor VARCHAR(100) NOT NULL,
		details TEXT,
		created_at VARCHAR(50) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_license_activity_license ON license_activity_logs(license_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS licenses (
		id VARCHAR(50) PRIMARY KEY,
		license_key VARCHAR(64) NOT NULL UNIQUE,
		user_id VARCHAR(100),
		tier VARCHAR(20) NOT NULL,
		domain VARCHAR(253),
		hardware_id VARCHAR(255),
		max_servers INT,
		max_domains INT,
		max_storage_gb INT,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		activated_at VARCHAR(50),
		expires_at VARCHAR(50),
		grace_period_end VARCHAR(50),
		created_at VARCHAR(50) NOT NULL,
		updated_at VARCHAR(50) NOT NULL,
		INDEX idx_licenses_user (user_id),
		INDEX idx_licenses_status (status),
		INDEX idx_licenses_expires (expires_at)
	) ENGINE=InnoDB CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS license_activity_logs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		license_id VARCHAR(50) NOT NULL,
		action VARCHAR(50) NOT NULL,
		actor VARCHAR(100) NOT NULL,
		details LONGTEXT,
		created_at VARCHAR(50) NOT NULL,
		INDEX idx_license_activity_license (license_id)
	) ENGINE=InnoDB CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`,
}

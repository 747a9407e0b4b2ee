package database

import (
	"database/sql"
	"embed"
	"errors"
	stdlog "log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/security"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var DB *sql.DB

// Open opens the SQLite database at databasePath and brings the schema up to
// date. Pass ":memory:" for an in-memory database (tests).
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+databasePath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if databasePath == ":memory:" {
		// Each pooled connection to :memory: would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB opens the database into the package-level handle, exiting on failure.
func InitDB(databasePath string) {
	if logger.L != nil {
		logger.L.Info("Running database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Running database migrations for:", databasePath)
	}

	db, err := Open(databasePath)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to initialize database", "error", err)
		}
		stdlog.Fatalf("failed to initialize database at %s: %v", databasePath, err)
	}

	DB = db
	if logger.L != nil {
		logger.L.Info("Database schema up to date.")
	} else {
		stdlog.Println("Database schema up to date.")
	}
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SeedReferenceData inserts the category and fee-type vocabularies and the
// admin API user, skipping anything already present. Safe to call on every
// start.
func SeedReferenceData(db *sql.DB, adminUsername, adminPassword string) error {
	categories := []struct{ name, code string }{
		{"Transfer", "TRANSFER"},
		{"Payment", "PAYMENT"},
		{"Deposit", "DEPOSIT"},
		{"Withdrawal", "WITHDRAWAL"},
		{"Airtime Purchase", "AIRTIME"},
		{"Bill Payment", "BILL_PAYMENT"},
	}
	for _, c := range categories {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO categories (category_name, category_code, is_active) VALUES (?, ?, TRUE)`,
			c.name, c.code); err != nil {
			return err
		}
	}

	feeTypes := []string{"Transaction Fee", "Tax", "Service Charge", "Agent Commission", "Processing Fee"}
	for _, name := range feeTypes {
		if _, err := db.Exec(`INSERT OR IGNORE INTO fee_types (fee_name) VALUES (?)`, name); err != nil {
			return err
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, adminUsername).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		hash, err := security.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		if _, err := db.Exec(
			`INSERT INTO users (full_name, phone_number, username, password_hash, email_address) VALUES (?, ?, ?, ?, ?)`,
			"Admin User", "250788999999", adminUsername, hash, "admin@momo.com"); err != nil {
			return err
		}
		if logger.L != nil {
			logger.L.Info("Seeded admin user", "username", adminUsername)
		}
	}
	return nil
}

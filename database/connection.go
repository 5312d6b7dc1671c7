package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Database holds the GORM handle and the raw connection pool behind it.
// GORM serves the schema setup and API queries; the raw pool serves the
// writer's batched inserts, which bypass the ORM entirely.
type Database struct {
	db   *gorm.DB
	conn *sql.DB
}

// Connect opens one lib/pq connection pool and layers GORM on top of it,
// so the ORM path and the batch-insert path share pool limits.
func Connect(cfg Config) (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pool sizing for a steady batch-insert workload plus API reads.
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(2 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	log.Println("✅ Database connection established")

	return &Database{db: db, conn: conn}, nil
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	return d.conn.Ping()
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.conn != nil {
		log.Println("📡 Closing database connection...")
		return d.conn.Close()
	}
	return nil
}

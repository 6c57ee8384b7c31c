package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool sizing: the pipeline runs single-flight and the read API is light, so
// the pool stays small.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

var DB *sql.DB

// Connect opens the shared pool and verifies the connection. An empty
// connection string is rejected up front instead of failing on the first
// query.
func Connect(connStr string) error {
	if connStr == "" {
		return fmt.Errorf("db: connection string is empty (set DATABASE_URL)")
	}

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(maxOpenConns)
	DB.SetMaxIdleConns(maxIdleConns)
	DB.SetConnMaxLifetime(connMaxLifetime)

	return DB.Ping()
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}

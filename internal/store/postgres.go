// Package store owns the Postgres connections (sqlx for hand-written SQL,
// gorm for the declarative reference tables) and the repositories built on
// top of them.
package store

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/infinite-experiment/vatwatch/internal/config"
)

// DB is the sqlx handle used by the batch writer, completion detector,
// summarizer, and archiver for hand-written SQL.
var DB *sqlx.DB

// InitPostgres connects via sqlx, retrying briefly while Postgres starts up
// alongside the service in local/dev compose stacks.
func InitPostgres(cfg *config.Config) error {
	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}

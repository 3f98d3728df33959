package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/infinite-experiment/vatwatch/internal/logging"
)

// PgDB is the gorm handle used for the static sector-definition table; the
// summary tables are written through the sqlx handle.
var PgDB *gorm.DB

// InitPostgresORM opens the gorm connection used alongside the sqlx handle.
func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	PgDB = db
	logging.Info("connected to postgres via gorm")
	return db, nil
}

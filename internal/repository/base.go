package repository

import (
	"solarshare/internal/database"

	"gorm.io/gorm"
)

// readDB routes reads to the replica when the repository uses the primary pool.
func readDB(primary *gorm.DB) *gorm.DB {
	return database.GetReadDB(primary)
}

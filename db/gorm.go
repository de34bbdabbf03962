package db

import (
	"fmt"

	"soundreview/config"
	"soundreview/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectGorm opens a GORM handle onto the same database for the playlist
// repository. It coexists with the *sql.DB handle used by the core
// repositories; schema creation stays with InitSchema so the foreign keys
// and unique constraints are defined in one place.
func ConnectGorm(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	logger.Info("Successfully connected to the database with GORM")
	return gdb, nil
}

package db

import (
	"database/sql"
	"fmt"
	"time"

	"soundreview/config"
	"soundreview/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Connect opens the shared database handle. The handle is created once at
// startup, passed into every repository, and closed at shutdown.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(100)
	conn.SetConnMaxLifetime(time.Hour)

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return conn, nil
}

// InitSchema creates the tables if they don't exist. Comment and membership
// rows cascade with their track/playlist; credential rows are polymorphic
// and are removed in the resource delete transactions instead.
func InitSchema(conn *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id INT AUTO_INCREMENT PRIMARY KEY,
			uuid VARCHAR(36) NOT NULL UNIQUE,
			filename VARCHAR(255) NOT NULL,
			title VARCHAR(255) NOT NULL,
			duration DOUBLE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS playlists (
			id INT AUTO_INCREMENT PRIMARY KEY,
			uuid VARCHAR(36) NOT NULL UNIQUE,
			title VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			id INT AUTO_INCREMENT PRIMARY KEY,
			playlist_id INT NOT NULL,
			track_id INT NOT NULL,
			position INT NOT NULL,
			CONSTRAINT fk_playlist_tracks_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
			CONSTRAINT fk_playlist_tracks_track FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
			CONSTRAINT uq_playlist_track UNIQUE (playlist_id, track_id)
		);`,
		`CREATE TABLE IF NOT EXISTS credentials (
			id INT AUTO_INCREMENT PRIMARY KEY,
			resource_type VARCHAR(16) NOT NULL,
			resource_id INT NOT NULL,
			username VARCHAR(100) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_credential UNIQUE (username, resource_type, resource_id),
			INDEX idx_credentials_resource (resource_type, resource_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INT AUTO_INCREMENT PRIMARY KEY,
			track_id INT NOT NULL,
			parent_id INT,
			timestamp DOUBLE NOT NULL,
			username VARCHAR(100) NOT NULL,
			content TEXT NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
			CONSTRAINT fk_comments_track FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
			CONSTRAINT fk_comments_parent FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE,
			INDEX idx_comments_track_timestamp (track_id, timestamp)
		);`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	logger.Info("Database schema initialized")
	return nil
}

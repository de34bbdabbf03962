package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port == "" {
		t.Error("Port default is empty")
	}
	if cfg.DBName == "" {
		t.Error("DBName default is empty")
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		t.Error("admin credentials have no defaults")
	}
	if cfg.MaxUploadBytes <= 0 {
		t.Errorf("MaxUploadBytes = %d, want positive", cfg.MaxUploadBytes)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_USERNAME", "ops")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MAX_UPLOAD_MB", "10")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AdminUsername != "ops" {
		t.Errorf("AdminUsername = %q, want ops", cfg.AdminUsername)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL = false, want true")
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "not-a-bool")

	cfg := Load()

	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want default 0", cfg.RedisDB)
	}
	if cfg.MinioUseSSL {
		t.Error("MinioUseSSL = true, want default false")
	}
}

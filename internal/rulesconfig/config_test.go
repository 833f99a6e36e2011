package rulesconfig

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.CacheBackend != CacheBackendMemory {
		t.Errorf("expected default cache backend %q, got %q", CacheBackendMemory, cfg.CacheBackend)
	}
	if cfg.CacheSize != 4096 {
		t.Errorf("expected default cache size 4096, got %d", cfg.CacheSize)
	}
	if cfg.ServerAddr != ":8420" {
		t.Errorf("expected default server addr :8420, got %s", cfg.ServerAddr)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	configContent := `
cache_backend: redis
redis_addr: 127.0.0.1:6380
log_level: debug
`
	if err := os.WriteFile("valet.yml", []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	if cfg.CacheBackend != CacheBackendRedis {
		t.Errorf("expected cache backend redis, got %q", cfg.CacheBackend)
	}
	if cfg.RedisAddr != "127.0.0.1:6380" {
		t.Errorf("expected redis addr 127.0.0.1:6380, got %s", cfg.RedisAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	if err := os.WriteFile("valet.yml", []byte("cache_backend: memcached\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected an error for an unknown cache_backend, got nil")
	}
}

func TestEnsureHistoryDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{HistoryDB: tmpDir + "/nested/history.db"}

	if err := EnsureHistoryDir(cfg); err != nil {
		t.Fatalf("expected no error creating history dir, got %v", err)
	}
	if info, err := os.Stat(tmpDir + "/nested"); err != nil || !info.IsDir() {
		t.Errorf("expected nested directory to exist, err=%v", err)
	}
}

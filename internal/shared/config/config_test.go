package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "MTURK_SANDBOX", "OBJECT_STORE", "AWS_REGION", "S3_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.Sandbox {
		t.Fatalf("expected sandbox off by default")
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.AWSRegion != "us-east-1" {
		t.Fatalf("expected us-east-1, got %q", cfg.AWSRegion)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("MTURK_SANDBOX", "true")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("S3_BUCKET", "turk-results")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if !cfg.Sandbox {
		t.Fatalf("expected sandbox on")
	}
	if cfg.ObjectStoreType != "s3" || cfg.S3Bucket != "turk-results" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
}

func TestGetEnvBoolIgnoresGarbage(t *testing.T) {
	t.Setenv("MTURK_SANDBOX", "maybe")
	if getEnvBool("MTURK_SANDBOX", true) != true {
		t.Fatalf("expected default on parse failure")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "# comment\nMTURK_TEST_KEY=\"abc\"\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MTURK_TEST_KEY", "")

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("MTURK_TEST_KEY"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGIN", " https://a.example , ,https://b.example")
	t.Setenv("API_TOKEN", "  secret ")

	cfg := Load()
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
	if cfg.APIToken != "secret" {
		t.Fatalf("expected trimmed token, got %q", cfg.APIToken)
	}
}

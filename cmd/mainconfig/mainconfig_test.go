package mainconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("PHONE_NUMBER_ID=from-dotenv\nVERIFY_TOKEN=dotenv-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VERIFY_TOKEN", "from-env")
	t.Setenv("PHONE_NUMBER_ID", "")
	os.Unsetenv("PHONE_NUMBER_ID")

	cfg, loaded := Load(path)
	if !loaded {
		t.Fatalf("expected dotenv file to be reported as loaded")
	}
	if cfg.PhoneNumberID != "from-dotenv" {
		t.Fatalf("expected PHONE_NUMBER_ID from dotenv, got %q", cfg.PhoneNumberID)
	}
	if cfg.VerifyToken != "from-env" {
		t.Fatalf("expected environment to win over dotenv, got %q", cfg.VerifyToken)
	}
}

func TestLoadMissingDotenv(t *testing.T) {
	_, loaded := Load(filepath.Join(t.TempDir(), "missing.env"))
	if loaded {
		t.Fatalf("expected missing dotenv to report not loaded")
	}
}

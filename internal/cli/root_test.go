package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("a missing env file must be ignored, got %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Fatalf("empty path must be ignored, got %v", err)
	}
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORTAL_TEST_BACKEND=http://from-file\nPORTAL_TEST_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORTAL_TEST_BACKEND", "http://from-env")
	t.Setenv("PORTAL_TEST_LEVEL", "")
	os.Unsetenv("PORTAL_TEST_LEVEL")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("PORTAL_TEST_BACKEND"); got != "http://from-env" {
		t.Fatalf("existing variable overridden: %s", got)
	}
	if got := os.Getenv("PORTAL_TEST_LEVEL"); got != "debug" {
		t.Fatalf("expected debug from file, got %q", got)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "fetch": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

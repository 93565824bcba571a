package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  s3cret \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	got, err := Load("api token", path, "ignored-inline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("expected trimmed file content, got %q", got)
	}
}

func TestLoadInlineValue(t *testing.T) {
	got, err := Load("api token", "", " inline ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected trimmed inline value, got %q", got)
	}
}

func TestLoadEmptyIsError(t *testing.T) {
	if _, err := Load("api token", "", "  "); err == nil {
		t.Fatalf("expected error for unconfigured secret")
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load("api token", filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatalf("expected error for missing secret file")
	}
}

func TestLoadEmptyFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	if _, err := Load("api token", path, ""); err == nil {
		t.Fatalf("expected error for empty secret file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileAppliesDefaultsAndWritesBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxen.ini")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Int("window", "width", 1280); got != 1280 {
		t.Fatalf("width = %d, want 1280", got)
	}
	if got := c.Bool("dev", "fps_logging", false); got != false {
		t.Fatalf("fps_logging = %v, want false", got)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Load(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Int("window", "width", -1); got != 1280 {
		t.Fatalf("persisted width = %d, want 1280", got)
	}
}

func TestExistingValuesSurviveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxen.ini")
	if err := os.WriteFile(path, []byte("[window]\nwidth = 1920\nheight = 1080\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Int("window", "width", 1280); got != 1920 {
		t.Fatalf("width = %d, want 1920", got)
	}
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join("/tmp/custom-cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}

	expected := filepath.Join("/tmp/custom-config", appName)
	if dir != expected {
		t.Errorf("configDir() with XDG_CONFIG_HOME = %q, want %q", dir, expected)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output string
		input  string
		want   string
	}{
		{"", "photo.png", "photo"},
		{"", "dir/photo.jpeg", "dir/photo"},
		{"out", "photo.png", "out"},
		{"out.json", "photo.png", "out"},
		{"out.vxg", "photo.png", "out"},
		{"out.custom", "photo.png", "out.custom"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	if got := artifactPath("out", "height", "json", true); got != "out.json" {
		t.Errorf("single grid path = %q, want out.json", got)
	}
	if got := artifactPath("out", "height", "json", false); got != "out_height.json" {
		t.Errorf("multi grid path = %q, want out_height.json", got)
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != "json" {
		t.Errorf("parseFormats(\"\") = %v, want [json]", got)
	}
	got := parseFormats("html,png")
	if len(got) != 2 || got[0] != "html" || got[1] != "png" {
		t.Errorf("parseFormats(\"html,png\") = %v", got)
	}
}

func TestLoadGridRejectsUnknownExtension(t *testing.T) {
	if _, err := loadGrid("grid.stl"); err == nil {
		t.Fatal("unknown extension should fail")
	}
}

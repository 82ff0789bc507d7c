package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir == "" {
		t.Fatal("cacheDir() returned empty string")
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", dir, appName)
	}
	if !strings.Contains(dir, ".cache") {
		t.Errorf("cacheDir() = %q, should contain '.cache'", dir)
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	want := filepath.Join("/tmp/xdg-test", appName)
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	want := filepath.Join("/tmp/xdg-test", appName)
	if dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	content := `[observer]
latitude = 40.1
longitude = -88.2
timezone = -6.0

[camera]
focal_length_mm = 50.0
`
	if err := os.MkdirAll(filepath.Join(dir, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, appName, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.hasObserver() {
		t.Error("hasObserver() = false, want true")
	}
	if cfg.Observer.Latitude != 40.1 || cfg.Observer.Longitude != -88.2 {
		t.Errorf("observer = (%v, %v), want (40.1, -88.2)", cfg.Observer.Latitude, cfg.Observer.Longitude)
	}
	if cfg.Observer.Timezone == nil || *cfg.Observer.Timezone != -6 {
		t.Errorf("timezone = %v, want -6", cfg.Observer.Timezone)
	}
	if cfg.Camera.FocalLengthMM != 50 {
		t.Errorf("focal length = %v, want 50", cfg.Camera.FocalLengthMM)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.hasObserver() || cfg.Observer.Timezone != nil {
		t.Errorf("loadConfig() = %+v, want zero config for a missing file", cfg)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"calculate", "detect", "overlay", "chart", "compare", "inspect", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing %q", name)
		}
	}
}

func TestParseAnchor(t *testing.T) {
	tests := []struct {
		in      string
		x, y    int
		wantErr bool
	}{
		{"100,200", 100, 200, false},
		{" 5 , 7 ", 5, 7, false},
		{"100", 0, 0, true},
		{"a,b", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		x, y, err := parseAnchor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAnchor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (x != tt.x || y != tt.y) {
			t.Errorf("parseAnchor(%q) = (%d, %d), want (%d, %d)", tt.in, x, y, tt.x, tt.y)
		}
	}
}

func TestParseChartKinds(t *testing.T) {
	if got := parseChartKinds(""); len(got) != 1 || got[0] != chartSky {
		t.Errorf("parseChartKinds(\"\") = %v, want [sky]", got)
	}
	got := parseChartKinds("sky,eot")
	if len(got) != 2 || got[0] != "sky" || got[1] != "eot" {
		t.Errorf("parseChartKinds(\"sky,eot\") = %v", got)
	}
}

func TestChartPath(t *testing.T) {
	tests := []struct {
		output string
		kind   string
		multi  bool
		want   string
	}{
		{"out.png", "sky", false, "out.png"},
		{"out.png", "sky", true, "out_sky.png"},
		{"charts", "eot", true, "charts_eot.png"},
	}
	for _, tt := range tests {
		if got := chartPath(tt.output, tt.kind, tt.multi); got != tt.want {
			t.Errorf("chartPath(%q, %q, %v) = %q, want %q", tt.output, tt.kind, tt.multi, got, tt.want)
		}
	}
}

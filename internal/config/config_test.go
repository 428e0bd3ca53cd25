package config_test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edumarques81/stellar-cue/internal/config"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := config.FromEnv()

	if cfg.ListenAddr != ":3001" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.MPDHost != "localhost" || cfg.MPDPort != 6600 {
		t.Errorf("MPD = %s:%d", cfg.MPDHost, cfg.MPDPort)
	}
	if cfg.TickInterval != 250*time.Millisecond || cfg.FrameInterval != 33*time.Millisecond {
		t.Errorf("intervals = %v, %v", cfg.TickInterval, cfg.FrameInterval)
	}
	if cfg.LoopThreshold != 0.2 || cfg.LoopOvershoot != 1 || cfg.AdvanceDebounce != 400*time.Millisecond {
		t.Errorf("transport = %v %v %v", cfg.LoopThreshold, cfg.LoopOvershoot, cfg.AdvanceDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STELLAR_ADDR", ":9000")
	t.Setenv("MPD_PORT", "6601")
	t.Setenv("STELLAR_TICK_INTERVAL", "100ms")
	t.Setenv("STELLAR_LOOP_THRESHOLD", "0.5")
	t.Setenv("STELLAR_DEBUG", "true")
	t.Setenv("STELLAR_DEFAULT_PERFORMER", "Resident")

	cfg := config.FromEnv()

	if cfg.ListenAddr != ":9000" || cfg.MPDPort != 6601 {
		t.Errorf("addr/port = %q/%d", cfg.ListenAddr, cfg.MPDPort)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.LoopThreshold != 0.5 || !cfg.Debug || cfg.DefaultPerformer != "Resident" {
		t.Errorf("cfg = %+v", cfg)
	}

	sess := cfg.Session()
	if sess.TickInterval != 100*time.Millisecond || sess.Transport.LoopThreshold != 0.5 || sess.DefaultPerformer != "Resident" {
		t.Errorf("Session() = %+v", sess)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MPD_PORT", "sixty-six")
	t.Setenv("STELLAR_FRAME_INTERVAL", "fast")
	t.Setenv("STELLAR_DEBUG", "maybe")

	cfg := config.FromEnv()

	if cfg.MPDPort != 6600 || cfg.FrameInterval != 33*time.Millisecond || cfg.Debug {
		t.Errorf("invalid values should fall back to defaults: %+v", cfg)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	const key = "STELLAR_MUSIC_DIR"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set in the environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=/srv/music\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.Load(path)
	if cfg.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q", cfg.MusicDir)
	}
}

func TestLoadDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("STELLAR_DB_PATH", "/env/cues.db")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("STELLAR_DB_PATH=/file/cues.db\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if cfg := config.Load(path); cfg.DBPath != "/env/cues.db" {
		t.Errorf("DBPath = %q, environment should win", cfg.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	if cfg == nil {
		t.Fatal("Load should fall back to the environment")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{"-addr", ":4000", "-mpd-port", "6700", "-tick", "500ms", "-debug", "-nav-epsilon", "2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.ListenAddr != ":4000" || cfg.MPDPort != 6700 || cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Debug || cfg.NavEpsilon != 2 {
		t.Errorf("debug/epsilon = %v/%v", cfg.Debug, cfg.NavEpsilon)
	}
}

func TestValidate(t *testing.T) {
	cfg := config.FromEnv()
	cfg.TickInterval = 0
	cfg.MPDPort = 70000
	cfg.NavEpsilon = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"tick interval", "mpd port", "epsilon"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

// Package config loads Stellar Cue settings from a .env file, the
// environment and command line flags, in increasing priority.
package config

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string
	StaticDir  string
	MaxClients int // concurrent non-localhost Socket.IO clients

	MPDHost     string
	MPDPort     int
	MPDPassword string
	MusicDir    string // MPD music_directory, for library-relative URIs

	DBPath string

	TickInterval  time.Duration
	FrameInterval time.Duration

	LoopThreshold   float64
	LoopOvershoot   float64
	AdvanceDebounce time.Duration
	NavEpsilon      float64

	DefaultPerformer string
	Debug            bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid number setting")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid boolean setting")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid duration setting")
	}
	return fallback
}

// Load reads the given .env files (".env" when none are named) into the
// environment without overriding variables already set, then builds the
// configuration from the environment.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("No .env file found, using environment and defaults")
		} else {
			log.Warn().Err(err).Msg("Failed to load .env file")
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables and defaults.
func FromEnv() *Config {
	sess := session.DefaultConfig()
	tr := transport.DefaultConfig()

	return &Config{
		ListenAddr: getEnv("STELLAR_ADDR", ":3001"),
		StaticDir:  getEnv("STELLAR_STATIC_DIR", ""),
		MaxClients: getEnvInt("STELLAR_MAX_CLIENTS", 4),

		MPDHost:     getEnv("MPD_HOST", "localhost"),
		MPDPort:     getEnvInt("MPD_PORT", 6600),
		MPDPassword: os.Getenv("MPD_PASSWORD"),
		MusicDir:    getEnv("STELLAR_MUSIC_DIR", "/var/lib/mpd/music"),

		DBPath: getEnv("STELLAR_DB_PATH", "data/cues.db"),

		TickInterval:  getEnvDuration("STELLAR_TICK_INTERVAL", sess.TickInterval),
		FrameInterval: getEnvDuration("STELLAR_FRAME_INTERVAL", sess.FrameInterval),

		LoopThreshold:   getEnvFloat("STELLAR_LOOP_THRESHOLD", tr.LoopThreshold),
		LoopOvershoot:   getEnvFloat("STELLAR_LOOP_OVERSHOOT", tr.LoopOvershoot),
		AdvanceDebounce: getEnvDuration("STELLAR_ADVANCE_DEBOUNCE", tr.AdvanceDebounce),
		NavEpsilon:      getEnvFloat("STELLAR_NAV_EPSILON", tr.NavEpsilon),

		DefaultPerformer: getEnv("STELLAR_DEFAULT_PERFORMER", ""),
		Debug:            getEnvBool("STELLAR_DEBUG", false),
	}
}

// RegisterFlags binds every setting to a flag whose default is the current
// value, so flags override the environment.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.ListenAddr, "addr", c.ListenAddr, "HTTP listen address")
	flags.StringVar(&c.StaticDir, "static", c.StaticDir, "Directory to serve static files from (optional)")
	flags.IntVar(&c.MaxClients, "max-clients", c.MaxClients, "Maximum concurrent remote Socket.IO clients")

	flags.StringVar(&c.MPDHost, "mpd-host", c.MPDHost, "MPD host")
	flags.IntVar(&c.MPDPort, "mpd-port", c.MPDPort, "MPD port")
	flags.StringVar(&c.MPDPassword, "mpd-password", c.MPDPassword, "MPD password")
	flags.StringVar(&c.MusicDir, "music-dir", c.MusicDir, "MPD music directory")

	flags.StringVar(&c.DBPath, "db", c.DBPath, "Cue database path")

	flags.DurationVar(&c.TickInterval, "tick", c.TickInterval, "Playback status poll interval")
	flags.DurationVar(&c.FrameInterval, "frame", c.FrameInterval, "Visual frame interval")

	flags.Float64Var(&c.LoopThreshold, "loop-threshold", c.LoopThreshold, "Seconds before a segment end that loop or advance")
	flags.Float64Var(&c.LoopOvershoot, "loop-overshoot", c.LoopOvershoot, "Seconds past a segment end that still loop")
	flags.DurationVar(&c.AdvanceDebounce, "advance-debounce", c.AdvanceDebounce, "Minimum time between automatic advances")
	flags.Float64Var(&c.NavEpsilon, "nav-epsilon", c.NavEpsilon, "Tolerance in seconds for previous/next navigation")

	flags.StringVar(&c.DefaultPerformer, "performer", c.DefaultPerformer, "Performer used when a file has no tagged artist")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
}

// Session returns the session settings derived from c.
func (c *Config) Session() session.Config {
	cfg := session.DefaultConfig()
	cfg.TickInterval = c.TickInterval
	cfg.FrameInterval = c.FrameInterval
	cfg.DefaultPerformer = c.DefaultPerformer
	cfg.Transport = transport.Config{
		LoopThreshold:   c.LoopThreshold,
		LoopOvershoot:   c.LoopOvershoot,
		AdvanceDebounce: c.AdvanceDebounce,
		NavEpsilon:      c.NavEpsilon,
	}
	return cfg
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick interval must be positive"))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, errors.New("frame interval must be positive"))
	}
	if c.MPDPort <= 0 || c.MPDPort > 65535 {
		errs = append(errs, errors.New("mpd port out of range"))
	}
	if c.LoopThreshold < 0 || c.LoopOvershoot < 0 || c.NavEpsilon < 0 {
		errs = append(errs, errors.New("loop threshold, overshoot and epsilon must not be negative"))
	}
	return errors.Join(errs...)
}

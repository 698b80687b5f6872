// Package config loads engine and backend configuration from a YAML
// file; the Postgres DSN alone comes from .env / shell environment
// variables, the way the teacher's tooling supplies database credentials.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shazoom/internal/dsp"
	"shazoom/internal/engine"
	"shazoom/internal/fingerprint"
	"shazoom/internal/match"
	"shazoom/internal/peaks"
)

// StoreBackend names which store.Store implementation to construct.
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendSQLite   StoreBackend = "sqlite"
	BackendPostgres StoreBackend = "postgres"
)

// Config is the fully-resolved configuration for a shazoom process.
type Config struct {
	Backend StoreBackend `yaml:"backend"`

	// SQLitePath is the database file path when Backend is sqlite.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string when Backend is postgres. It
	// is expected to come from the POSTGRES_DSN environment variable
	// (see Load) rather than being checked into YAML.
	PostgresDSN string `yaml:"-"`

	Engine engine.Params `yaml:"-"`

	Spectrogram dspYAML `yaml:"spectrogram"`
	Peaks       peaksYAML `yaml:"peaks"`
	Fingerprint fingerprintYAML `yaml:"fingerprint"`
	Match       matchYAML `yaml:"match"`
}

type dspYAML struct {
	SampleRate int `yaml:"sample_rate"`
	Window     int `yaml:"window"`
	Hop        int `yaml:"hop"`
}

type peaksYAML struct {
	NeighborhoodSize int     `yaml:"neighborhood_size"`
	Percentile       float64 `yaml:"percentile"`
}

type fingerprintYAML struct {
	TargetZoneMinSeconds float64 `yaml:"target_zone_min_seconds"`
	TargetZoneMaxSeconds float64 `yaml:"target_zone_max_seconds"`
}

type matchYAML struct {
	MinMatches int `yaml:"min_matches"`
}

// Default returns the engine's documented default configuration, backed
// by an in-memory store.
func Default() Config {
	d := engine.DefaultParams()
	return Config{
		Backend:    BackendMemory,
		SQLitePath: "shazoom.db",
		Engine:     d,
		Spectrogram: dspYAML{
			SampleRate: d.Spectrogram.SR,
			Window:     d.Spectrogram.W,
			Hop:        d.Spectrogram.H,
		},
		Peaks: peaksYAML{
			NeighborhoodSize: d.Peaks.N,
			Percentile:       d.Peaks.Percentile,
		},
		Fingerprint: fingerprintYAML{
			TargetZoneMinSeconds: d.Fingerprint.TMin,
			TargetZoneMaxSeconds: d.Fingerprint.TMax,
		},
		Match: matchYAML{
			MinMatches: d.Match.MinMatches,
		},
	}
}

// Load reads YAML config from path, overlays POSTGRES_DSN from the
// environment (after loading envPath, typically ".env", if present),
// and resolves engine.Params from the merged values. A missing path is
// not an error: Load falls back to Default and still applies the
// environment overlay.
func Load(path, envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		// Absence of a .env file is expected in production, where real
		// environment variables are set directly.
		_ = godotenv.Load(envPath)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")

	cfg.Engine = engine.Params{
		Spectrogram: dsp.Params{SR: cfg.Spectrogram.SampleRate, W: cfg.Spectrogram.Window, H: cfg.Spectrogram.Hop},
		Peaks:       peaks.Params{N: cfg.Peaks.NeighborhoodSize, Percentile: cfg.Peaks.Percentile},
		Fingerprint: fingerprint.Params{TMin: cfg.Fingerprint.TargetZoneMinSeconds, TMax: cfg.Fingerprint.TargetZoneMaxSeconds},
		Match:       match.Params{MinMatches: cfg.Match.MinMatches},
	}

	if cfg.Backend == BackendPostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("config: backend is postgres but POSTGRES_DSN is not set")
	}

	return cfg, nil
}

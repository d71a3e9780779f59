// Package config handles configuration loading, validation, and live
// reload for the sparsh daemon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Server configuration for the WebSocket endpoints.
	Server ServerConfig `toml:"server"`

	// Gesture configuration for the pinch state machine.
	Gesture GestureConfig `toml:"gesture"`

	// Filter configuration for the smoothing pipeline.
	Filter FilterConfig `toml:"filter"`

	// Fabric configuration for pointer synthesis.
	Fabric FabricConfig `toml:"fabric"`

	// Stillness configuration for the hover monitor.
	Stillness StillnessConfig `toml:"stillness"`

	// Storage configuration for trace persistence.
	Storage StorageConfig `toml:"storage"`

	// Wiring configuration for the channel manifest files.
	Wiring WiringConfig `toml:"wiring"`
}

// ServerConfig holds the listen settings for the local daemon.
type ServerConfig struct {
	// Addr is the host:port the HTTP/WebSocket server binds to.
	Addr string `toml:"addr"`
}

// GestureConfig holds pinch state machine tuning.
type GestureConfig struct {
	// ConfHigh is the confidence a pinch frame must reach to count
	// toward a commit.
	ConfHigh float64 `toml:"conf_high"`

	// ConfLow is the confidence below which a frame counts toward a
	// release.
	ConfLow float64 `toml:"conf_low"`

	// CommitFrames is how many qualifying frames arm a commit.
	CommitFrames int `toml:"commit_frames"`

	// ReleaseFrames is how many qualifying frames arm a release.
	ReleaseFrames int `toml:"release_frames"`
}

// FilterConfig holds One Euro filter tuning.
type FilterConfig struct {
	MinCutoff float64 `toml:"min_cutoff"`
	Beta      float64 `toml:"beta"`
	DCutoff   float64 `toml:"d_cutoff"`

	// Rate is the expected tick rate in Hz.
	Rate float64 `toml:"rate"`

	// PredictTicks extrapolates the filtered position forward by this
	// many ticks of estimated velocity. Zero disables prediction.
	PredictTicks int `toml:"predict_ticks"`
}

// FabricConfig holds pointer synthesis tuning.
type FabricConfig struct {
	// SnapRadius is the magnetism capture radius in CSS pixels.
	SnapRadius float64 `toml:"snap_radius"`

	// SpeedThreshold is the normalized per-tick speed below which
	// magnetism engages.
	SpeedThreshold float64 `toml:"speed_threshold"`
}

// StillnessConfig holds hover monitor tuning.
type StillnessConfig struct {
	// SpeedThreshold is the normalized per-tick speed below which a
	// hand counts as still.
	SpeedThreshold float64 `toml:"speed_threshold"`

	// Ticks is how many consecutive still ticks raise the stillness
	// edge.
	Ticks int `toml:"ticks"`
}

// StorageConfig holds trace persistence settings.
type StorageConfig struct {
	// Path is the SQLite database file for trace sessions.
	Path string `toml:"path"`

	// Trace enables the trace recorder plugin.
	Trace bool `toml:"trace"`
}

// WiringConfig holds the channel manifest file locations.
type WiringConfig struct {
	// ManifestPath is the wiring manifest file.
	ManifestPath string `toml:"manifest_path"`

	// DeferredPath is the deferred plugin registry file. May point at
	// a missing file, which reads as an empty registry.
	DeferredPath string `toml:"deferred_path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:7830",
		},
		Gesture: GestureConfig{
			ConfHigh:      0.64,
			ConfLow:       0.50,
			CommitFrames:  5,
			ReleaseFrames: 3,
		},
		Filter: FilterConfig{
			MinCutoff:    1.0,
			Beta:         0.5,
			DCutoff:      1.0,
			Rate:         60,
			PredictTicks: 0,
		},
		Fabric: FabricConfig{
			SnapRadius:     24,
			SpeedThreshold: 0.002,
		},
		Stillness: StillnessConfig{
			SpeedThreshold: 0.002,
			Ticks:          30,
		},
		Storage: StorageConfig{
			Path:  filepath.Join(dataDir(), "sparsh.db"),
			Trace: false,
		},
		Wiring: WiringConfig{
			ManifestPath: "wiring.json",
			DeferredPath: "deferred.json",
		},
	}
}

// Validate checks the configuration for values the daemon cannot run
// with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Gesture.ConfHigh <= c.Gesture.ConfLow {
		errs = append(errs, fmt.Errorf(
			"gesture.conf_high (%v) must exceed gesture.conf_low (%v)",
			c.Gesture.ConfHigh, c.Gesture.ConfLow))
	}
	if c.Gesture.CommitFrames < 1 {
		errs = append(errs, errors.New("gesture.commit_frames must be at least 1"))
	}
	if c.Gesture.ReleaseFrames < 1 {
		errs = append(errs, errors.New("gesture.release_frames must be at least 1"))
	}
	if c.Filter.MinCutoff <= 0 || c.Filter.DCutoff <= 0 {
		errs = append(errs, errors.New("filter cutoffs must be positive"))
	}
	if c.Filter.Rate <= 0 {
		errs = append(errs, errors.New("filter.rate must be positive"))
	}
	if c.Filter.PredictTicks < 0 {
		errs = append(errs, errors.New("filter.predict_ticks must not be negative"))
	}
	if c.Fabric.SnapRadius < 0 {
		errs = append(errs, errors.New("fabric.snap_radius must not be negative"))
	}
	if c.Stillness.Ticks < 1 {
		errs = append(errs, errors.New("stillness.ticks must be at least 1"))
	}
	if c.Wiring.ManifestPath == "" {
		errs = append(errs, errors.New("wiring.manifest_path must not be empty"))
	}
	return errors.Join(errs...)
}

// dataDir returns the platform data directory for the daemon.
//
//   - macOS:   ~/Library/Application Support/sparsh/
//   - Linux:   ~/.local/share/sparsh/
//   - Windows: %APPDATA%\sparsh\
//
// Falls back to ~/.sparsh if platform detection fails.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sparsh"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "sparsh")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sparsh")
		}
		return filepath.Join(home, "sparsh")
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "sparsh")
		}
		return filepath.Join(home, ".local", "share", "sparsh")
	default:
		return filepath.Join(home, ".sparsh")
	}
}

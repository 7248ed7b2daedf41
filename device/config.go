package device

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liteluna/usblink/board"
	"github.com/liteluna/usblink/link"
)

// TimingOverrides replaces individual link thresholds. Zero keeps the value
// derived from the board clock.
type TimingOverrides struct {
	BusReset uint32 `yaml:"bus_reset"`
	Chirp    uint32 `yaml:"chirp"`
	Toggle   uint32 `yaml:"toggle"`
}

// Config describes a simulated device.
type Config struct {
	Board        string          `yaml:"board"`      // Built-in profile name
	BoardFile    string          `yaml:"board_file"` // Profile YAML, wins over Board
	Identity     Identity        `yaml:"identity"`
	Timings      TimingOverrides `yaml:"timings"`
	ChirpTicks   int             `yaml:"chirp_ticks"`
	InQueueDepth int             `yaml:"in_queue_depth"`
	PollInterval time.Duration   `yaml:"poll_interval"`
}

// DefaultPollInterval bounds how long the simulator blocks on a read before
// checking for cancellation.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultConfig returns the configuration of the streamer on the sim board.
func DefaultConfig() Config {
	return Config{
		Board:        "sim",
		Identity:     DefaultIdentity(),
		ChirpTicks:   DefaultChirpTicks,
		InQueueDepth: DefaultInQueueDepth,
		PollInterval: DefaultPollInterval,
	}
}

// ParseConfig decodes YAML over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse device config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read device config: %w", err)
	}
	return ParseConfig(data)
}

// Profile resolves the board profile.
func (c Config) Profile() (board.Profile, error) {
	if c.BoardFile != "" {
		return board.Load(c.BoardFile)
	}
	return board.Lookup(c.Board)
}

// LinkTimings derives link thresholds from the board clock and applies the
// overrides.
func (c Config) LinkTimings(p board.Profile) (link.Timings, error) {
	t := link.DefaultTimings(p.USBClockHz)
	if c.Timings.BusReset != 0 {
		t.BusReset = c.Timings.BusReset
	}
	if c.Timings.Chirp != 0 {
		t.Chirp = c.Timings.Chirp
	}
	if c.Timings.Toggle != 0 {
		t.Toggle = c.Timings.Toggle
	}
	return t, t.Validate()
}

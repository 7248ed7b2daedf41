package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/liteluna/usblink/link"
	"github.com/liteluna/usblink/pkg"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want func(*Config)
	}{
		{"empty", "", func(*Config) {}},
		{
			name: "identity override",
			yaml: "identity:\n  product: test streamer\n  product_id: 0x1234\n",
			want: func(c *Config) {
				c.Identity.Product = "test streamer"
				c.Identity.ProductID = 0x1234
			},
		},
		{
			name: "tuning",
			yaml: "board: deca\nchirp_ticks: 32\nin_queue_depth: 8\npoll_interval: 250ms\ntimings:\n  toggle: 100\n",
			want: func(c *Config) {
				c.Board = "deca"
				c.ChirpTicks = 32
				c.InQueueDepth = 8
				c.PollInterval = 250 * time.Millisecond
				c.Timings.Toggle = 100
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseConfig() error = %v", err)
			}
			want := DefaultConfig()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ParseConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := ParseConfig([]byte("chirp_ticks: [")); err == nil {
		t.Error("ParseConfig(invalid) error = nil")
	}
}

func TestConfig_LinkTimings(t *testing.T) {
	tests := []struct {
		name  string
		board string
		over  TimingOverrides
		want  link.Timings
	}{
		{"sim", "sim", TimingOverrides{}, link.Timings{BusReset: 599, Chirp: 299, Toggle: 7494}},
		{"deca", "deca", TimingOverrides{}, link.Timings{BusReset: 600, Chirp: 300, Toggle: 7500}},
		{"override", "sim", TimingOverrides{BusReset: 6, Chirp: 4, Toggle: 10}, link.Timings{BusReset: 6, Chirp: 4, Toggle: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Board = tt.board
			cfg.Timings = tt.over
			p, err := cfg.Profile()
			if err != nil {
				t.Fatalf("Profile() error = %v", err)
			}
			got, err := cfg.LinkTimings(p)
			if err != nil {
				t.Fatalf("LinkTimings() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LinkTimings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfig_Profile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Board = "nonexistent"
	if _, err := cfg.Profile(); !errors.Is(err, pkg.ErrUnknownBoard) {
		t.Errorf("Profile() error = %v, want %v", err, pkg.ErrUnknownBoard)
	}

	dir := t.TempDir()
	boardPath := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(boardPath, []byte("base: deca\nname: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "device.yaml")
	if err := os.WriteFile(cfgPath, []byte("board: sim\nboard_file: "+boardPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	p, err := cfg.Profile()
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.Name != "custom" || p.USBClockHz != 60e6 {
		t.Errorf("Profile() = %+v, want custom at 60 MHz", p)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadConfig(missing) error = nil")
	}
}

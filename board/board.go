// Package board describes the capabilities of the boards a usblink device
// can run on.
//
// A profile is a fixed descriptor selected at construction: it names the
// reset pin and its polarity, the ULPI pin naming convention and the USB
// clock frequency used to scale link timers. Nothing is discovered by
// inspecting pad names at run time.
package board

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/liteluna/usblink/pkg"
)

// Polarity is the active level of a reset signal.
type Polarity int

// Reset polarities.
const (
	ActiveHigh Polarity = iota // rst: asserted when high
	ActiveLow                  // rst_n/reset_n: asserted when low
)

// String returns the YAML spelling of the polarity.
func (p Polarity) String() string {
	if p == ActiveLow {
		return "active-low"
	}
	return "active-high"
}

// Asserted reports whether a pin at level holds the reset.
func (p Polarity) Asserted(level bool) bool {
	if p == ActiveLow {
		return !level
	}
	return level
}

// Level returns the pin level that asserts (or releases) the reset.
func (p Polarity) Level(assert bool) bool {
	if p == ActiveLow {
		return !assert
	}
	return assert
}

// MarshalYAML implements yaml.Marshaler.
func (p Polarity) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Polarity) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "active-high", "high":
		*p = ActiveHigh
	case "active-low", "low":
		*p = ActiveLow
	default:
		return fmt.Errorf("line %d: polarity %q: %w", node.Line, s, pkg.ErrInvalidParameter)
	}
	return nil
}

// Reset names the PHY reset pin and how to drive it.
type Reset struct {
	Pin      string   `yaml:"pin"`
	Polarity Polarity `yaml:"polarity"`
}

// ULPIPins is the naming convention a platform uses for its ULPI bus.
type ULPIPins struct {
	Clock string `yaml:"clk"`
	Data  string `yaml:"data"`
	Dir   string `yaml:"dir"`
	Next  string `yaml:"nxt"`
	Stop  string `yaml:"stp"`
}

// Profile is the capability descriptor of one board.
type Profile struct {
	Name       string   `yaml:"name"`
	USBClockHz float64  `yaml:"usb_clock_hz"`
	Reset      Reset    `yaml:"reset"`
	ULPI       ULPIPins `yaml:"ulpi"`
}

// Validate checks that a profile can drive a link.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("board name: %w", pkg.ErrInvalidParameter)
	}
	if p.USBClockHz <= 0 {
		return fmt.Errorf("board %s: usb_clock_hz %v: %w", p.Name, p.USBClockHz, pkg.ErrInvalidParameter)
	}
	if p.Reset.Pin == "" {
		return fmt.Errorf("board %s: reset pin: %w", p.Name, pkg.ErrInvalidParameter)
	}
	return nil
}

var defaultULPI = ULPIPins{Clock: "clk", Data: "data", Dir: "dir", Next: "nxt", Stop: "stp"}

// builtin holds the profiles shipped with usblink.
var builtin = map[string]Profile{
	// The verilator simulation ties the USB domain to sys_clk at 1/16.68ns.
	"sim": {
		Name:       "sim",
		USBClockHz: 1e12 / 16680,
		Reset:      Reset{Pin: "rst", Polarity: ActiveHigh},
		ULPI:       defaultULPI,
	},
	"deca": {
		Name:       "deca",
		USBClockHz: 60e6,
		Reset:      Reset{Pin: "reset_n", Polarity: ActiveLow},
		ULPI:       defaultULPI,
	},
	"generic-ulpi": {
		Name:       "generic-ulpi",
		USBClockHz: 60e6,
		Reset:      Reset{Pin: "rst", Polarity: ActiveHigh},
		ULPI:       defaultULPI,
	},
}

// Lookup returns a built-in profile by name.
func Lookup(name string) (Profile, error) {
	p, ok := builtin[name]
	if !ok {
		return Profile{}, fmt.Errorf("%q: %w", name, pkg.ErrUnknownBoard)
	}
	return p, nil
}

// Names lists the built-in profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse decodes a profile from YAML. A document may either spell out a full
// profile or name a built-in one with `base:` and override fields.
func Parse(data []byte) (Profile, error) {
	var head struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Profile{}, fmt.Errorf("parse board: %w", err)
	}

	var p Profile
	if head.Base != "" {
		base, err := Lookup(head.Base)
		if err != nil {
			return Profile{}, err
		}
		p = base
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse board: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}

	pkg.LogDebug(pkg.ComponentBoard, "board profile",
		"name", p.Name,
		"usbClockHz", p.USBClockHz,
		"reset", p.Reset.Pin,
		"polarity", p.Reset.Polarity)
	return p, nil
}

// Load reads a profile from a YAML file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read board: %w", err)
	}
	return Parse(data)
}

package host

import (
	"errors"
	"testing"

	"github.com/liteluna/usblink/pkg"
)

func TestDeviceState_String(t *testing.T) {
	tests := []struct {
		state DeviceState
		want  string
	}{
		{DeviceStateDefault, "Default"},
		{DeviceStateAddress, "Address"},
		{DeviceStateConfigured, "Configured"},
		{DeviceState(99), "Unknown State (99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("DeviceState.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

var streamerConfig = []byte{
	0x09, 0x02, 0x20, 0x00, 0x01, 0x01, 0x00, 0x80, 0xFA,
	0x09, 0x04, 0x00, 0x00, 0x02, 0xFF, 0x00, 0x00, 0x00,
	0x07, 0x05, 0x01, 0x02, 0x00, 0x02, 0x00,
	0x07, 0x05, 0x81, 0x02, 0x00, 0x02, 0x00,
}

func TestParseConfigurationTree(t *testing.T) {
	var info DeviceInfo
	if err := info.parseConfigurationTree(streamerConfig); err != nil {
		t.Fatalf("parseConfigurationTree() error = %v", err)
	}
	if info.Config.TotalLength != 32 || info.Config.ConfigurationValue != 1 || info.Config.MaxPower != 250 {
		t.Errorf("Config = %+v", info.Config)
	}
	if len(info.Interfaces) != 1 || info.Interfaces[0].InterfaceClass != 0xFF {
		t.Errorf("Interfaces = %+v", info.Interfaces)
	}
	if len(info.Endpoints) != 2 {
		t.Fatalf("Endpoints = %+v, want 2", info.Endpoints)
	}

	in, ok := info.Endpoint(0x81)
	if !ok {
		t.Fatal("Endpoint(0x81) missing")
	}
	if !in.IsIn() || !in.IsBulk() || in.Number() != 1 || in.MaxPacketSize != 512 {
		t.Errorf("Endpoint(0x81) = %+v", in)
	}
	if _, ok := info.Endpoint(0x82); ok {
		t.Error("Endpoint(0x82) found")
	}

	truncated := append([]byte(nil), streamerConfig[:30]...)
	if err := info.parseConfigurationTree(truncated); !errors.Is(err, pkg.ErrDescriptorTooShort) {
		t.Errorf("parseConfigurationTree(truncated) error = %v, want %v", err, pkg.ErrDescriptorTooShort)
	}
}

func TestParseDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		data  []byte
		want  error
	}{
		{"device short", func(b []byte) error { _, err := ParseDeviceDescriptor(b); return err }, make([]byte, 8), pkg.ErrDescriptorTooShort},
		{"device type", func(b []byte) error { _, err := ParseDeviceDescriptor(b); return err }, make([]byte, 18), pkg.ErrDescriptorTypeMismatch},
		{"config type", func(b []byte) error { _, err := ParseConfigurationDescriptor(b); return err }, streamerConfig[9:18], pkg.ErrDescriptorTypeMismatch},
		{"interface short", func(b []byte) error { _, err := ParseInterfaceDescriptor(b); return err }, streamerConfig[9:12], pkg.ErrDescriptorTooShort},
		{"endpoint type", func(b []byte) error { _, err := ParseEndpointDescriptor(b); return err }, streamerConfig[:7], pkg.ErrDescriptorTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseString(t *testing.T) {
	got, err := parseString([]byte{0x0C, 0x03, 'L', 0, 'i', 0, 't', 0, 'e', 0, 'X', 0})
	if err != nil {
		t.Fatalf("parseString() error = %v", err)
	}
	if got != "LiteX" {
		t.Errorf("parseString() = %q, want %q", got, "LiteX")
	}

	// bLength beyond the data is clamped.
	got, err = parseString([]byte{0x20, 0x03, 'h', 0, 'i', 0})
	if err != nil || got != "hi" {
		t.Errorf("parseString(clamped) = %q, %v", got, err)
	}
}

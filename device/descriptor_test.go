package device

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

var (
	streamerDevice = []byte{
		0x12, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40,
		0xD0, 0x16, 0x3B, 0x0F, 0x00, 0x00, 0x01, 0x02,
		0x03, 0x01,
	}
	streamerConfig = []byte{
		0x09, 0x02, 0x20, 0x00, 0x01, 0x01, 0x00, 0x80, 0xFA,
		0x09, 0x04, 0x00, 0x00, 0x02, 0xFF, 0x00, 0x00, 0x00,
		0x07, 0x05, 0x01, 0x02, 0x00, 0x02, 0x00,
		0x07, 0x05, 0x81, 0x02, 0x00, 0x02, 0x00,
	}
)

func TestBuildDescriptors(t *testing.T) {
	d := BuildDescriptors(DefaultIdentity())

	var dev [DeviceDescriptorSize]byte
	if n := d.Device.MarshalTo(dev[:]); n != DeviceDescriptorSize {
		t.Fatalf("MarshalTo() = %d, want %d", n, DeviceDescriptorSize)
	}
	if diff := cmp.Diff(streamerDevice, dev[:]); diff != "" {
		t.Errorf("device descriptor mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(streamerConfig, d.Configuration); diff != "" {
		t.Errorf("configuration mismatch (-want +got):\n%s", diff)
	}

	strings := map[uint8]string{
		StringIndexManufacturer: "LiteX",
		StringIndexProduct:      "liteluna bulk streamer",
		StringIndexSerial:       "no serial",
	}
	for idx, want := range strings {
		got, err := ParseStringDescriptor(d.Strings[idx])
		if err != nil {
			t.Fatalf("ParseStringDescriptor(%d) error = %v", idx, err)
		}
		if got != want {
			t.Errorf("string %d = %q, want %q", idx, got, want)
		}
	}
	if diff := cmp.Diff([]byte{0x04, 0x03, 0x09, 0x04}, d.Strings[StringIndexLanguages]); diff != "" {
		t.Errorf("language descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptors_Endpoints(t *testing.T) {
	d := BuildDescriptors(DefaultIdentity())
	want := []EndpointDescriptor{
		{EndpointAddress: 0x01, Attributes: EndpointTypeBulk, MaxPacketSize: 512},
		{EndpointAddress: 0x81, Attributes: EndpointTypeBulk, MaxPacketSize: 512},
	}
	if diff := cmp.Diff(want, d.Endpoints()); diff != "" {
		t.Errorf("Endpoints() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDeviceDescriptor(t *testing.T) {
	got, err := ParseDeviceDescriptor(streamerDevice)
	if err != nil {
		t.Fatalf("ParseDeviceDescriptor() error = %v", err)
	}
	want := BuildDescriptors(DefaultIdentity()).Device
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDeviceDescriptor() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"short", streamerDevice[:8], pkg.ErrDescriptorTooShort},
		{"wrong type", streamerConfig[:18], pkg.ErrDescriptorTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDeviceDescriptor(tt.data); !errors.Is(err, tt.err) {
				t.Errorf("ParseDeviceDescriptor() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestParseConfigurationDescriptor(t *testing.T) {
	got, err := ParseConfigurationDescriptor(streamerConfig)
	if err != nil {
		t.Fatalf("ParseConfigurationDescriptor() error = %v", err)
	}
	want := ConfigurationDescriptor{
		TotalLength:        32,
		NumInterfaces:      1,
		ConfigurationValue: ConfigurationID,
		Attributes:         ConfigAttrBusPowered,
		MaxPower:           250,
	}
	if got != want {
		t.Errorf("ParseConfigurationDescriptor() = %+v, want %+v", got, want)
	}
}

func TestQualifierTo(t *testing.T) {
	d := BuildDescriptors(DefaultIdentity()).Device
	var buf [QualifierSize]byte
	if n := d.QualifierTo(buf[:]); n != QualifierSize {
		t.Fatalf("QualifierTo() = %d, want %d", n, QualifierSize)
	}
	want := []byte{0x0A, packet.DescriptorTypeDeviceQualifier, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40, 0x01, 0x00}
	if diff := cmp.Diff(want, buf[:]); diff != "" {
		t.Errorf("qualifier mismatch (-want +got):\n%s", diff)
	}
	if n := d.QualifierTo(buf[:4]); n != 0 {
		t.Errorf("QualifierTo(short) = %d, want 0", n)
	}
}

func TestStringDescriptor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
	}{
		{"empty", "", 2},
		{"ascii", "LiteX", 12},
		{"non-ascii", "Grüße", 12},
		{"truncated", string(make([]rune, 200)), 254},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := StringDescriptor(tt.in)
			if len(b) != tt.size || int(b[0]) != tt.size {
				t.Fatalf("StringDescriptor(%q) size = %d/%d, want %d", tt.in, len(b), b[0], tt.size)
			}
			if tt.name == "truncated" {
				return
			}
			got, err := ParseStringDescriptor(b)
			if err != nil {
				t.Fatalf("ParseStringDescriptor() error = %v", err)
			}
			if got != tt.in {
				t.Errorf("round trip = %q, want %q", got, tt.in)
			}
		})
	}

	if _, err := ParseStringDescriptor([]byte{0x04}); !errors.Is(err, pkg.ErrDescriptorTooShort) {
		t.Errorf("ParseStringDescriptor(short) error = %v", err)
	}
	if _, err := ParseStringDescriptor([]byte{0x02, 0x01}); !errors.Is(err, pkg.ErrDescriptorTypeMismatch) {
		t.Errorf("ParseStringDescriptor(device) error = %v", err)
	}
}

package host

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// Driver defaults.
const (
	DefaultAddress        = 1
	DefaultTimeout        = time.Second
	DefaultNAKRetries     = 1000
	DefaultMaxPacketSize0 = 64
	DefaultMaxPacketSize  = 512 // High-speed bulk
	MaxDescriptorSize     = 512
)

// DeviceState is the state of a device as the host has driven it.
type DeviceState uint8

// Device states.
const (
	DeviceStateDefault    DeviceState = iota // At address 0
	DeviceStateAddress                       // Assigned an address
	DeviceStateConfigured                    // Configuration selected
)

// String returns a human-readable state description.
func (s DeviceState) String() string {
	switch s {
	case DeviceStateDefault:
		return "Default"
	case DeviceStateAddress:
		return "Address"
	case DeviceStateConfigured:
		return "Configured"
	default:
		return fmt.Sprintf("Unknown State (%d)", s)
	}
}

// Endpoint transfer types.
const (
	EndpointTypeControl     = 0x00
	EndpointTypeIsochronous = 0x01
	EndpointTypeBulk        = 0x02
	EndpointTypeInterrupt   = 0x03
)

// DeviceDescriptor represents a USB device descriptor.
type DeviceDescriptor struct {
	USBVersion        uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

// DeviceDescriptorSize is the size of a device descriptor.
const DeviceDescriptorSize = 18

// ParseDeviceDescriptor parses a device descriptor.
func ParseDeviceDescriptor(data []byte) (DeviceDescriptor, error) {
	if err := checkHeader(data, DeviceDescriptorSize, packet.DescriptorTypeDevice); err != nil {
		return DeviceDescriptor{}, err
	}
	return DeviceDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(data[2:]),
		DeviceClass:       data[4],
		DeviceSubClass:    data[5],
		DeviceProtocol:    data[6],
		MaxPacketSize0:    data[7],
		VendorID:          binary.LittleEndian.Uint16(data[8:]),
		ProductID:         binary.LittleEndian.Uint16(data[10:]),
		DeviceVersion:     binary.LittleEndian.Uint16(data[12:]),
		ManufacturerIndex: data[14],
		ProductIndex:      data[15],
		SerialNumberIndex: data[16],
		NumConfigurations: data[17],
	}, nil
}

// ConfigurationDescriptor represents a USB configuration descriptor header.
type ConfigurationDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	ConfigurationIndex uint8
	Attributes         uint8
	MaxPower           uint8
}

// ConfigurationDescriptorSize is the size of a configuration descriptor header.
const ConfigurationDescriptorSize = 9

// ParseConfigurationDescriptor parses a configuration descriptor header.
func ParseConfigurationDescriptor(data []byte) (ConfigurationDescriptor, error) {
	if err := checkHeader(data, ConfigurationDescriptorSize, packet.DescriptorTypeConfiguration); err != nil {
		return ConfigurationDescriptor{}, err
	}
	return ConfigurationDescriptor{
		TotalLength:        binary.LittleEndian.Uint16(data[2:]),
		NumInterfaces:      data[4],
		ConfigurationValue: data[5],
		ConfigurationIndex: data[6],
		Attributes:         data[7],
		MaxPower:           data[8],
	}, nil
}

// InterfaceDescriptor represents a USB interface descriptor.
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	InterfaceIndex    uint8
}

// InterfaceDescriptorSize is the size of an interface descriptor.
const InterfaceDescriptorSize = 9

// ParseInterfaceDescriptor parses an interface descriptor.
func ParseInterfaceDescriptor(data []byte) (InterfaceDescriptor, error) {
	if err := checkHeader(data, InterfaceDescriptorSize, packet.DescriptorTypeInterface); err != nil {
		return InterfaceDescriptor{}, err
	}
	return InterfaceDescriptor{
		InterfaceNumber:   data[2],
		AlternateSetting:  data[3],
		NumEndpoints:      data[4],
		InterfaceClass:    data[5],
		InterfaceSubClass: data[6],
		InterfaceProtocol: data[7],
		InterfaceIndex:    data[8],
	}, nil
}

// EndpointDescriptor represents a USB endpoint descriptor.
type EndpointDescriptor struct {
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// EndpointDescriptorSize is the size of an endpoint descriptor.
const EndpointDescriptorSize = 7

// ParseEndpointDescriptor parses an endpoint descriptor.
func ParseEndpointDescriptor(data []byte) (EndpointDescriptor, error) {
	if err := checkHeader(data, EndpointDescriptorSize, packet.DescriptorTypeEndpoint); err != nil {
		return EndpointDescriptor{}, err
	}
	return EndpointDescriptor{
		EndpointAddress: data[2],
		Attributes:      data[3],
		MaxPacketSize:   binary.LittleEndian.Uint16(data[4:]),
		Interval:        data[6],
	}, nil
}

// Number returns the endpoint number (0-15).
func (e *EndpointDescriptor) Number() uint8 {
	return e.EndpointAddress & 0x0F
}

// IsIn returns true if this is an IN endpoint.
func (e *EndpointDescriptor) IsIn() bool {
	return e.EndpointAddress&0x80 != 0
}

// TransferType returns the transfer type.
func (e *EndpointDescriptor) TransferType() uint8 {
	return e.Attributes & 0x03
}

// IsBulk returns true if this is a bulk endpoint.
func (e *EndpointDescriptor) IsBulk() bool {
	return e.TransferType() == EndpointTypeBulk
}

func checkHeader(data []byte, size int, descType uint8) error {
	if len(data) < size {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != descType {
		return pkg.ErrDescriptorTypeMismatch
	}
	return nil
}

package device

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// Class codes used by the streamer.
const (
	ClassPerInterface = 0x00 // Class defined at interface level
	ClassVendor       = 0xFF // Vendor specific
)

// USB release numbers (BCD).
const (
	USBVersion20 = 0x0200
)

// Configuration attribute bits.
const (
	ConfigAttrBusPowered   = 0x80 // Reserved, always set
	ConfigAttrSelfPowered  = 0x40
	ConfigAttrRemoteWakeup = 0x20
)

// Endpoint transfer types (bmAttributes bits 1:0).
const (
	EndpointTypeControl     = 0x00
	EndpointTypeIsochronous = 0x01
	EndpointTypeBulk        = 0x02
	EndpointTypeInterrupt   = 0x03
)

// DeviceDescriptor is a USB device descriptor (18 bytes).
type DeviceDescriptor struct {
	USBVersion        uint16 // bcdUSB
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16 // bcdDevice
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

// DeviceDescriptorSize is the size of a device descriptor in bytes.
const DeviceDescriptorSize = 18

// MarshalTo serializes the device descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *DeviceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < DeviceDescriptorSize {
		return 0
	}
	buf[0] = DeviceDescriptorSize
	buf[1] = packet.DescriptorTypeDevice
	binary.LittleEndian.PutUint16(buf[2:4], d.USBVersion)
	buf[4] = d.DeviceClass
	buf[5] = d.DeviceSubClass
	buf[6] = d.DeviceProtocol
	buf[7] = d.MaxPacketSize0
	binary.LittleEndian.PutUint16(buf[8:10], d.VendorID)
	binary.LittleEndian.PutUint16(buf[10:12], d.ProductID)
	binary.LittleEndian.PutUint16(buf[12:14], d.DeviceVersion)
	buf[14] = d.ManufacturerIndex
	buf[15] = d.ProductIndex
	buf[16] = d.SerialNumberIndex
	buf[17] = d.NumConfigurations
	return DeviceDescriptorSize
}

// ParseDeviceDescriptor parses a device descriptor.
func ParseDeviceDescriptor(data []byte) (DeviceDescriptor, error) {
	if len(data) < DeviceDescriptorSize {
		return DeviceDescriptor{}, pkg.ErrDescriptorTooShort
	}
	if data[1] != packet.DescriptorTypeDevice {
		return DeviceDescriptor{}, pkg.ErrDescriptorTypeMismatch
	}
	return DeviceDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(data[2:4]),
		DeviceClass:       data[4],
		DeviceSubClass:    data[5],
		DeviceProtocol:    data[6],
		MaxPacketSize0:    data[7],
		VendorID:          binary.LittleEndian.Uint16(data[8:10]),
		ProductID:         binary.LittleEndian.Uint16(data[10:12]),
		DeviceVersion:     binary.LittleEndian.Uint16(data[12:14]),
		ManufacturerIndex: data[14],
		ProductIndex:      data[15],
		SerialNumberIndex: data[16],
		NumConfigurations: data[17],
	}, nil
}

// QualifierSize is the size of a device qualifier descriptor in bytes.
const QualifierSize = 10

// QualifierTo writes the device qualifier derived from d to buf. A
// high-speed device answers it with its full-speed capabilities, which for
// the streamer match its high-speed ones.
func (d *DeviceDescriptor) QualifierTo(buf []byte) int {
	if len(buf) < QualifierSize {
		return 0
	}
	buf[0] = QualifierSize
	buf[1] = packet.DescriptorTypeDeviceQualifier
	binary.LittleEndian.PutUint16(buf[2:4], d.USBVersion)
	buf[4] = d.DeviceClass
	buf[5] = d.DeviceSubClass
	buf[6] = d.DeviceProtocol
	buf[7] = d.MaxPacketSize0
	buf[8] = d.NumConfigurations
	buf[9] = 0
	return QualifierSize
}

// ConfigurationDescriptor is a USB configuration descriptor header (9 bytes).
type ConfigurationDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	ConfigurationIndex uint8
	Attributes         uint8
	MaxPower           uint8 // 2 mA units
}

// ConfigurationDescriptorSize is the size of a configuration descriptor in bytes.
const ConfigurationDescriptorSize = 9

// MarshalTo serializes the configuration descriptor to buf.
func (c *ConfigurationDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < ConfigurationDescriptorSize {
		return 0
	}
	buf[0] = ConfigurationDescriptorSize
	buf[1] = packet.DescriptorTypeConfiguration
	binary.LittleEndian.PutUint16(buf[2:4], c.TotalLength)
	buf[4] = c.NumInterfaces
	buf[5] = c.ConfigurationValue
	buf[6] = c.ConfigurationIndex
	buf[7] = c.Attributes
	buf[8] = c.MaxPower
	return ConfigurationDescriptorSize
}

// ParseConfigurationDescriptor parses a configuration descriptor header.
func ParseConfigurationDescriptor(data []byte) (ConfigurationDescriptor, error) {
	if len(data) < ConfigurationDescriptorSize {
		return ConfigurationDescriptor{}, pkg.ErrDescriptorTooShort
	}
	if data[1] != packet.DescriptorTypeConfiguration {
		return ConfigurationDescriptor{}, pkg.ErrDescriptorTypeMismatch
	}
	return ConfigurationDescriptor{
		TotalLength:        binary.LittleEndian.Uint16(data[2:4]),
		NumInterfaces:      data[4],
		ConfigurationValue: data[5],
		ConfigurationIndex: data[6],
		Attributes:         data[7],
		MaxPower:           data[8],
	}, nil
}

// InterfaceDescriptor is a USB interface descriptor (9 bytes).
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	InterfaceIndex    uint8
}

// InterfaceDescriptorSize is the size of an interface descriptor in bytes.
const InterfaceDescriptorSize = 9

// MarshalTo serializes the interface descriptor to buf.
func (i *InterfaceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < InterfaceDescriptorSize {
		return 0
	}
	buf[0] = InterfaceDescriptorSize
	buf[1] = packet.DescriptorTypeInterface
	buf[2] = i.InterfaceNumber
	buf[3] = i.AlternateSetting
	buf[4] = i.NumEndpoints
	buf[5] = i.InterfaceClass
	buf[6] = i.InterfaceSubClass
	buf[7] = i.InterfaceProtocol
	buf[8] = i.InterfaceIndex
	return InterfaceDescriptorSize
}

// EndpointDescriptor is a USB endpoint descriptor (7 bytes).
type EndpointDescriptor struct {
	EndpointAddress uint8 // Number with direction bit
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// EndpointDescriptorSize is the size of an endpoint descriptor in bytes.
const EndpointDescriptorSize = 7

// MarshalTo serializes the endpoint descriptor to buf.
func (e *EndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = packet.DescriptorTypeEndpoint
	buf[2] = e.EndpointAddress
	buf[3] = e.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], e.MaxPacketSize)
	buf[6] = e.Interval
	return EndpointDescriptorSize
}

// ParseEndpointDescriptor parses an endpoint descriptor.
func ParseEndpointDescriptor(data []byte) (EndpointDescriptor, error) {
	if len(data) < EndpointDescriptorSize {
		return EndpointDescriptor{}, pkg.ErrDescriptorTooShort
	}
	if data[1] != packet.DescriptorTypeEndpoint {
		return EndpointDescriptor{}, pkg.ErrDescriptorTypeMismatch
	}
	return EndpointDescriptor{
		EndpointAddress: data[2],
		Attributes:      data[3],
		MaxPacketSize:   binary.LittleEndian.Uint16(data[4:6]),
		Interval:        data[6],
	}, nil
}

// StringDescriptor encodes s as a UTF-16LE string descriptor, truncated to
// the 255-byte descriptor limit.
func StringDescriptor(s string) []byte {
	units := utf16.Encode([]rune(s))
	if limit := (255 - 2) / 2; len(units) > limit {
		units = units[:limit]
	}
	buf := make([]byte, 2+2*len(units))
	buf[0] = uint8(len(buf))
	buf[1] = packet.DescriptorTypeString
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2+2*i:], u)
	}
	return buf
}

// LanguageDescriptor encodes string descriptor zero listing langIDs.
func LanguageDescriptor(langIDs ...uint16) []byte {
	buf := make([]byte, 2+2*len(langIDs))
	buf[0] = uint8(len(buf))
	buf[1] = packet.DescriptorTypeString
	for i, id := range langIDs {
		binary.LittleEndian.PutUint16(buf[2+2*i:], id)
	}
	return buf
}

// ParseStringDescriptor decodes a UTF-16LE string descriptor.
func ParseStringDescriptor(data []byte) (string, error) {
	if len(data) < 2 || int(data[0]) > len(data) || data[0] < 2 {
		return "", pkg.ErrDescriptorTooShort
	}
	if data[1] != packet.DescriptorTypeString {
		return "", pkg.ErrDescriptorTypeMismatch
	}
	n := (int(data[0]) - 2) / 2
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2+2*i:])
	}
	return string(utf16.Decode(units)), nil
}

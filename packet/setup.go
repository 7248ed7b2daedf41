package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// Standard request codes (USB 2.0 Table 9-4).
const (
	RequestGetStatus        = 0x00
	RequestClearFeature     = 0x01
	RequestSetFeature       = 0x03
	RequestSetAddress       = 0x05
	RequestGetDescriptor    = 0x06
	RequestSetDescriptor    = 0x07
	RequestGetConfiguration = 0x08
	RequestSetConfiguration = 0x09
	RequestGetInterface     = 0x0A
	RequestSetInterface     = 0x0B
	RequestSynchFrame       = 0x0C
)

// Descriptor types (USB 2.0 Table 9-5).
const (
	DescriptorTypeDevice          = 0x01
	DescriptorTypeConfiguration   = 0x02
	DescriptorTypeString          = 0x03
	DescriptorTypeInterface       = 0x04
	DescriptorTypeEndpoint        = 0x05
	DescriptorTypeDeviceQualifier = 0x06
)

// Feature selectors (USB 2.0 Table 9-6).
const (
	FeatureEndpointHalt       = 0x00
	FeatureDeviceRemoteWakeup = 0x01
	FeatureTestMode           = 0x02
)

// bmRequestType fields (USB 2.0 Table 9-2).
const (
	RequestDirectionMask = 0x80
	RequestTypeMask      = 0x60
	RequestRecipientMask = 0x1F

	RequestHostToDevice = 0x00
	RequestDeviceToHost = 0x80

	RequestTypeStandard = 0x00
	RequestTypeClass    = 0x20
	RequestTypeVendor   = 0x40

	RecipientDevice    = 0x00
	RecipientInterface = 0x01
	RecipientEndpoint  = 0x02
	RecipientOther     = 0x03
)

// LangIDUSEnglish is the language of the string descriptors usblink serves.
const LangIDUSEnglish = 0x0409

// SetupSize is the size of a SETUP data stage in bytes.
const SetupSize = 8

// SetupPacket is the 8-byte request carried by the DATA0 packet following
// a SETUP token.
type SetupPacket struct {
	RequestType uint8  // bmRequestType
	Request     uint8  // bRequest
	Value       uint16 // wValue
	Index       uint16 // wIndex
	Length      uint16 // wLength
}

// ParseSetup decodes a setup request.
func ParseSetup(data []byte) (SetupPacket, error) {
	if len(data) < SetupSize {
		return SetupPacket{}, fmt.Errorf("%d bytes: %w", len(data), pkg.ErrSetupPacketTooShort)
	}
	return SetupPacket{
		RequestType: data[0],
		Request:     data[1],
		Value:       binary.LittleEndian.Uint16(data[2:4]),
		Index:       binary.LittleEndian.Uint16(data[4:6]),
		Length:      binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// Bytes returns the 8-byte encoding.
func (s SetupPacket) Bytes() []byte {
	b := make([]byte, SetupSize)
	b[0] = s.RequestType
	b[1] = s.Request
	binary.LittleEndian.PutUint16(b[2:4], s.Value)
	binary.LittleEndian.PutUint16(b[4:6], s.Index)
	binary.LittleEndian.PutUint16(b[6:8], s.Length)
	return b
}

// IsDeviceToHost reports whether the data stage flows to the host.
func (s SetupPacket) IsDeviceToHost() bool {
	return s.RequestType&RequestDirectionMask == RequestDeviceToHost
}

// Type returns the request type bits.
func (s SetupPacket) Type() uint8 {
	return s.RequestType & RequestTypeMask
}

// IsStandard reports whether this is a standard request.
func (s SetupPacket) IsStandard() bool {
	return s.Type() == RequestTypeStandard
}

// Recipient returns the recipient bits.
func (s SetupPacket) Recipient() uint8 {
	return s.RequestType & RequestRecipientMask
}

// DescriptorType returns the descriptor type in the high byte of wValue.
func (s SetupPacket) DescriptorType() uint8 {
	return uint8(s.Value >> 8)
}

// DescriptorIndex returns the descriptor index in the low byte of wValue.
func (s SetupPacket) DescriptorIndex() uint8 {
	return uint8(s.Value)
}

// String returns a human-readable representation of the request.
func (s SetupPacket) String() string {
	dir := "OUT"
	if s.IsDeviceToHost() {
		dir = "IN"
	}
	return fmt.Sprintf("SETUP[%s type=%#02x req=%#02x value=%#04x index=%#04x len=%d]",
		dir, s.RequestType, s.Request, s.Value, s.Index, s.Length)
}

// GetDescriptor builds a GET_DESCRIPTOR request.
func GetDescriptor(descType, index uint8, langID, length uint16) SetupPacket {
	return SetupPacket{
		RequestType: RequestDeviceToHost | RequestTypeStandard | RecipientDevice,
		Request:     RequestGetDescriptor,
		Value:       uint16(descType)<<8 | uint16(index),
		Index:       langID,
		Length:      length,
	}
}

// SetAddress builds a SET_ADDRESS request.
func SetAddress(address uint8) SetupPacket {
	return SetupPacket{
		RequestType: RequestHostToDevice | RequestTypeStandard | RecipientDevice,
		Request:     RequestSetAddress,
		Value:       uint16(address),
	}
}

// SetConfiguration builds a SET_CONFIGURATION request.
func SetConfiguration(config uint8) SetupPacket {
	return SetupPacket{
		RequestType: RequestHostToDevice | RequestTypeStandard | RecipientDevice,
		Request:     RequestSetConfiguration,
		Value:       uint16(config),
	}
}

// GetConfiguration builds a GET_CONFIGURATION request.
func GetConfiguration() SetupPacket {
	return SetupPacket{
		RequestType: RequestDeviceToHost | RequestTypeStandard | RecipientDevice,
		Request:     RequestGetConfiguration,
		Length:      1,
	}
}

// GetStatus builds a GET_STATUS request.
func GetStatus(recipient uint8, index uint16) SetupPacket {
	return SetupPacket{
		RequestType: RequestDeviceToHost | RequestTypeStandard | recipient&RequestRecipientMask,
		Request:     RequestGetStatus,
		Index:       index,
		Length:      2,
	}
}

// ClearFeature builds a CLEAR_FEATURE request.
func ClearFeature(recipient uint8, feature, index uint16) SetupPacket {
	return SetupPacket{
		RequestType: RequestHostToDevice | RequestTypeStandard | recipient&RequestRecipientMask,
		Request:     RequestClearFeature,
		Value:       feature,
		Index:       index,
	}
}

// SetFeature builds a SET_FEATURE request.
func SetFeature(recipient uint8, feature, index uint16) SetupPacket {
	return SetupPacket{
		RequestType: RequestHostToDevice | RequestTypeStandard | recipient&RequestRecipientMask,
		Request:     RequestSetFeature,
		Value:       feature,
		Index:       index,
	}
}

// GetInterface builds a GET_INTERFACE request.
func GetInterface(iface uint8) SetupPacket {
	return SetupPacket{
		RequestType: RequestDeviceToHost | RequestTypeStandard | RecipientInterface,
		Request:     RequestGetInterface,
		Index:       uint16(iface),
		Length:      1,
	}
}

// SetInterface builds a SET_INTERFACE request.
func SetInterface(iface, alt uint8) SetupPacket {
	return SetupPacket{
		RequestType: RequestHostToDevice | RequestTypeStandard | RecipientInterface,
		Request:     RequestSetInterface,
		Value:       uint16(alt),
		Index:       uint16(iface),
	}
}

package device

import (
	"github.com/liteluna/usblink/packet"
)

// String descriptor indices.
const (
	StringIndexLanguages    = 0
	StringIndexManufacturer = 1
	StringIndexProduct      = 2
	StringIndexSerial       = 3
)

// Identity is what a device tells the host about itself.
type Identity struct {
	VendorID      uint16 `yaml:"vendor_id"`
	ProductID     uint16 `yaml:"product_id"`
	DeviceVersion uint16 `yaml:"device_version"`
	Manufacturer  string `yaml:"manufacturer"`
	Product       string `yaml:"product"`
	Serial        string `yaml:"serial"`
}

// DefaultIdentity returns the identity of the liteluna bulk streamer.
func DefaultIdentity() Identity {
	return Identity{
		VendorID:     0x16D0,
		ProductID:    0x0F3B,
		Manufacturer: "LiteX",
		Product:      "liteluna bulk streamer",
		Serial:       "no serial",
	}
}

// Descriptors holds the encoded descriptors a device serves.
type Descriptors struct {
	Device        DeviceDescriptor
	Configuration []byte // Full configuration tree
	Strings       map[uint8][]byte
}

// BuildDescriptors encodes the descriptor set of a bulk streamer: one
// configuration with one vendor-specific interface carrying bulk OUT and
// IN endpoints.
func BuildDescriptors(id Identity) Descriptors {
	dev := DeviceDescriptor{
		USBVersion:        USBVersion20,
		DeviceClass:       ClassPerInterface,
		MaxPacketSize0:    MaxPacketSize0,
		VendorID:          id.VendorID,
		ProductID:         id.ProductID,
		DeviceVersion:     id.DeviceVersion,
		ManufacturerIndex: StringIndexManufacturer,
		ProductIndex:      StringIndexProduct,
		SerialNumberIndex: StringIndexSerial,
		NumConfigurations: 1,
	}

	endpoints := []EndpointDescriptor{
		{EndpointAddress: BulkEndpoint, Attributes: EndpointTypeBulk, MaxPacketSize: MaxBulkPacketSize},
		{EndpointAddress: 0x80 | BulkEndpoint, Attributes: EndpointTypeBulk, MaxPacketSize: MaxBulkPacketSize},
	}
	total := ConfigurationDescriptorSize + InterfaceDescriptorSize + len(endpoints)*EndpointDescriptorSize

	cfg := make([]byte, total)
	conf := ConfigurationDescriptor{
		TotalLength:        uint16(total),
		NumInterfaces:      1,
		ConfigurationValue: ConfigurationID,
		Attributes:         ConfigAttrBusPowered,
		MaxPower:           250,
	}
	n := conf.MarshalTo(cfg)
	iface := InterfaceDescriptor{
		InterfaceNumber: InterfaceNumber,
		NumEndpoints:    uint8(len(endpoints)),
		InterfaceClass:  ClassVendor,
	}
	n += iface.MarshalTo(cfg[n:])
	for i := range endpoints {
		n += endpoints[i].MarshalTo(cfg[n:])
	}

	return Descriptors{
		Device:        dev,
		Configuration: cfg,
		Strings: map[uint8][]byte{
			StringIndexLanguages:    LanguageDescriptor(packet.LangIDUSEnglish),
			StringIndexManufacturer: StringDescriptor(id.Manufacturer),
			StringIndexProduct:      StringDescriptor(id.Product),
			StringIndexSerial:       StringDescriptor(id.Serial),
		},
	}
}

// Endpoints returns the endpoint descriptors of the configuration tree.
func (d *Descriptors) Endpoints() []EndpointDescriptor {
	var eps []EndpointDescriptor
	for off := 0; off+2 <= len(d.Configuration); {
		n := int(d.Configuration[off])
		if n == 0 || off+n > len(d.Configuration) {
			break
		}
		if ep, err := ParseEndpointDescriptor(d.Configuration[off : off+n]); err == nil {
			eps = append(eps, ep)
		}
		off += n
	}
	return eps
}

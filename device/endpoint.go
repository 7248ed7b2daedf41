package device

import (
	"fmt"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// Endpoint is the run-time state of one endpoint direction.
type Endpoint struct {
	Address       uint8 // Number with direction bit
	Attributes    uint8
	MaxPacketSize uint16

	stalled    bool
	dataToggle bool // Toggle of the next DATA packet sent or expected
}

// NewEndpoint creates an endpoint from its descriptor.
func NewEndpoint(desc EndpointDescriptor) *Endpoint {
	return &Endpoint{
		Address:       desc.EndpointAddress,
		Attributes:    desc.Attributes,
		MaxPacketSize: desc.MaxPacketSize,
	}
}

// Number returns the endpoint number (0-15).
func (e *Endpoint) Number() uint8 {
	return e.Address & 0x0F
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *Endpoint) IsIn() bool {
	return e.Address&0x80 != 0
}

// IsBulk returns true if this is a bulk endpoint.
func (e *Endpoint) IsBulk() bool {
	return e.Attributes&0x03 == EndpointTypeBulk
}

// SetStall sets or clears the halt condition. Clearing a halt also resets
// the data toggle (USB 2.0 §9.4.5).
func (e *Endpoint) SetStall(stalled bool) {
	e.stalled = stalled
	if !stalled {
		e.dataToggle = false
	}
	pkg.LogDebug(pkg.ComponentDevice, "endpoint halt",
		"address", fmt.Sprintf("0x%02X", e.Address),
		"halted", stalled)
}

// IsStalled returns true if the endpoint is halted.
func (e *Endpoint) IsStalled() bool {
	return e.stalled
}

// DataToggle returns the toggle of the next DATA packet.
func (e *Endpoint) DataToggle() bool {
	return e.dataToggle
}

// DataPID returns the PID of the next DATA packet.
func (e *Endpoint) DataPID() packet.PID {
	return packet.DataPID(e.dataToggle)
}

// ToggleData flips the data toggle after a successful transaction.
func (e *Endpoint) ToggleData() {
	e.dataToggle = !e.dataToggle
}

// ResetDataToggle resets the data toggle to DATA0.
func (e *Endpoint) ResetDataToggle() {
	e.dataToggle = false
}

// SetDataToggle sets the data toggle explicitly.
func (e *Endpoint) SetDataToggle(toggle bool) {
	e.dataToggle = toggle
}

// Descriptor returns the endpoint descriptor.
func (e *Endpoint) Descriptor() EndpointDescriptor {
	return EndpointDescriptor{
		EndpointAddress: e.Address,
		Attributes:      e.Attributes,
		MaxPacketSize:   e.MaxPacketSize,
	}
}

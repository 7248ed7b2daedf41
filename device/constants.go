package device

import "fmt"

// Bulk streamer endpoint layout.
const (
	BulkEndpoint      = 1   // Endpoint number of the bulk IN/OUT pair
	MaxBulkPacketSize = 512 // High-speed bulk max packet size
	MaxPacketSize0    = 64  // Control endpoint max packet size
	ConfigurationID   = 1   // bConfigurationValue of the only configuration
	InterfaceNumber   = 0
)

// Default queue depth of the loopback: OUT packets accepted but not yet
// read back through IN.
const DefaultInQueueDepth = 4

// State is a USB device state (USB 2.0 §9.1).
type State uint8

// Device states.
const (
	StateDefault    State = iota // Reset, answering at address 0
	StateAddress                 // Assigned an address, not configured
	StateConfigured              // Configured; bulk endpoints live
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDefault:
		return "Default"
	case StateAddress:
		return "Address"
	case StateConfigured:
		return "Configured"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

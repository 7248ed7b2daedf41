package device

import (
	"encoding/binary"
	"fmt"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// handleSetup processes a standard request and returns its data stage.
// An error stalls the control transfer.
func (c *Core) handleSetup(req packet.SetupPacket) ([]byte, error) {
	if !req.IsStandard() {
		return nil, fmt.Errorf("%v: %w", req, pkg.ErrInvalidRequest)
	}

	switch req.Recipient() {
	case packet.RecipientDevice:
		return c.deviceRequest(req)
	case packet.RecipientInterface:
		return c.interfaceRequest(req)
	case packet.RecipientEndpoint:
		return c.endpointRequest(req)
	}
	return nil, fmt.Errorf("%v: %w", req, pkg.ErrInvalidRequest)
}

// deviceRequest handles device-level standard requests.
func (c *Core) deviceRequest(req packet.SetupPacket) ([]byte, error) {
	switch req.Request {
	case packet.RequestGetStatus:
		var status uint16
		if c.remoteWakeup {
			status |= 1 << 1
		}
		return binary.LittleEndian.AppendUint16(nil, status), nil

	case packet.RequestClearFeature, packet.RequestSetFeature:
		if req.Value != packet.FeatureDeviceRemoteWakeup {
			return nil, pkg.ErrInvalidRequest
		}
		c.remoteWakeup = req.Request == packet.RequestSetFeature
		return nil, nil

	case packet.RequestSetAddress:
		if req.Value > packet.MaxAddress || c.state == StateConfigured {
			return nil, pkg.ErrInvalidParameter
		}
		// Takes effect once the status stage completes.
		c.pendingAddress = int(req.Value)
		return nil, nil

	case packet.RequestGetDescriptor:
		return c.descriptor(req)

	case packet.RequestGetConfiguration:
		return []byte{c.configuration}, nil

	case packet.RequestSetConfiguration:
		return nil, c.setConfiguration(uint8(req.Value))
	}
	return nil, pkg.ErrInvalidRequest
}

// descriptor handles GET_DESCRIPTOR.
func (c *Core) descriptor(req packet.SetupPacket) ([]byte, error) {
	switch req.DescriptorType() {
	case packet.DescriptorTypeDevice:
		buf := make([]byte, DeviceDescriptorSize)
		c.desc.Device.MarshalTo(buf)
		return buf, nil

	case packet.DescriptorTypeConfiguration:
		if req.DescriptorIndex() != 0 {
			return nil, pkg.ErrInvalidRequest
		}
		return c.desc.Configuration, nil

	case packet.DescriptorTypeString:
		s, ok := c.desc.Strings[req.DescriptorIndex()]
		if !ok {
			return nil, pkg.ErrInvalidRequest
		}
		return s, nil

	case packet.DescriptorTypeDeviceQualifier:
		buf := make([]byte, QualifierSize)
		c.desc.Device.QualifierTo(buf)
		return buf, nil
	}
	return nil, pkg.ErrInvalidRequest
}

// setConfiguration handles SET_CONFIGURATION. Selecting a configuration
// resets the bulk endpoints to DATA0.
func (c *Core) setConfiguration(value uint8) error {
	if c.state == StateDefault {
		return pkg.ErrInvalidRequest
	}
	switch value {
	case 0:
		c.configuration = 0
		c.state = StateAddress
	case ConfigurationID:
		c.configuration = value
		c.state = StateConfigured
	default:
		return pkg.ErrInvalidParameter
	}
	for _, ep := range []*Endpoint{c.bulkIn, c.bulkOut} {
		if ep != nil {
			ep.SetStall(false)
		}
	}
	c.queue = nil
	pkg.LogInfo(pkg.ComponentDevice, "configuration set", "value", value)
	return nil
}

// interfaceRequest handles interface-level standard requests.
func (c *Core) interfaceRequest(req packet.SetupPacket) ([]byte, error) {
	if c.state != StateConfigured || req.Index != InterfaceNumber {
		return nil, pkg.ErrInvalidRequest
	}
	switch req.Request {
	case packet.RequestGetStatus:
		return []byte{0, 0}, nil
	case packet.RequestGetInterface:
		return []byte{0}, nil
	case packet.RequestSetInterface:
		if req.Value != 0 {
			return nil, pkg.ErrInvalidParameter
		}
		return nil, nil
	}
	return nil, pkg.ErrInvalidRequest
}

// endpointRequest handles endpoint-level standard requests.
func (c *Core) endpointRequest(req packet.SetupPacket) ([]byte, error) {
	ep := c.endpoint(uint8(req.Index))
	if ep == nil {
		return nil, pkg.ErrInvalidEndpoint
	}
	switch req.Request {
	case packet.RequestGetStatus:
		var status uint16
		if ep.IsStalled() {
			status = 1
		}
		return binary.LittleEndian.AppendUint16(nil, status), nil

	case packet.RequestClearFeature, packet.RequestSetFeature:
		if req.Value != packet.FeatureEndpointHalt {
			return nil, pkg.ErrInvalidRequest
		}
		if ep.Number() == 0 {
			return nil, nil
		}
		ep.SetStall(req.Request == packet.RequestSetFeature)
		return nil, nil
	}
	return nil, pkg.ErrInvalidRequest
}

// endpoint resolves a wIndex endpoint address.
func (c *Core) endpoint(addr uint8) *Endpoint {
	switch addr {
	case 0x00:
		return c.ep0Out
	case 0x80:
		return c.ep0In
	}
	if c.state != StateConfigured {
		return nil
	}
	for _, ep := range []*Endpoint{c.bulkIn, c.bulkOut} {
		if ep != nil && ep.Address == addr {
			return ep
		}
	}
	return nil
}

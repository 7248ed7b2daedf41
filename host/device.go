package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// GetDescriptor reads a descriptor of up to length bytes.
func (h *Host) GetDescriptor(ctx context.Context, addr, descType, index uint8, langID, length uint16) ([]byte, error) {
	buf := make([]byte, length)
	n, err := h.ControlTransfer(ctx, addr, packet.GetDescriptor(descType, index, langID, length), buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// GetString reads string descriptor index in langID.
func (h *Host) GetString(ctx context.Context, addr, index uint8, langID uint16) (string, error) {
	data, err := h.GetDescriptor(ctx, addr, packet.DescriptorTypeString, index, langID, 255)
	if err != nil {
		return "", err
	}
	return parseString(data)
}

// GetLanguages reads string descriptor zero.
func (h *Host) GetLanguages(ctx context.Context, addr uint8) ([]uint16, error) {
	data, err := h.GetDescriptor(ctx, addr, packet.DescriptorTypeString, 0, 0, 255)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(data, 2, packet.DescriptorTypeString); err != nil {
		return nil, err
	}
	var ids []uint16
	for i := 2; i+1 < int(data[0]) && i+1 < len(data); i += 2 {
		ids = append(ids, binary.LittleEndian.Uint16(data[i:]))
	}
	return ids, nil
}

// SetAddress moves the device at address 0 to addr.
func (h *Host) SetAddress(ctx context.Context, addr uint8) error {
	if _, err := h.ControlTransfer(ctx, 0, packet.SetAddress(addr), nil); err != nil {
		return err
	}
	h.mu.Lock()
	if mps, ok := h.mps0[0]; ok {
		h.mps0[addr] = mps
	}
	h.mu.Unlock()
	pkg.LogDebug(pkg.ComponentHost, "assigned address", "address", addr)
	return nil
}

// SetConfiguration selects a configuration and resets the bulk toggles.
func (h *Host) SetConfiguration(ctx context.Context, addr, value uint8) error {
	if _, err := h.ControlTransfer(ctx, addr, packet.SetConfiguration(value), nil); err != nil {
		return err
	}
	h.session.ResetToggles()
	return nil
}

// GetConfiguration returns the active configuration value.
func (h *Host) GetConfiguration(ctx context.Context, addr uint8) (uint8, error) {
	var buf [1]byte
	n, err := h.ControlTransfer(ctx, addr, packet.GetConfiguration(), buf[:])
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, fmt.Errorf("GET_CONFIGURATION returned %d bytes: %w", n, pkg.ErrProtocol)
	}
	return buf[0], nil
}

// GetStatus reads the status word of a device, interface or endpoint.
func (h *Host) GetStatus(ctx context.Context, addr, recipient uint8, index uint16) (uint16, error) {
	var buf [2]byte
	n, err := h.ControlTransfer(ctx, addr, packet.GetStatus(recipient, index), buf[:])
	if err != nil {
		return 0, err
	}
	if n != 2 {
		return 0, fmt.Errorf("GET_STATUS returned %d bytes: %w", n, pkg.ErrProtocol)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ClearEndpointHalt clears a halted endpoint and resets its toggle.
func (h *Host) ClearEndpointHalt(ctx context.Context, addr, endpoint uint8) error {
	req := packet.ClearFeature(packet.RecipientEndpoint, packet.FeatureEndpointHalt, uint16(endpoint))
	if _, err := h.ControlTransfer(ctx, addr, req, nil); err != nil {
		return err
	}
	dir := packet.DirOut
	if endpoint&0x80 != 0 {
		dir = packet.DirIn
	}
	h.session.Toggle(endpoint&0x0F, dir).Reset()
	return nil
}

// parseString decodes a UTF-16LE string descriptor.
func parseString(data []byte) (string, error) {
	if err := checkHeader(data, 2, packet.DescriptorTypeString); err != nil {
		return "", err
	}
	length := min(int(data[0]), len(data))
	units := make([]uint16, 0, (length-2)/2)
	for i := 2; i+1 < length; i += 2 {
		units = append(units, binary.LittleEndian.Uint16(data[i:]))
	}
	return string(utf16.Decode(units)), nil
}

package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
	"github.com/liteluna/usblink/pkg/usbid"
)

// DeviceInfo is what enumeration learned about a device.
type DeviceInfo struct {
	Address      uint8
	State        DeviceState
	Descriptor   DeviceDescriptor
	Config       ConfigurationDescriptor
	Interfaces   []InterfaceDescriptor
	Endpoints    []EndpointDescriptor
	Languages    []uint16
	Manufacturer string
	Product      string
	Serial       string
}

// Endpoint returns the endpoint descriptor with the given address.
func (d *DeviceInfo) Endpoint(address uint8) (EndpointDescriptor, bool) {
	for _, ep := range d.Endpoints {
		if ep.EndpointAddress == address {
			return ep, true
		}
	}
	return EndpointDescriptor{}, false
}

// Describe formats the device for display, naming vendor and product from
// db when it knows them. db may be nil.
func (d *DeviceInfo) Describe(db *usbid.Database) string {
	id := fmt.Sprintf("%04x:%04x", d.Descriptor.VendorID, d.Descriptor.ProductID)
	if db != nil {
		id = db.Describe(d.Descriptor.VendorID, d.Descriptor.ProductID)
	}
	var names []string
	for _, s := range []string{d.Manufacturer, d.Product} {
		if s != "" {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("%s at address %d", id, d.Address)
	}
	return fmt.Sprintf("%s %q at address %d", id, strings.Join(names, " "), d.Address)
}

// Enumerate runs the standard sequence against the device at address 0:
// read bMaxPacketSize0, assign Options.Address, read the device,
// configuration and string descriptors and select the first configuration.
func (h *Host) Enumerate(ctx context.Context) (*DeviceInfo, error) {
	pkg.LogDebug(pkg.ComponentHost, "starting enumeration")

	head, err := h.GetDescriptor(ctx, 0, packet.DescriptorTypeDevice, 0, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}
	if len(head) < 8 {
		return nil, fmt.Errorf("enumerate: device descriptor head %d bytes: %w", len(head), pkg.ErrDescriptorTooShort)
	}
	if mps := int(head[7]); mps > 0 {
		h.mu.Lock()
		h.mps0[0] = mps
		h.mu.Unlock()
	}

	info := &DeviceInfo{Address: h.opts.Address}
	if err := h.SetAddress(ctx, info.Address); err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}
	info.State = DeviceStateAddress

	data, err := h.GetDescriptor(ctx, info.Address, packet.DescriptorTypeDevice, 0, 0, DeviceDescriptorSize)
	if err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}
	if info.Descriptor, err = ParseDeviceDescriptor(data); err != nil {
		return nil, fmt.Errorf("enumerate: device descriptor: %w", err)
	}
	pkg.LogDebug(pkg.ComponentHost, "device descriptor",
		"vendorID", info.Descriptor.VendorID,
		"productID", info.Descriptor.ProductID,
		"class", info.Descriptor.DeviceClass)

	data, err = h.GetDescriptor(ctx, info.Address, packet.DescriptorTypeConfiguration, 0, 0, ConfigurationDescriptorSize)
	if err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}
	cfg, err := ParseConfigurationDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("enumerate: configuration descriptor: %w", err)
	}
	total := min(cfg.TotalLength, MaxDescriptorSize)
	if data, err = h.GetDescriptor(ctx, info.Address, packet.DescriptorTypeConfiguration, 0, 0, total); err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}
	if err := info.parseConfigurationTree(data); err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}

	if err := h.readStrings(ctx, info); err != nil {
		// Strings are optional.
		pkg.LogDebug(pkg.ComponentHost, "string descriptor read failed", "error", err)
	}

	if info.Config.ConfigurationValue > 0 {
		if err := h.SetConfiguration(ctx, info.Address, info.Config.ConfigurationValue); err != nil {
			return nil, fmt.Errorf("enumerate: %w", err)
		}
		info.State = DeviceStateConfigured
	}

	pkg.LogInfo(pkg.ComponentHost, "device enumerated",
		"address", info.Address,
		"vendorID", fmt.Sprintf("%04x", info.Descriptor.VendorID),
		"productID", fmt.Sprintf("%04x", info.Descriptor.ProductID),
		"product", info.Product,
		"endpoints", len(info.Endpoints))
	return info, nil
}

// parseConfigurationTree walks a full configuration descriptor.
func (d *DeviceInfo) parseConfigurationTree(data []byte) error {
	cfg, err := ParseConfigurationDescriptor(data)
	if err != nil {
		return err
	}
	d.Config = cfg
	d.Interfaces = nil
	d.Endpoints = nil

	for off := ConfigurationDescriptorSize; off+2 <= len(data); {
		n := int(data[off])
		if n < 2 || off+n > len(data) {
			return fmt.Errorf("descriptor at offset %d: %w", off, pkg.ErrDescriptorTooShort)
		}
		switch data[off+1] {
		case packet.DescriptorTypeInterface:
			iface, err := ParseInterfaceDescriptor(data[off : off+n])
			if err != nil {
				return err
			}
			d.Interfaces = append(d.Interfaces, iface)
		case packet.DescriptorTypeEndpoint:
			ep, err := ParseEndpointDescriptor(data[off : off+n])
			if err != nil {
				return err
			}
			d.Endpoints = append(d.Endpoints, ep)
		}
		off += n
	}
	return nil
}

// readStrings fills the manufacturer, product and serial strings.
func (h *Host) readStrings(ctx context.Context, info *DeviceInfo) error {
	langs, err := h.GetLanguages(ctx, info.Address)
	if err != nil {
		return err
	}
	info.Languages = langs
	langID := uint16(packet.LangIDUSEnglish)
	if len(langs) > 0 {
		langID = langs[0]
	}

	for _, s := range []struct {
		index uint8
		dst   *string
	}{
		{info.Descriptor.ManufacturerIndex, &info.Manufacturer},
		{info.Descriptor.ProductIndex, &info.Product},
		{info.Descriptor.SerialNumberIndex, &info.Serial},
	} {
		if s.index == 0 {
			continue
		}
		v, err := h.GetString(ctx, info.Address, s.index, langID)
		if err != nil {
			return err
		}
		*s.dst = v
	}
	return nil
}

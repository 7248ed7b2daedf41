package packet

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/liteluna/usblink/pkg"
)

func TestPIDByte(t *testing.T) {
	tests := []struct {
		pid  PID
		want byte
	}{
		{PIDOut, 0xE1},
		{PIDIn, 0x69},
		{PIDSOF, 0xA5},
		{PIDSetup, 0x2D},
		{PIDData0, 0xC3},
		{PIDData1, 0x4B},
		{PIDData2, 0x87},
		{PIDMData, 0x0F},
		{PIDAck, 0xD2},
		{PIDNak, 0x5A},
		{PIDStall, 0x1E},
		{PIDNyet, 0x96},
		{PIDPre, 0x3C},
		{PIDSplit, 0x78},
		{PIDPing, 0xB4},
	}
	for _, tt := range tests {
		t.Run(tt.pid.String(), func(t *testing.T) {
			if got := tt.pid.Byte(); got != tt.want {
				t.Errorf("Byte() = %#02x, want %#02x", got, tt.want)
			}
			got, err := ParsePIDByte(tt.want)
			if err != nil || got != tt.pid {
				t.Errorf("ParsePIDByte(%#02x) = %v, %v, want %v", tt.want, got, err, tt.pid)
			}
		})
	}
}

func TestParsePIDByteCheck(t *testing.T) {
	for _, b := range []byte{0x00, 0xFF, 0x2C, 0xD3} {
		if _, err := ParsePIDByte(b); !errors.Is(err, pkg.ErrPIDCheck) {
			t.Errorf("ParsePIDByte(%#02x) error = %v, want %v", b, err, pkg.ErrPIDCheck)
		}
	}
}

func TestCRC5(t *testing.T) {
	tests := []struct {
		value uint16
		want  uint8
	}{
		{0x000, 0x02},
		{0x001, 0x1D},
		{0x710, 0x05},
		{0x7FF, 0x08},
	}
	for _, tt := range tests {
		if got := CRC5(tt.value, 11); got != tt.want {
			t.Errorf("CRC5(%#03x) = %#02x, want %#02x", tt.value, got, tt.want)
		}
	}
}

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0x0000},
		{"counting", []byte{0x00, 0x01, 0x02, 0x03}, 0x7AEF},
		{"get device descriptor", []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00}, 0x94DD},
		{"set address 5", []byte{0x00, 0x05, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}, 0x25EB},
		{"pattern", []byte{0xAA, 0x55, 0x00, 0xFF}, 0x538E},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(tt.data); got != tt.want {
				t.Errorf("CRC16() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestEncodeToken(t *testing.T) {
	tests := []struct {
		name    string
		pid     PID
		addr    uint8
		ep      uint8
		want    []byte
		wantErr error
	}{
		{"setup 0.0", PIDSetup, 0, 0, []byte{0x2D, 0x00, 0x10}, nil},
		{"in 0.0", PIDIn, 0, 0, []byte{0x69, 0x00, 0x10}, nil},
		{"out 0.0", PIDOut, 0, 0, []byte{0xE1, 0x00, 0x10}, nil},
		{"in 58.10", PIDIn, 0x3A, 0xA, []byte{0x69, 0x3A, 0x3D}, nil},
		{"out 5.1", PIDOut, 5, 1, []byte{0xE1, 0x85, 0x60}, nil},
		{"ping 3.2", PIDPing, 3, 2, []byte{0xB4, 0x03, 0x79}, nil},
		{"not a token", PIDAck, 0, 0, nil, pkg.ErrUnexpectedPID},
		{"sof is not addressed", PIDSOF, 0, 0, nil, pkg.ErrUnexpectedPID},
		{"address too large", PIDIn, 128, 0, nil, pkg.ErrInvalidParameter},
		{"endpoint too large", PIDIn, 1, 16, nil, pkg.ErrInvalidEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeToken(tt.pid, tt.addr, tt.ep)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("EncodeToken() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeToken() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EncodeToken() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeSOF(t *testing.T) {
	tests := []struct {
		frame uint16
		want  []byte
	}{
		{0, []byte{0xA5, 0x00, 0x10}},
		{1, []byte{0xA5, 0x01, 0xE8}},
		{42, []byte{0xA5, 0x2A, 0x50}},
		{0x710, []byte{0xA5, 0x10, 0x2F}},
		{2047, []byte{0xA5, 0xFF, 0x47}},
		{2048, []byte{0xA5, 0x00, 0x10}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, EncodeSOF(tt.frame)); diff != "" {
			t.Errorf("EncodeSOF(%d) mismatch (-want +got):\n%s", tt.frame, diff)
		}
	}
}

func TestSOFRoundTrip(t *testing.T) {
	for frame := uint16(0); frame <= MaxFrame; frame++ {
		p, err := Decode(EncodeSOF(frame))
		if err != nil {
			t.Fatalf("Decode(EncodeSOF(%d)) error = %v", frame, err)
		}
		sof, ok := p.(SOF)
		if !ok {
			t.Fatalf("Decode(EncodeSOF(%d)) = %T, want SOF", frame, p)
		}
		if sof.Frame != frame {
			t.Fatalf("Decode(EncodeSOF(%d)).Frame = %d", frame, sof.Frame)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	for _, pid := range []PID{PIDSetup, PIDIn, PIDOut, PIDPing} {
		for addr := uint8(0); addr <= MaxAddress; addr += 7 {
			for ep := uint8(0); ep <= MaxEndpoint; ep++ {
				b, err := EncodeToken(pid, addr, ep)
				if err != nil {
					t.Fatal(err)
				}
				info, err := ParseToken(b)
				if err != nil {
					t.Fatalf("ParseToken(%x) error = %v", b, err)
				}
				want := TokenInfo{PID: pid, Address: addr, Endpoint: ep}
				if info != want {
					t.Fatalf("ParseToken(%x) = %+v, want %+v", b, info, want)
				}
			}
		}
	}
}

func TestGetDeviceDescriptorGoldenVector(t *testing.T) {
	setup, err := EncodeToken(PIDSetup, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	req := GetDescriptor(DescriptorTypeDevice, 0, 0, 64)
	data, err := EncodeData(req.Bytes(), false)
	if err != nil {
		t.Fatal(err)
	}

	if setup[0] != 0x2D {
		t.Errorf("SETUP PID byte = %#02x, want 0x2d", setup[0])
	}
	if diff := cmp.Diff([]byte{0x2D, 0x00, 0x10}, setup); diff != "" {
		t.Errorf("SETUP token mismatch (-want +got):\n%s", diff)
	}
	want := []byte{0xC3, 0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00, 0xDD, 0x94}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("DATA0 packet mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeData(t *testing.T) {
	got, err := EncodeData(nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0x4B, 0x00, 0x00}, got); diff != "" {
		t.Errorf("EncodeData(nil, DATA1) mismatch (-want +got):\n%s", diff)
	}

	if _, err := EncodeData(make([]byte, MaxPayload), false); err != nil {
		t.Errorf("EncodeData(%d bytes) error = %v", MaxPayload, err)
	}
	if _, err := EncodeData(make([]byte, MaxPayload+1), false); !errors.Is(err, pkg.ErrPayloadTooLarge) {
		t.Errorf("EncodeData(%d bytes) error = %v, want %v", MaxPayload+1, err, pkg.ErrPayloadTooLarge)
	}

	d := Data{Kind: PIDData1, Payload: []byte{0x00, 0x01, 0x02, 0x03}}
	if diff := cmp.Diff([]byte{0x4B, 0x00, 0x01, 0x02, 0x03, 0xEF, 0x7A}, d.Bytes()); diff != "" {
		t.Errorf("Data.Bytes() mismatch (-want +got):\n%s", diff)
	}
}

func TestBytesOutOfRange(t *testing.T) {
	if b := (Data{Kind: PIDData0, Payload: make([]byte, MaxPayload+1)}).Bytes(); b != nil {
		t.Errorf("Data.Bytes() with %d byte payload = %d bytes, want nil", MaxPayload+1, len(b))
	}
	if b := (Data{Kind: PIDData0, Payload: make([]byte, MaxPayload)}).Bytes(); len(b) != MaxPayload+DataOverhead {
		t.Errorf("Data.Bytes() with %d byte payload = %d bytes", MaxPayload, len(b))
	}
	if b := (Token{Kind: PIDIn, Address: MaxAddress + 1}).Bytes(); b != nil {
		t.Errorf("Token.Bytes() with address %d = % x, want nil", MaxAddress+1, b)
	}
}

func TestEncodeHandshake(t *testing.T) {
	tests := []struct {
		pid     PID
		want    []byte
		wantErr bool
	}{
		{PIDAck, []byte{0xD2}, false},
		{PIDNak, []byte{0x5A}, false},
		{PIDStall, []byte{0x1E}, false},
		{PIDNyet, []byte{0x96}, false},
		{PIDData0, nil, true},
	}
	for _, tt := range tests {
		got, err := EncodeHandshake(tt.pid)
		if (err != nil) != tt.wantErr {
			t.Errorf("EncodeHandshake(%v) error = %v, wantErr %v", tt.pid, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("EncodeHandshake(%v) mismatch (-want +got):\n%s", tt.pid, diff)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    Packet
		wantErr error
	}{
		{"ack", []byte{0xD2}, Handshake{Kind: PIDAck}, nil},
		{"stall", []byte{0x1E}, Handshake{Kind: PIDStall}, nil},
		{"setup", []byte{0x2D, 0x00, 0x10}, Token{Kind: PIDSetup}, nil},
		{"in", []byte{0x69, 0x3A, 0x3D}, Token{Kind: PIDIn, Address: 0x3A, Endpoint: 0xA}, nil},
		{"sof", []byte{0xA5, 0x10, 0x2F}, SOF{Frame: 0x710}, nil},
		{"data0", []byte{0xC3, 0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00, 0xDD, 0x94},
			Data{Kind: PIDData0, Payload: []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00}}, nil},
		{"zero length data1", []byte{0x4B, 0x00, 0x00}, Data{Kind: PIDData1, Payload: []byte{}}, nil},
		{"empty", nil, nil, pkg.ErrPacketTooShort},
		{"bad pid check", []byte{0x2C, 0x00, 0x10}, nil, pkg.ErrPIDCheck},
		{"token crc", []byte{0x2D, 0x00, 0x11}, nil, pkg.ErrCRC},
		{"short token", []byte{0x2D, 0x00}, nil, pkg.ErrPacketTooShort},
		{"data crc", []byte{0xC3, 0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00, 0xDD, 0x95}, nil, pkg.ErrCRC},
		{"short data", []byte{0xC3, 0x00}, nil, pkg.ErrPacketTooShort},
		{"long token", []byte{0x2D, 0x00, 0x10, 0x00}, nil, pkg.ErrPacketTooLong},
		{"long handshake", []byte{0xD2, 0x00}, nil, pkg.ErrPacketTooLong},
		{"split", []byte{0x78}, nil, pkg.ErrUnexpectedPID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.in, got.Bytes()); diff != "" {
				t.Errorf("Bytes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTokenRejectsData(t *testing.T) {
	if _, err := ParseToken([]byte{0xD2}); !errors.Is(err, pkg.ErrUnexpectedPID) {
		t.Errorf("ParseToken(ACK) error = %v, want %v", err, pkg.ErrUnexpectedPID)
	}
	info, err := ParseToken(EncodeSOF(7))
	if err != nil || !info.IsSOF() || info.Frame != 7 {
		t.Errorf("ParseToken(SOF 7) = %+v, %v", info, err)
	}
}

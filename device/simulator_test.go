package device

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/transport"
)

// startSimulator runs a simulator on one end of a pipe and returns the
// host's framed end and the simulator's exit error.
func startSimulator(t *testing.T, cfg Config) (*transport.Conn, <-chan error) {
	t.Helper()
	sim, err := NewSimulator(cfg)
	require.NoError(t, err)

	a, b := net.Pipe()
	host := transport.New(a, transport.Options{})
	dev := transport.New(b, transport.Options{})
	t.Cleanup(func() {
		host.Close()
		dev.Close()
	})

	done := make(chan error, 1)
	go func() { done <- sim.Run(context.Background(), dev) }()
	return host, done
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timings = TimingOverrides{BusReset: 6, Chirp: 4, Toggle: 10}
	cfg.PollInterval = 20 * time.Millisecond
	return cfg
}

// transact writes packets and reads the single response.
func transact(t *testing.T, host *transport.Conn, pkts ...[]byte) []byte {
	t.Helper()
	require.NoError(t, host.WriteFrames(pkts...))
	resp, err := host.ReadFrame(2 * time.Second)
	require.NoError(t, err)
	return resp
}

func TestSimulator_Loopback(t *testing.T) {
	host, done := startSimulator(t, testConfig())

	setup := packet.SetAddress(1).Bytes()
	require.Equal(t, ack, transact(t, host, tok(t, packet.PIDSetup, 0, 0), dat(t, setup, false)))
	require.Equal(t, dat(t, nil, true), transact(t, host, tok(t, packet.PIDIn, 0, 0)))
	require.NoError(t, host.WriteFrames(ack))

	setup = packet.SetConfiguration(ConfigurationID).Bytes()
	require.Equal(t, ack, transact(t, host, tok(t, packet.PIDSetup, 1, 0), dat(t, setup, false)))
	require.Equal(t, dat(t, nil, true), transact(t, host, tok(t, packet.PIDIn, 1, 0)))
	require.NoError(t, host.WriteFrames(ack))

	payload := make([]byte, MaxBulkPacketSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.Equal(t, ack, transact(t, host, tok(t, packet.PIDOut, 1, BulkEndpoint), dat(t, payload, false)))
	resp := transact(t, host, tok(t, packet.PIDIn, 1, BulkEndpoint))
	require.Equal(t, dat(t, Invert(payload), false), resp)
	require.NoError(t, host.WriteFrames(ack))

	require.Equal(t, nak, transact(t, host, tok(t, packet.PIDIn, 1, BulkEndpoint)))

	require.NoError(t, host.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator did not stop after the host closed")
	}
}

func TestSimulator_Cancel(t *testing.T) {
	sim, err := NewSimulator(testConfig())
	require.NoError(t, err)

	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, transport.New(b, transport.Options{})) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator ignored cancellation")
	}
}

func TestNewSimulator_BadBoard(t *testing.T) {
	cfg := testConfig()
	cfg.Board = "nonexistent"
	_, err := NewSimulator(cfg)
	require.Error(t, err)
}

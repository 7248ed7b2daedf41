package device

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liteluna/usblink/pkg"
)

// FrameConn carries whole USB packets to and from the host harness.
type FrameConn interface {
	ReadFrame(timeout time.Duration) ([]byte, error)
	WriteFrames(frames ...[]byte) error
}

// Simulator runs a PHY against a framed connection.
type Simulator struct {
	phy  *PHY
	poll time.Duration
}

// NewSimulator builds the core and PHY described by cfg.
func NewSimulator(cfg Config) (*Simulator, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	timings, err := cfg.LinkTimings(profile)
	if err != nil {
		return nil, err
	}

	core := NewCore(BuildDescriptors(cfg.Identity), CoreOptions{InQueueDepth: cfg.InQueueDepth})
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	pkg.LogInfo(pkg.ComponentSim, "simulator",
		"board", profile.Name,
		"vid", cfg.Identity.VendorID,
		"pid", cfg.Identity.ProductID,
		"busReset", timings.BusReset,
		"chirp", timings.Chirp,
		"toggle", timings.Toggle)

	return &Simulator{
		phy:  NewPHY(core, timings, profile.Reset.Polarity, cfg.ChirpTicks),
		poll: poll,
	}, nil
}

// PHY returns the simulated PHY.
func (s *Simulator) PHY() *PHY { return s.phy }

// Run pumps frames until the peer closes the connection or ctx is done.
// Host frames are fed to the PHY; each device packet is written back as one
// frame. The clock runs freely until the link is in high speed and then
// only while packets are in flight.
func (s *Simulator) Run(ctx context.Context, conn FrameConn) error {
	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan []byte)

	g.Go(func() error {
		defer close(frames)
		for gctx.Err() == nil {
			f, err := conn.ReadFrame(s.poll)
			switch {
			case errors.Is(err, pkg.ErrTimeout):
				continue
			case errors.Is(err, pkg.ErrClosed):
				pkg.LogInfo(pkg.ComponentSim, "peer closed")
				return nil
			case err != nil:
				return err
			}
			select {
			case frames <- f:
			case <-gctx.Done():
			}
		}
		return nil
	})

	g.Go(func() error {
		in := frames
		for {
			if gctx.Err() != nil {
				return nil
			}
			if s.phy.Idle() && s.phy.HSActive() {
				if in == nil {
					return nil
				}
				select {
				case f, ok := <-in:
					if !ok {
						return nil
					}
					s.phy.Receive(f)
				case <-gctx.Done():
					return nil
				}
			} else if in != nil {
				select {
				case f, ok := <-in:
					if !ok {
						in = nil
					} else {
						s.phy.Receive(f)
					}
				case <-gctx.Done():
					return nil
				default:
				}
			}

			if out := s.phy.Tick(); out != nil {
				if err := conn.WriteFrames(out); err != nil {
					if errors.Is(err, pkg.ErrClosed) {
						return nil
					}
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	st := s.phy.Core().Stats()
	pkg.LogInfo(pkg.ComponentSim, "simulator stopped",
		"packets", st.Packets,
		"acks", st.Acks,
		"naks", st.Naks,
		"stalls", st.Stalls,
		"dropped", s.phy.Bridge().Dropped())
	return ctx.Err()
}

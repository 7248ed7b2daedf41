// Package device simulates the liteluna bulk streamer at packet level.
//
// A [Core] answers host packets the way the streamer gateware does: it
// serves standard control requests on endpoint 0 and loops bulk OUT data on
// endpoint 1 back through bulk IN with every bit inverted.
//
// A [PHY] clocks the core through a [link.Bridge], so packets only flow once
// the chirp handshake has put the link in high speed. A [Simulator] runs a
// PHY against a framed connection:
//
//	cfg, err := device.LoadConfig("device.yaml")
//	if err != nil {
//	    return err
//	}
//	sim, err := device.NewSimulator(cfg)
//	if err != nil {
//	    return err
//	}
//	return sim.Run(ctx, conn)
package device

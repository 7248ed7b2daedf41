// Package prof wires optional pprof profiling into the usblink binaries.
//
// It is conditionally compiled using the "profile" build tag:
//
//	go build -tags profile ./examples/...
//
// Without the tag [Start] is a no-op, so the flags registered by
// [Options.RegisterFlags] can stay in every binary without overhead.
//
//	var opts prof.Options
//	opts.RegisterFlags(flag.CommandLine)
//	flag.Parse()
//	stop, err := prof.Start(opts)
//	if err != nil { ... }
//	defer stop()
package prof

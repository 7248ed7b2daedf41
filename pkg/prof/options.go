package prof

import "flag"

// Options selects which profiles a session collects.
type Options struct {
	CPUProfile string // Path for the CPU profile, empty to skip
	MemProfile string // Path for the heap profile written at stop, empty to skip
	HTTPAddr   string // Address for the /debug/pprof/ server, empty to skip
}

// RegisterFlags binds the profiling options to command-line flags on fs.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.CPUProfile, "cpuprofile", "", "write a CPU profile to `file` (requires -tags profile)")
	fs.StringVar(&o.MemProfile, "memprofile", "", "write a heap profile to `file` on exit (requires -tags profile)")
	fs.StringVar(&o.HTTPAddr, "pprof-addr", "", "serve /debug/pprof/ on `addr` (requires -tags profile)")
}

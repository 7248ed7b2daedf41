//go:build profile

package prof

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"

	_ "net/http/pprof" // Register HTTP handlers at /debug/pprof/

	"github.com/liteluna/usblink/pkg"
)

// ErrActive indicates a profiling session is already running.
var ErrActive = errors.New("profiling session already active")

var (
	mu     sync.Mutex
	active bool
)

// Enabled reports whether the binary was built with the profile tag.
const Enabled = true

// Start begins the profiling session described by opts. The returned stop
// function ends CPU profiling and writes the heap profile; it is safe to call
// more than once.
func Start(opts Options) (stop func() error, err error) {
	mu.Lock()
	defer mu.Unlock()
	if active {
		return nil, ErrActive
	}

	var cpuFile *os.File
	if opts.CPUProfile != "" {
		cpuFile, err = os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			cpuFile.Close()
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
	}

	if opts.HTTPAddr != "" {
		go func() {
			pkg.LogInfo(pkg.ComponentSim, "pprof listening", "addr", opts.HTTPAddr)
			if err := http.ListenAndServe(opts.HTTPAddr, nil); err != nil {
				pkg.LogWarn(pkg.ComponentSim, "pprof server stopped", "error", err)
			}
		}()
	}

	active = true
	var once sync.Once
	return func() error {
		var stopErr error
		once.Do(func() {
			if cpuFile != nil {
				pprof.StopCPUProfile()
				stopErr = cpuFile.Close()
			}
			if opts.MemProfile != "" {
				stopErr = errors.Join(stopErr, writeHeap(opts.MemProfile))
			}
			mu.Lock()
			active = false
			mu.Unlock()
		})
		return stopErr
	}, nil
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	return pprof.Lookup("heap").WriteTo(f, 0)
}

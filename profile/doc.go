// Package profile provides optional runtime profiling of the compiler.
//
// Profiling is compiled in only with the "pprof" build tag, which links
// [github.com/pkg/profile] and registers the [net/http/pprof] handlers.
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
//	go build -tags pprof .
//	chtl --pprof-mode cpu --pprof-dir ./prof compile site.chtl
//	go tool pprof -http=: ./prof/cpu.pprof
//
// A profile is written to a file named after its mode in the
// configured directory when the value returned by [Profiler.Start] is
// stopped.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes a profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unsupported mode disables
	// profiling.
	Mode string
	// Path is the output directory. It defaults to a temporary directory.
	Path string
	// Quiet suppresses the messages printed when profiling starts and stops.
	Quiet bool
}

// Start begins profiling. The result is always safe to stop, even when
// profiling is unavailable or p is disabled.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether starting p would collect a profile.
func (p Profiler) Enabled() bool {
	return p.Mode != "" && supported(p.Mode)
}

type ignore struct{}

func (ignore) Stop() {}

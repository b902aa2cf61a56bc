//go:build !pprof

package profile

// Modes returns no modes when profiling is not compiled in.
func Modes() []string { return nil }

func supported(string) bool { return false }

func start(Profiler) Stopper { return ignore{} }

package lang

// This file defines the built-in environment available to expr-lang option
// expressions in [Configuration] blocks. The environment is lazily
// initialized once per process and cloned on every access so callers may add
// option values without affecting the shared cache.

import (
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

//nolint:gochecknoglobals
var (
	envCacheOnce sync.Once
	envCache     map[string]any
)

// makeEnvCache returns a clone of the process-scoped expression environment.
func makeEnvCache() map[string]any {
	envCacheOnce.Do(func() {
		envCache = map[string]any{
			"platform": getPlatform(),
			"cwd":      getCwd,

			"file": map[string]any{
				"exists": fileExists,
				"isDir":  fileIsDir,
			},

			"path": map[string]any{
				"abs":  pathAbs,
				"cat":  pathCat,
				"base": filepath.Base,
				"ext":  filepath.Ext,
			},

			"mung": map[string]any{
				"prefix": mungPrefix,
			},
		}
	})

	return maps.Clone(envCache)
}

// exprEnv returns the environment for one option expression: the built-ins,
// an env() function over the process environment, and the options assigned
// earlier in the same compilation.
func exprEnv(earlier map[string]Value) map[string]any {
	env := makeEnvCache()
	env["env"] = os.Getenv

	for k, v := range earlier {
		if _, builtin := env[k]; !builtin {
			env[k] = v.Any()
		}
	}

	return env
}

// BuiltinEnvKeys returns the sorted top-level names of the expression
// environment, for completion.
func BuiltinEnvKeys() []string {
	env := makeEnvCache()
	keys := make([]string, 0, len(env)+1)

	for k := range env {
		keys = append(keys, k)
	}

	keys = append(keys, "env")
	sort.Strings(keys)

	return keys
}

// target identifies a host operating system and architecture.
type target struct {
	OS   string
	Arch string
}

// getPlatform returns the host using Go naming conventions, honoring GOOS
// and GOARCH overrides.
func getPlatform() target {
	o, ok := os.LookupEnv("GOOS")
	if !ok {
		o = runtime.GOOS
	}

	a, ok := os.LookupEnv("GOARCH")
	if !ok {
		a = runtime.GOARCH
	}

	return target{OS: o, Arch: a}
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

// mungPrefix prepends prefix to the PATH-like list in subject, removing
// duplicates.
func mungPrefix(subject string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// searchPath composes the module search path: dirs, then the entries of
// CHTL_MODULE_PATH. Entries that are not directories are dropped.
func searchPath(dirs ...string) []string {
	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(ModulePathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(fileIsDir),
	).String()

	var path []string

	for _, dir := range filepath.SplitList(list) {
		if dir = strings.TrimSpace(dir); dir != "" {
			path = append(path, dir)
		}
	}

	return path
}

package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix returns the base name of the running executable without its
// extension. It names the configuration and cache directories so that
// renamed binaries keep separate settings.
//
// Builds from the dlv debugger ("__debug_bin1234") use [Name], and leading
// dots are removed.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		return prefixOf(id)
	},
)

var (
	debugBin   = regexp.MustCompile(`^__debug_bin\d*$`)
	leadingDot = regexp.MustCompile(`^\.+`)
)

func prefixOf(exe string) string {
	base := filepath.Base(exe)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = debugBin.ReplaceAllString(base, Name)
	base = leadingDot.ReplaceAllString(base, "")

	if base == "" {
		return Name
	}

	return base
}

// ConfigDir returns the per-user configuration directory.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string {
		return userDir(os.UserConfigDir, ".config")
	},
)

// CacheDir returns the per-user directory for transient files such as the
// interactive history.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string {
		return userDir(os.UserCacheDir, ".cache")
	},
)

// ModuleDir returns the per-user directory searched for imported modules
// after the directories given on the command line.
func ModuleDir() string {
	return filepath.Join(ConfigDir(), "module")
}

// userDir joins [Prefix] to the directory returned by base, falling back to
// a hidden directory in the home directory and then to the working
// directory.
func userDir(base func() (string, error), hidden string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

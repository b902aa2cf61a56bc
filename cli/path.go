package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/chtl/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config" + pkg.Extension

// defaultDirMode is the permission mode of created directories.
const defaultDirMode os.FileMode = 0o700

// configPath returns the path formed by joining the configuration directory
// with elem. Without elements it is the configuration directory itself.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// cacheDir returns the directory of transient files such as the REPL
// history.
func cacheDir() string { return pkg.CacheDir() }

// requiredDirs returns every directory that must exist before the command
// line is parsed.
func requiredDirs() []string {
	return []string{pkg.ConfigDir(), pkg.CacheDir(), pkg.ModuleDir()}
}

// mkdirAll creates each of dirs with [defaultDirMode].
func mkdirAll(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

package plugin

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DiscoveryConfig controls where Discover looks for candidate plugin
// shared objects.
type DiscoveryConfig struct {
	SearchDirs     []string
	Extensions     []string // e.g. ".so", ".dylib"; defaults to both when empty
	Recursive      bool
	FollowSymlinks bool
	MaxDepth       int // 0 means unlimited when Recursive is true
}

func (c DiscoveryConfig) extensions() []string {
	if len(c.Extensions) > 0 {
		return c.Extensions
	}
	return []string{".so", ".dylib"}
}

// Discover walks cfg.SearchDirs and returns every file matching one of
// cfg.Extensions. Non-recursive discovery only looks at each directory's
// immediate children.
func Discover(cfg DiscoveryConfig) ([]string, error) {
	exts := cfg.extensions()
	var found []string

	for _, dir := range cfg.SearchDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == dir {
				return nil
			}
			if d.IsDir() {
				if !cfg.Recursive {
					return filepath.SkipDir
				}
				if cfg.MaxDepth > 0 && depthFrom(dir, path) > cfg.MaxDepth {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 && !cfg.FollowSymlinks {
				return nil
			}
			if hasAnyExt(path, exts) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// depthFrom returns how many directory levels below root a directory
// sits: a direct child of root is depth 1.
func depthFrom(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func hasAnyExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

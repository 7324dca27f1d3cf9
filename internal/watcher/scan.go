package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan walks every root recursively and calls fn with the absolute path of
// each regular file matching exts. Missing roots are skipped and errors from
// fn do not stop the walk. It returns the number of files passed to fn
// without error.
func Scan(ctx context.Context, roots, exts []string, fn func(context.Context, string) error) (int, error) {
	exts = normalizeExts(exts)
	count := 0
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return count, err
		}
		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == abs && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !MatchesExtension(path, exts) {
				return nil
			}
			if fn(ctx, path) == nil {
				count++
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, fs.SkipDir) {
			return count, walkErr
		}
	}
	return count, nil
}

// ResolveGlob expands pattern into a sorted, de-duplicated list of existing
// regular files. "**" matches any number of directories.
func ResolveGlob(pattern string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}

	var matches []string
	if strings.Contains(pattern, "**") {
		found, err := resolveRecursive(pattern)
		if err != nil {
			return nil, err
		}
		matches = found
	} else {
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		matches = found
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}

func resolveRecursive(pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	root := strings.TrimRight(pattern[:idx], string(filepath.Separator))
	if root == "" {
		if strings.HasPrefix(pattern, string(filepath.Separator)) {
			root = string(filepath.Separator)
		} else {
			root = "."
		}
	}
	rest := strings.TrimLeft(pattern[idx+2:], string(filepath.Separator))

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				if errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchTail(rest, rel) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipDir) {
		return nil, err
	}
	return matches, nil
}

// matchTail reports whether rest matches rel after dropping zero or more
// leading directories from rel.
func matchTail(rest, rel string) bool {
	if rest == "" {
		return true
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for i := range parts {
		candidate := strings.Join(parts[i:], string(filepath.Separator))
		if ok, _ := filepath.Match(rest, candidate); ok {
			return true
		}
	}
	return false
}

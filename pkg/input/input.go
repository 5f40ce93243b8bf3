// Package input enumerates the files a run will handle. A root may be one
// file or a directory tree; either way the result is a deterministic,
// lexically ordered list of regular files.
package input

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Options configures enumeration.
type Options struct {
	// IncludeHidden includes dotfiles and descends into dot-directories.
	IncludeHidden bool
	// FollowSymlinks resolves symlinked files instead of skipping them.
	FollowSymlinks bool
}

// Collect returns the regular files under root in walk order. A root that is
// itself a file is returned as-is, hidden or not: naming a file explicitly
// overrides the hidden filter. A .gitignore at the root of a directory tree
// is honored.
func Collect(ctx context.Context, root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("input: %s is not a regular file", root)
		}
		return []string{root}, nil
	}

	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		hidden := !opts.IncludeHidden && isHidden(d.Name()) && path != root
		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}

		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}

		switch {
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0 && opts.FollowSymlinks:
			target, err := os.Stat(path)
			if err != nil {
				// Broken symlinks are skipped, not fatal.
				return nil
			}
			if target.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	return files, nil
}

// isHidden reports whether a file name is a dotfile. "." and ".." are not.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

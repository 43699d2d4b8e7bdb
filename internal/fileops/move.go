// file: internal/fileops/move.go
// version: 2.1.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// ErrTargetExists is returned when a move would overwrite a different file.
var ErrTargetExists = errors.New("target file already exists")

// MoveOptions configures Move.
type MoveOptions struct {
	// VerifyChecksums compares SHA256 hashes when a move falls back to copying
	VerifyChecksums bool
	// PruneRoot, when set, removes source directories left empty by the move
	// up to but not including this directory
	PruneRoot string
	// Logger receives prune failures, which do not fail the move
	Logger hclog.Logger
}

// DefaultMoveOptions returns the default move configuration
func DefaultMoveOptions() MoveOptions {
	return MoveOptions{VerifyChecksums: true}
}

// Replaced in tests.
var pruneEmptyDirs = PruneEmptyDirs

// Move relocates src to dst, creating parent directories. A rename is tried
// first; across filesystems the file is copied, verified and the source
// removed. Moving a file onto itself is a no-op. Once the file is at dst the
// move has succeeded; pruning emptied source directories is best effort.
func Move(src, dst string, opts MoveOptions) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		if err := copyVerifyRemove(src, dst, opts.VerifyChecksums); err != nil {
			return err
		}
	}

	if opts.PruneRoot != "" {
		if err := pruneEmptyDirs(filepath.Dir(src), opts.PruneRoot); err != nil && opts.Logger != nil {
			opts.Logger.Warn("failed to prune empty directories", "dir", filepath.Dir(src), "error", err)
		}
	}
	return nil
}

func copyVerifyRemove(src, dst string, verify bool) error {
	var srcHash string
	if verify {
		hash, err := ComputeFileHash(src)
		if err != nil {
			return fmt.Errorf("failed to calculate checksum: %w", err)
		}
		srcHash = hash
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if verify {
		dstHash, err := ComputeFileHash(dst)
		if err != nil {
			return fmt.Errorf("failed to verify target checksum: %w", err)
		}
		if dstHash != srcHash {
			os.Remove(dst)
			return fmt.Errorf("checksum mismatch: %s failed integrity check", dst)
		}
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove original file: %w", err)
	}
	return nil
}

// copyFile copies a file from src to dst, keeping its permissions
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Sync to ensure data is written to disk
	if err := destFile.Sync(); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}

// PruneEmptyDirs removes dir and its parents while they are empty, stopping
// at root. Directories outside root are left alone.
func PruneEmptyDirs(dir, root string) error {
	root = filepath.Clean(root)
	dir = filepath.Clean(dir)
	for dir != root && IsWithin(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				dir = filepath.Dir(dir)
				continue
			}
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return err
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// IsWithin reports whether path is root or lies below it.
func IsWithin(path, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

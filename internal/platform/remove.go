package platform

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ClearWriteProtection makes path deletable by restoring the owner's write
// bit (and, for directories, the execute bit so they can be descended into).
// On Windows os.Chmod maps the write bit onto the read-only attribute, so
// the same call clears both forms of protection. Symlinks are left alone.
func ClearWriteProtection(path string, isDir bool) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}

	perm := info.Mode().Perm()
	want := perm | 0o200
	if isDir {
		want = perm | 0o700
	}
	if want == perm {
		return nil
	}
	return os.Chmod(path, want)
}

// RemoveAllForced deletes the tree rooted at root even when entries carry
// restrictive permission bits inherited from the copied source. It clears
// write protection top-down first (so read-only directories can still be
// descended into), then removes the tree.
func RemoveAllForced(root string) error {
	if _, err := os.Lstat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best effort; RemoveAll reports what remains
		}
		_ = ClearWriteProtection(path, d.IsDir())
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("clear write protection under %s: %w", root, walkErr)
	}

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove %s: %w", root, err)
	}
	return nil
}

package hub

import (
	"fmt"
	"os"
)

// createLink creates a symbolic link at linkPath pointing at target.
//
// The invariant maintained here is that every cached artifact has exactly
// one link pointing to it from the model tree:
//   - No entry at linkPath: the link is created.
//   - A link already pointing at target: kept as-is (idempotent re-build).
//   - A link whose target no longer exists (the cache volume was pruned or
//     recreated externally): the stale link is removed and recreated.
//   - A link pointing at a different live target, or a regular file: an
//     error, since silently replacing it would hide a manifest conflict.
//
// The link's parent directory must already exist; a missing save directory
// aborts the build the same way a failed download does.
func createLink(target, linkPath string) error {
	fi, err := os.Lstat(linkPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to inspect %s: %w", linkPath, err)
		}
		if err := os.Symlink(target, linkPath); err != nil {
			return fmt.Errorf("failed to link %s -> %s: %w", linkPath, target, err)
		}
		return nil
	}

	if fi.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s already exists and is not a symbolic link", linkPath)
	}

	existing, err := os.Readlink(linkPath)
	if err != nil {
		return fmt.Errorf("failed to read link %s: %w", linkPath, err)
	}

	if _, err := os.Stat(existing); err == nil {
		if existing == target {
			return nil
		}
		return fmt.Errorf("%s already links to %s, refusing to replace with %s",
			linkPath, existing, target)
	}

	// Stale link: the cache entry behind it is gone. Repair it.
	if err := os.Remove(linkPath); err != nil {
		return fmt.Errorf("failed to remove stale link %s: %w", linkPath, err)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("failed to link %s -> %s: %w", linkPath, target, err)
	}
	return nil
}

package organize

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"ripwatch/internal/fileutil"
)

// moveFile relocates src to dst, replacing an existing dst. Staging and
// library directories commonly live on different filesystems, so a failed
// rename falls back to a verified copy followed by source removal.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if err := fileutil.CopyFileVerified(src, dst); err != nil {
				return fmt.Errorf("copy across devices: %w", err)
			}
			if err := os.Remove(src); err != nil {
				return fmt.Errorf("remove source after copy: %w", err)
			}
			return nil
		}
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// RemoveLegacyFiles deletes flat-file state left by the previous on-disk
// format. Each name is looked up in the working directory and in dataDir.
// It returns the paths that were removed.
func RemoveLegacyFiles(dataDir string, names []string) ([]string, error) {
	var removed []string
	seen := make(map[string]bool)

	for _, name := range names {
		for _, path := range []string{name, filepath.Join(dataDir, name)} {
			clean := filepath.Clean(path)
			if seen[clean] {
				continue
			}
			seen[clean] = true

			info, err := os.Stat(clean)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("failed to stat %s: %w", clean, err)
			}
			if info.IsDir() {
				continue
			}
			if err := os.Remove(clean); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", clean, err)
			}
			log.Printf("Removed obsolete %s file.", clean)
			removed = append(removed, clean)
		}
	}

	return removed, nil
}

package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan recursively scans a directory for packages
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]PackageFile, error) {
	var packages []PackageFile

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			return nil
		}

		ok, err := IsPackage(path)
		if err != nil {
			logrus.Warnf("Failed to inspect %s: %v", path, err)
			return nil
		}
		if !ok {
			return nil
		}

		logrus.Debugf("Found package: %s", path)

		packages = append(packages, PackageFile{
			Path:      path,
			Size:      info.Size(),
			Signature: SignaturePath(path),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Infof("Found %d packages in %s", len(packages), dir)
	return packages, nil
}

// SignaturePath returns the detached signature next to a package, or an
// empty string when there is none
func SignaturePath(path string) string {
	if _, err := os.Stat(path + ".sig"); err != nil {
		return ""
	}
	return path + ".sig"
}

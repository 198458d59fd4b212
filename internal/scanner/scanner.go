package scanner

import "context"

// PackageFile is a pacman package found during scanning
type PackageFile struct {
	Path string
	Size int64
	// Signature is the path of the detached .sig next to the package, if any
	Signature string
}

// Scanner finds package files
type Scanner interface {
	// Scan recursively scans a directory for packages
	Scan(ctx context.Context, dir string) ([]PackageFile, error)
}

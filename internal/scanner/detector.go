package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/utils"
)

// packageSuffixes are the archive names makepkg produces
var packageSuffixes = map[string]models.Compression{
	".pkg.tar":     models.CompressNone,
	".pkg.tar.gz":  models.CompressGzip,
	".pkg.tar.xz":  models.CompressXZ,
	".pkg.tar.zst": models.CompressZstd,
}

// IsPackage reports whether path looks like a pacman package. The name must
// carry a .pkg.tar suffix and, for compressed archives, the header must
// match the compression the suffix claims.
func IsPackage(path string) (bool, error) {
	basename := filepath.Base(path)

	idx := strings.LastIndex(basename, ".pkg.tar")
	if idx <= 0 {
		return false, nil
	}
	want, ok := packageSuffixes[basename[idx:]]
	if !ok {
		return false, nil
	}
	if want == models.CompressNone {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return false, err
	}

	return utils.DetectCompression(header[:n]) == want, nil
}

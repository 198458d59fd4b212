// Package pkgfile reads pacman package archives.
package pkgfile

import (
	"archive/tar"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/pkginfo"
	"github.com/ralt/repose/internal/utils"
)

// ErrNoPKGINFO is returned for archives without a .PKGINFO member
var ErrNoPKGINFO = errors.New(".PKGINFO not found in package")

// Load parses a package archive: .PKGINFO metadata, file list, checksums and
// the detached signature at sigPath. An empty sigPath means unsigned.
func Load(path, sigPath string) (*models.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pkg, err := Read(f)
	if err != nil {
		return nil, err
	}

	checksums, err := utils.CalculateChecksums(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksums: %w", err)
	}

	pkg.Filename = filepath.Base(path)
	pkg.CSize = checksums.Size
	pkg.MD5Sum = checksums.MD5
	pkg.SHA256Sum = checksums.SHA256

	sig, err := LoadSignature(sigPath)
	if err != nil {
		return nil, err
	}
	if sig != "" {
		pkg.Base64Sig = &sig
	}

	return pkg, nil
}

// Read parses the package archive in r. The tar is walked once; .PKGINFO is
// streamed straight into the parser.
func Read(r io.Reader) (*models.Package, error) {
	dr, err := utils.NewDecompressor(r)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	pkg := &models.Package{}
	tr := tar.NewReader(dr)
	found := false

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(header.Name, "./")

		if name == ".PKGINFO" {
			meta, err := pkginfo.Parse(tr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse .PKGINFO: %w", err)
			}
			// keep members listed before .PKGINFO
			meta.Files = pkg.Files
			pkg = meta
			found = true
			continue
		}

		// .BUILDINFO, .MTREE, .INSTALL and friends are not package content
		if strings.HasPrefix(name, ".") {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			pkg.Files = append(pkg.Files, strings.TrimSuffix(name, "/")+"/")
		default:
			pkg.Files = append(pkg.Files, name)
		}
	}

	if !found {
		return nil, ErrNoPKGINFO
	}

	return pkg, nil
}

// LoadSignature returns the base64 encoding of a detached signature file,
// or an empty string when there is none
func LoadSignature(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read signature: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

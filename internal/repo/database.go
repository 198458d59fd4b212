// Package repo reads and writes pacman repository databases.
package repo

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/utils"
)

// Contents selects which entries are written per package
type Contents int

const (
	ContentsDesc Contents = 1 << iota
	ContentsFiles
)

// Build creates a compressed database archive holding one
// <name>-<version>/ directory per package
func Build(packages []models.Package, contents Contents, compression models.Compression, mtime time.Time) ([]byte, error) {
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)

	writeEntry := func(name string, data []byte) error {
		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    0644,
			Size:    int64(len(data)),
			ModTime: mtime,
			Format:  tar.FormatPAX,
		}); err != nil {
			return err
		}
		_, err := tw.Write(data)
		return err
	}

	for i := range packages {
		pkg := &packages[i]
		dirName := fmt.Sprintf("%s-%s/", pkg.Name, pkg.Version)

		err := tw.WriteHeader(&tar.Header{
			Name:     dirName,
			Mode:     0755,
			Typeflag: tar.TypeDir,
			ModTime:  mtime,
			Format:   tar.FormatPAX,
		})
		if err != nil {
			return nil, err
		}

		if contents&ContentsDesc != 0 {
			if err := writeEntry(dirName+"desc", WriteDesc(pkg)); err != nil {
				return nil, fmt.Errorf("failed to write desc for %s: %w", pkg.Name, err)
			}
		}

		if contents&ContentsFiles != 0 {
			if err := writeEntry(dirName+"files", WriteFiles(pkg)); err != nil {
				return nil, fmt.Errorf("failed to write files for %s: %w", pkg.Name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}

	return utils.Compress(compression, tarBuf.Bytes())
}

// ReadFile loads the packages recorded in a database file
func ReadFile(dbPath string) ([]models.Package, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Read loads the packages recorded in a database stream. Entries of the
// same package directory are merged, so desc and files dbs both work.
func Read(r io.Reader) ([]models.Package, error) {
	dr, err := utils.NewDecompressor(r)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	var packages []*models.Package
	byDir := make(map[string]*models.Package)
	tr := tar.NewReader(dr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		dir, entry := path.Split(header.Name)
		if entry != "desc" && entry != "files" && entry != "depends" {
			continue
		}
		dir = strings.TrimSuffix(dir, "/")

		pkg, ok := byDir[dir]
		if !ok {
			pkg = &models.Package{}
			byDir[dir] = pkg
			packages = append(packages, pkg)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		if err := parseDesc(pkg, data); err != nil {
			return nil, fmt.Errorf("%s: %w", header.Name, err)
		}
	}

	result := make([]models.Package, 0, len(packages))
	for _, pkg := range packages {
		result = append(result, *pkg)
	}
	return result, nil
}

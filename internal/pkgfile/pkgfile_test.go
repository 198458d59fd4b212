package pkgfile

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/pkginfo"
	"github.com/ralt/repose/internal/utils"
)

const examplePKGINFO = `# Generated by makepkg 6.0.2
pkgname = example
pkgbase = example
pkgver = 1.2-3
pkgdesc = An example package
url = https://example.com
builddate = 1700000000
packager = Someone <someone@example.com>
size = 4096
arch = x86_64
license = MIT
depend = glibc
backup = etc/example/conf
`

type member struct {
	name string
	body string
	dir  bool
}

func buildPackage(t *testing.T, format models.Compression, members []member) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0644, Size: int64(len(m.body))}
		if m.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !m.dir {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())

	data, err := utils.Compress(format, buf.Bytes())
	require.NoError(t, err)
	return data
}

func examplePackage(t *testing.T, format models.Compression) []byte {
	return buildPackage(t, format, []member{
		{name: ".PKGINFO", body: examplePKGINFO},
		{name: ".MTREE", body: "garbage"},
		{name: "etc/", dir: true},
		{name: "etc/example/conf", body: "key=value\n"},
		{name: "usr/bin/example", body: "#!/bin/sh\n"},
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example-1.2-3-x86_64.pkg.tar.zst")
	data := examplePackage(t, models.CompressZstd)
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, os.WriteFile(path+".sig", []byte{0x89, 0x01, 0x33}, 0644))

	pkg, err := Load(path, path+".sig")
	require.NoError(t, err)

	assert.Equal(t, "example", pkg.Name)
	assert.Equal(t, "1.2-3", pkg.Version)
	assert.Equal(t, int64(4096), pkg.Size)
	assert.Equal(t, int64(1700000000), pkg.BuildDate)
	assert.Equal(t, []string{"glibc"}, pkg.Depends)
	assert.Equal(t, []string{"etc/example/conf"}, pkg.Backup)
	assert.Equal(t, []string{"etc/", "etc/example/conf", "usr/bin/example"}, pkg.Files)

	assert.Equal(t, "example-1.2-3-x86_64.pkg.tar.zst", pkg.Filename)
	assert.Equal(t, int64(len(data)), pkg.CSize)
	assert.Len(t, pkg.MD5Sum, 32)
	assert.Len(t, pkg.SHA256Sum, 64)

	require.NotNil(t, pkg.Base64Sig)
	assert.Equal(t, "iQEz", *pkg.Base64Sig)
}

func TestReadCompressions(t *testing.T) {
	for _, format := range []models.Compression{models.CompressNone, models.CompressGzip, models.CompressXZ} {
		t.Run(string(format), func(t *testing.T) {
			pkg, err := Read(bytes.NewReader(examplePackage(t, format)))
			require.NoError(t, err)
			assert.Equal(t, "example", pkg.Name)
			assert.Nil(t, pkg.Base64Sig)
		})
	}
}

// Written by makepkg 6.1 and later
const modernPKGINFO = `# Generated by makepkg 7.0.0
# using fakeroot version 1.36
pkgname = example
pkgbase = example
xdata = pkgtype=pkg
pkgver = 1.2-3
pkgdesc = An example package
url = https://example.com
builddate = 1700000000
packager = Someone <someone@example.com>
size = 4096
arch = x86_64
license = MIT
depend = glibc
`

func TestReadModernPKGINFO(t *testing.T) {
	data := buildPackage(t, models.CompressZstd, []member{
		{name: ".BUILDINFO", body: "format = 2\n"},
		{name: ".PKGINFO", body: modernPKGINFO},
		{name: "usr/bin/example", body: "#!/bin/sh\n"},
	})

	pkg, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "example", pkg.Name)
	assert.Equal(t, "1.2-3", pkg.Version)
	assert.Equal(t, []string{"pkgtype=pkg"}, pkg.XData)
	assert.Equal(t, []string{"usr/bin/example"}, pkg.Files)
}

func TestReadWithoutPKGINFO(t *testing.T) {
	data := buildPackage(t, models.CompressZstd, []member{{name: "usr/bin/x", body: "x"}})

	_, err := Read(bytes.NewReader(data))
	assert.True(t, errors.Is(err, ErrNoPKGINFO))
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	data := buildPackage(t, models.CompressGzip, []member{
		{name: ".PKGINFO", body: "pkgname = example\nbadentry = etc/example/conf\n"},
	})

	_, err := Read(bytes.NewReader(data))
	var unknown *pkginfo.UnknownKeyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "badentry", unknown.Key)
}

func TestLoadUnsigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example-1.2-3-x86_64.pkg.tar.xz")
	require.NoError(t, os.WriteFile(path, examplePackage(t, models.CompressXZ), 0644))

	pkg, err := Load(path, "")
	require.NoError(t, err)
	assert.Nil(t, pkg.Base64Sig)
}

func TestLoadSignatureMissing(t *testing.T) {
	sig, err := LoadSignature(filepath.Join(t.TempDir(), "nope.sig"))
	require.NoError(t, err)
	assert.Equal(t, "", sig)
}

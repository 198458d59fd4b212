package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/repose/internal/models"
	"github.com/ulikunitz/xz"
)

// Magic bytes of the compression formats pacman uses
var (
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// DetectCompression identifies the compression of a stream from its header
func DetectCompression(header []byte) models.Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return models.CompressZstd
	case bytes.HasPrefix(header, xzMagic):
		return models.CompressXZ
	case bytes.HasPrefix(header, gzipMagic):
		return models.CompressGzip
	default:
		return models.CompressNone
	}
}

// Compress compresses data with the given format
func Compress(format models.Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch format {
	case models.CompressNone, "":
		return data, nil
	case models.CompressGzip:
		w = gzip.NewWriter(&buf)
	case models.CompressXZ:
		w, err = xz.NewWriter(&buf)
	case models.CompressZstd:
		w, err = zstd.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", format)
	}
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// NewDecompressor sniffs the compression of r and returns a reader over the
// decompressed stream. Close releases decoder resources, not r.
func NewDecompressor(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch DetectCompression(header) {
	case models.CompressZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case models.CompressXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case models.CompressGzip:
		return gzip.NewReader(br)
	default:
		return io.NopCloser(br), nil
	}
}

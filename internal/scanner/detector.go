package scanner

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tizen/itest/internal/utils"
)

// Magic bytes for image detection
var (
	// RPM packages start with 0xED 0xAB 0xEE 0xDB
	rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

	// Gzip magic bytes
	gzipMagic = []byte{0x1F, 0x8B}

	// Zstandard magic bytes
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

	// XZ magic bytes
	xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// POSIX tar "ustar" magic at offset 257
	tarMagic  = []byte("ustar")
	tarOffset = 257
)

// ImageFormat is how an image is stored
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatDir
	FormatTar
	FormatRpm
)

// String returns the string representation of ImageFormat
func (f ImageFormat) String() string {
	switch f {
	case FormatDir:
		return "dir"
	case FormatTar:
		return "tar"
	case FormatRpm:
		return "rpm"
	default:
		return "unknown"
	}
}

// DetectCompression identifies the compression of a stream by its header
func DetectCompression(header []byte) utils.Compression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return utils.CompressionGzip
	case bytes.HasPrefix(header, xzMagic):
		return utils.CompressionXz
	case bytes.HasPrefix(header, zstdMagic):
		return utils.CompressionZstd
	default:
		return utils.CompressionNone
	}
}

// IsRPM reports whether header starts like an RPM package
func IsRPM(header []byte) bool {
	return bytes.HasPrefix(header, rpmMagic)
}

// DetectImage determines the format and compression of an image path
func DetectImage(path string) (ImageFormat, utils.Compression, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, utils.CompressionNone, err
	}
	if info.IsDir() {
		return FormatDir, utils.CompressionNone, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, utils.CompressionNone, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && n == 0 {
		return FormatUnknown, utils.CompressionNone, err
	}
	header = header[:n]

	if IsRPM(header) {
		return FormatRpm, utils.CompressionNone, nil
	}

	comp := DetectCompression(header)
	if comp != utils.CompressionNone {
		// compressed streams are assumed to hold a tar archive
		return FormatTar, comp, nil
	}

	if len(header) >= tarOffset+len(tarMagic) && bytes.Equal(header[tarOffset:tarOffset+len(tarMagic)], tarMagic) {
		return FormatTar, utils.CompressionNone, nil
	}

	return FormatUnknown, utils.CompressionNone, fmt.Errorf("unrecognized image format")
}

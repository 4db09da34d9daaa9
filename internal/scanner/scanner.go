package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/tizen/itest/internal/models"
)

// RPMExt marks entries whose RPM header is read while scanning
const RPMExt = ".rpm"

// EntryType is the kind of a file system entry
type EntryType int

const (
	TypeOther EntryType = iota
	TypeFile
	TypeDir
	TypeSymlink
)

// String returns the string representation of EntryType
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is one file of an image tree. Path is slash separated and
// relative to the image root.
type Entry struct {
	Path       string
	Type       EntryType
	Mode       uint32
	Size       int64
	SHA256     string
	LinkTarget string

	content func() ([]byte, error)
	pkg     func() (*models.Package, error)
}

// Content returns the bytes of a regular file
func (e *Entry) Content() ([]byte, error) {
	if e.content == nil {
		return nil, nil
	}
	return e.content()
}

// Package returns the RPM header of a .rpm file. Archive scanners read it
// while streaming, so it is available whatever the size of the file.
func (e *Entry) Package() (*models.Package, error) {
	if e.pkg == nil {
		return nil, fmt.Errorf("%s is not an RPM package", e.Path)
	}
	return e.pkg()
}

func isRPM(e *Entry) bool {
	return e.Type == TypeFile && strings.HasSuffix(e.Path, RPMExt)
}

// Scanner lists the entries of an image
type Scanner interface {
	// Scan returns every entry of the image sorted by path
	Scan(ctx context.Context) ([]Entry, error)
}

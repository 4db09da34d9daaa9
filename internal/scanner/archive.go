package scanner

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/packaging"
	"github.com/tizen/itest/internal/utils"
)

// ArchiveScanner implements Scanner for a possibly compressed tar image.
// File contents up to MaxContent bytes are kept for diffing.
type ArchiveScanner struct {
	path        string
	compression utils.Compression
	MaxContent  int64
}

// DefaultMaxContent bounds the archive file contents kept in memory
const DefaultMaxContent = 1 << 20

// NewArchiveScanner creates a scanner for the tar archive at path
func NewArchiveScanner(path string, compression utils.Compression) *ArchiveScanner {
	return &ArchiveScanner{path: path, compression: compression, MaxContent: DefaultMaxContent}
}

// Scan reads every member of the archive
func (s *ArchiveScanner) Scan(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := utils.Decompress(f, s.compression)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", s.compression, err)
	}
	defer r.Close()

	byPath := make(map[string]Entry)
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}

		name := cleanName(hdr.Name)
		if name == "" {
			continue
		}

		e := Entry{Path: name, Mode: uint32(hdr.FileInfo().Mode().Perm())}
		switch hdr.Typeflag {
		case tar.TypeDir:
			e.Type = TypeDir
		case tar.TypeSymlink:
			e.Type = TypeSymlink
			e.LinkTarget = hdr.Linkname
		case tar.TypeReg:
			e.Type = TypeFile
			e.Size = hdr.Size
			if err := s.readContent(&e, tr); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}
		case tar.TypeLink:
			// hard links share the content of their target
			target, ok := byPath[cleanName(hdr.Linkname)]
			if ok {
				e = target
				e.Path = name
			} else {
				e.Type = TypeOther
				e.LinkTarget = hdr.Linkname
			}
		default:
			e.Type = TypeOther
		}

		byPath[name] = e
	}

	entries := make([]Entry, 0, len(byPath))
	for _, e := range byPath {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	logrus.Debugf("Found %d entries in %s", len(entries), s.path)
	return entries, nil
}

func (s *ArchiveScanner) readContent(e *Entry, r io.Reader) error {
	var kept bytes.Buffer
	h := sha256.New()
	w := io.Writer(h)
	keep := e.Size <= s.MaxContent
	if keep {
		w = io.MultiWriter(h, &kept)
	}
	tee := io.TeeReader(r, w)

	// the header is read off the stream, the payload only gets hashed
	if isRPM(e) {
		pkg, err := packaging.ReadPackageFrom(tee)
		e.pkg = func() (*models.Package, error) { return pkg, err }
	}

	if _, err := io.Copy(io.Discard, tee); err != nil {
		return err
	}
	e.SHA256 = hex.EncodeToString(h.Sum(nil))

	if keep {
		data := kept.Bytes()
		e.content = func() ([]byte, error) { return data, nil }
	} else {
		name := e.Path
		e.content = func() ([]byte, error) {
			return nil, fmt.Errorf("%s is larger than %d bytes", name, s.MaxContent)
		}
	}
	return nil
}

func cleanName(name string) string {
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// Open returns a scanner for an image directory or archive
func Open(imagePath string) (Scanner, error) {
	format, comp, err := DetectImage(imagePath)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatDir:
		return NewFileSystemScanner(imagePath), nil
	case FormatTar:
		return NewArchiveScanner(imagePath, comp), nil
	default:
		return nil, fmt.Errorf("%s images can't be scanned", format)
	}
}

package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/packaging"
	"github.com/tizen/itest/internal/utils"
)

// FileSystemScanner implements Scanner for an unpacked image directory
type FileSystemScanner struct {
	root string
}

// NewFileSystemScanner creates a new filesystem scanner rooted at dir
func NewFileSystemScanner(dir string) *FileSystemScanner {
	return &FileSystemScanner{root: dir}
}

// Scan recursively walks the image directory
func (s *FileSystemScanner) Scan(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		e := Entry{
			Path: filepath.ToSlash(rel),
			Mode: uint32(info.Mode().Perm()),
		}

		switch {
		case info.IsDir():
			e.Type = TypeDir
		case info.Mode()&os.ModeSymlink != 0:
			e.Type = TypeSymlink
			if e.LinkTarget, err = os.Readlink(path); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			e.Type = TypeFile
			e.Size = info.Size()
			if e.SHA256, err = utils.FileSHA256(path); err != nil {
				return err
			}
			file := path
			e.content = func() ([]byte, error) { return os.ReadFile(file) }
			if isRPM(&e) {
				e.pkg = func() (*models.Package, error) { return readPackage(file) }
			}
		default:
			e.Type = TypeOther
		}

		entries = append(entries, e)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	logrus.Debugf("Found %d entries in %s", len(entries), s.root)
	return entries, nil
}

// readPackage reads only the header of an RPM file
func readPackage(path string) (*models.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return packaging.ReadPackageFrom(f)
}

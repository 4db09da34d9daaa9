package imgdiff

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/scanner"
)

// Change kinds of a path present in both images
const (
	ChangeType    = "type"
	ChangeMode    = "mode"
	ChangeContent = "content"
	ChangeLink    = "link"
)

// Options controls Compare
type Options struct {
	// Ignore holds glob patterns of paths to leave out; "**" crosses
	// directories
	Ignore []string

	// TextDiff adds unified diffs of changed text files
	TextDiff bool
	// MaxDiffSize skips text diffs of larger files; zero means no limit
	MaxDiffSize int64
}

// Change describes how one path differs
type Change struct {
	Path  string   `json:"path"`
	Kinds []string `json:"kinds"`
	Old   string   `json:"old,omitempty"`
	New   string   `json:"new,omitempty"`
	Diff  string   `json:"diff,omitempty"`
}

// Result is the outcome of comparing two images
type Result struct {
	Old     string   `json:"old"`
	New     string   `json:"new"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []Change `json:"changed"`
}

// Identical reports whether no difference was found
func (r *Result) Identical() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Images scans two images and compares them
func Images(ctx context.Context, oldPath, newPath string, opts Options) (*Result, error) {
	scan := func(p string) ([]scanner.Entry, error) {
		s, err := scanner.Open(p)
		if err != nil {
			return nil, models.NewError(models.ErrDiff, p, err)
		}
		entries, err := s.Scan(ctx)
		if err != nil {
			return nil, models.NewError(models.ErrDiff, p, err)
		}
		return entries, nil
	}

	oldEntries, err := scan(oldPath)
	if err != nil {
		return nil, err
	}
	newEntries, err := scan(newPath)
	if err != nil {
		return nil, err
	}

	res, err := Compare(oldEntries, newEntries, opts)
	if res != nil {
		res.Old, res.New = oldPath, newPath
	}
	return res, err
}

// Compare compares two sorted entry lists. Problems reading individual
// contents are returned together with the otherwise complete result.
func Compare(oldEntries, newEntries []scanner.Entry, opts Options) (*Result, error) {
	ignore, err := compileIgnore(opts.Ignore)
	if err != nil {
		return nil, err
	}
	skip := func(p string) bool {
		for _, g := range ignore {
			if g.Match(p) {
				return true
			}
		}
		return false
	}

	res := &Result{}
	var errs *multierror.Error

	i, j := 0, 0
	for i < len(oldEntries) || j < len(newEntries) {
		switch {
		case j >= len(newEntries) || (i < len(oldEntries) && oldEntries[i].Path < newEntries[j].Path):
			if !skip(oldEntries[i].Path) {
				res.Removed = append(res.Removed, oldEntries[i].Path)
			}
			i++
		case i >= len(oldEntries) || newEntries[j].Path < oldEntries[i].Path:
			if !skip(newEntries[j].Path) {
				res.Added = append(res.Added, newEntries[j].Path)
			}
			j++
		default:
			a, b := &oldEntries[i], &newEntries[j]
			if !skip(a.Path) {
				ch, err := compareEntry(a, b, opts)
				if err != nil {
					errs = multierror.Append(errs, models.NewError(models.ErrDiff, a.Path, err))
				}
				if ch != nil {
					res.Changed = append(res.Changed, *ch)
				}
			}
			i++
			j++
		}
	}

	logrus.Debugf("Compared %d/%d entries: %d added, %d removed, %d changed",
		len(oldEntries), len(newEntries), len(res.Added), len(res.Removed), len(res.Changed))
	return res, errs.ErrorOrNil()
}

func compareEntry(a, b *scanner.Entry, opts Options) (*Change, error) {
	ch := &Change{Path: a.Path}

	if a.Type != b.Type {
		ch.Kinds = append(ch.Kinds, ChangeType)
		ch.Old, ch.New = a.Type.String(), b.Type.String()
		return ch, nil
	}
	if a.Mode != b.Mode {
		ch.Kinds = append(ch.Kinds, ChangeMode)
		ch.Old, ch.New = fmt.Sprintf("%04o", a.Mode), fmt.Sprintf("%04o", b.Mode)
	}
	if a.Type == scanner.TypeSymlink && a.LinkTarget != b.LinkTarget {
		ch.Kinds = append(ch.Kinds, ChangeLink)
		ch.Old, ch.New = a.LinkTarget, b.LinkTarget
	}

	var err error
	if a.Type == scanner.TypeFile && a.SHA256 != b.SHA256 {
		ch.Kinds = append(ch.Kinds, ChangeContent)
		err = describeContent(ch, a, b, opts)
	}

	if len(ch.Kinds) == 0 {
		return nil, nil
	}
	return ch, err
}

// describeContent fills in how file contents differ: rpm versions for
// packages, a unified diff for text
func describeContent(ch *Change, a, b *scanner.Entry, opts Options) error {
	if strings.HasSuffix(a.Path, scanner.RPMExt) {
		return describeRPM(ch, a, b)
	}

	ch.Old, ch.New = a.SHA256, b.SHA256
	if !opts.TextDiff {
		return nil
	}
	if opts.MaxDiffSize > 0 && (a.Size > opts.MaxDiffSize || b.Size > opts.MaxDiffSize) {
		return nil
	}

	oldData, err := a.Content()
	if err != nil {
		return err
	}
	newData, err := b.Content()
	if err != nil {
		return err
	}
	if !isText(oldData) || !isText(newData) {
		return nil
	}

	ch.Diff, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldData)),
		B:        difflib.SplitLines(string(newData)),
		FromFile: "a/" + a.Path,
		ToFile:   "b/" + b.Path,
		Context:  3,
	})
	return err
}

func describeRPM(ch *Change, a, b *scanner.Entry) error {
	oldPkg, err := a.Package()
	if err != nil {
		ch.Old, ch.New = a.SHA256, b.SHA256
		return err
	}
	newPkg, err := b.Package()
	if err != nil {
		ch.Old, ch.New = a.SHA256, b.SHA256
		return err
	}

	ch.Old, ch.New = oldPkg.NEVRA(), newPkg.NEVRA()
	if ch.Old == ch.New {
		ch.Diff = "rpm: same version, different payload"
	} else {
		ch.Diff = fmt.Sprintf("rpm: %s -> %s", ch.Old, ch.New)
	}
	return nil
}

func isText(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) < 0
}

func compileIgnore(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
		if err != nil {
			return nil, models.NewError(models.ErrDiff, p, fmt.Errorf("invalid ignore pattern: %w", err))
		}
		globs = append(globs, g)
	}
	return globs, nil
}

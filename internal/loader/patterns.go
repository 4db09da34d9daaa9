package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tizen/itest/internal/casefile"
	"github.com/tizen/itest/internal/models"
)

// CaseExt is the file extension of case files
const CaseExt = ".case"

// Match is what a pattern turns a selector into: cases to add, or more
// selectors to expand.
type Match struct {
	Cases     []*models.Case
	Selectors []string
}

// Pattern recognises one kind of selector. Load returns nil when the
// selector is not of its kind.
type Pattern interface {
	Name() string
	Load(l *Loader, sel string) (*Match, error)
}

// DefaultPatterns returns the patterns in the order they are tried
func DefaultPatterns() []Pattern {
	return []Pattern{
		AliasPattern{},
		FilePattern{},
		DirPattern{},
		IntersectionPattern{},
		ComponentPattern{},
		InversePattern{},
	}
}

// AliasPattern expands the suite aliases defined in settings
type AliasPattern struct{}

func (AliasPattern) Name() string { return "alias" }

func (AliasPattern) Load(l *Loader, sel string) (*Match, error) {
	selectors, ok := l.settings.Suites[sel]
	if !ok {
		return nil, nil
	}
	return &Match{Selectors: selectors}, nil
}

// FilePattern loads a single case file
type FilePattern struct{}

func (FilePattern) Name() string { return "file" }

func (FilePattern) Load(l *Loader, sel string) (*Match, error) {
	info, err := os.Stat(sel)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}

	c, err := casefile.ParseFile(sel)
	if err != nil {
		return &Match{}, err
	}
	c.Component = models.GuessComponent(c.Filename, l.settings.CasesPath())
	return &Match{Cases: []*models.Case{c}}, nil
}

// DirPattern finds all case files below a directory
type DirPattern struct{}

func (DirPattern) Name() string { return "dir" }

func (DirPattern) Load(_ *Loader, sel string) (*Match, error) {
	info, err := os.Stat(sel)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(sel, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), CaseExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &Match{}, models.NewError(models.ErrLoad, sel, err)
	}
	return &Match{Selectors: files}, nil
}

// IntersectionPattern loads the cases common to every part of "a&&b"
type IntersectionPattern struct{}

func (IntersectionPattern) Name() string { return "intersection" }

func (IntersectionPattern) Load(l *Loader, sel string) (*Match, error) {
	if strings.Index(sel, "&&") <= 0 {
		return nil, nil
	}

	var first *models.Suite
	var rest []*models.Suite
	for _, part := range strings.Split(sel, "&&") {
		suite := l.Load(strings.TrimSpace(part))
		if first == nil {
			first = suite
		} else {
			rest = append(rest, suite)
		}
	}
	return &Match{Cases: first.Intersect(rest...).Cases()}, nil
}

// ComponentPattern maps a component name to its directory
type ComponentPattern struct{}

func (ComponentPattern) Name() string { return "component" }

func (ComponentPattern) Load(l *Loader, sel string) (*Match, error) {
	if !l.IsComponent(sel) {
		return nil, nil
	}
	return &Match{Selectors: []string{filepath.Join(l.settings.CasesPath(), sel)}}, nil
}

// InversePattern expands "!comp" to every other component
type InversePattern struct{}

func (InversePattern) Name() string { return "inverse" }

func (InversePattern) Load(l *Loader, sel string) (*Match, error) {
	comp, ok := strings.CutPrefix(sel, "!")
	if !ok || !l.IsComponent(comp) {
		return nil, nil
	}

	var others []string
	for _, c := range l.Components() {
		if c != comp {
			others = append(others, c)
		}
	}
	return &Match{Selectors: others}, nil
}

func listComponents(casesDir string) []string {
	entries, err := os.ReadDir(casesDir)
	if err != nil {
		return nil
	}
	var comps []string
	for _, e := range entries {
		if e.IsDir() {
			comps = append(comps, e.Name())
		}
	}
	sort.Strings(comps)
	return comps
}

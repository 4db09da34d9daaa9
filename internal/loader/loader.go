package loader

import (
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/conf"
	"github.com/tizen/itest/internal/models"
)

// Loader turns selectors (files, dirs, components, aliases, "!comp",
// "a&&b") into suites of cases
type Loader struct {
	settings   *conf.Settings
	patterns   []Pattern
	components map[string]bool
	compList   []string
	errs       *multierror.Error
}

// New creates a loader using the default patterns
func New(settings *conf.Settings) *Loader {
	return &Loader{settings: settings, patterns: DefaultPatterns()}
}

// WithPatterns replaces the patterns tried for each selector
func (l *Loader) WithPatterns(patterns ...Pattern) *Loader {
	l.patterns = patterns
	return l
}

// LoadArgs loads every selector in args, or the whole cases dir when args
// is empty. Case files that failed to parse are reported in the error;
// the returned suite holds everything that loaded.
func (l *Loader) LoadArgs(args []string) (*models.Suite, error) {
	if len(args) == 0 {
		args = []string{l.settings.CasesPath()}
	}

	suite := models.NewSuite()
	for _, arg := range args {
		suite.Merge(l.Load(arg))
	}

	return suite, l.errs.ErrorOrNil()
}

// Load expands a single selector
func (l *Loader) Load(sel string) *models.Suite {
	suite := models.NewSuite()
	stack := []string{sel}

	for len(stack) > 0 {
		sel = stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		matched := false
		for _, p := range l.patterns {
			m, err := p.Load(l, sel)
			if err != nil {
				l.errs = multierror.Append(l.errs, err)
			}
			if m == nil {
				continue
			}

			logrus.Debugf("Selector %q matched %s pattern", sel, p.Name())
			suite.Add(m.Cases...)
			// reversed so selectors expand in the order given
			for i := len(m.Selectors) - 1; i >= 0; i-- {
				stack = append(stack, m.Selectors[i])
			}
			matched = true
			break
		}

		if !matched {
			logrus.Warnf("No test case matches %q", sel)
		}
	}

	return suite
}

// Components returns the sorted names of the directories directly below
// the cases dir
func (l *Loader) Components() []string {
	l.loadComponents()
	return l.compList
}

// IsComponent reports whether name is a component
func (l *Loader) IsComponent(name string) bool {
	l.loadComponents()
	return l.components[name]
}

func (l *Loader) loadComponents() {
	if l.components != nil {
		return
	}
	l.compList = listComponents(l.settings.CasesPath())
	l.components = make(map[string]bool, len(l.compList))
	for _, c := range l.compList {
		l.components[c] = true
	}
}

// FilterTags keeps the cases having at least one tag matching any of the
// glob patterns. No patterns keeps everything.
func FilterTags(suite *models.Suite, patterns []string) (*models.Suite, error) {
	if len(patterns) == 0 {
		return suite, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, models.NewError(models.ErrLoad, p, err)
		}
		globs = append(globs, g)
	}

	return suite.Filter(func(c *models.Case) bool {
		for _, tag := range c.Tags {
			for _, g := range globs {
				if g.Match(tag) {
					return true
				}
			}
		}
		return false
	}), nil
}

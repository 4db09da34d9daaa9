package packaging

import (
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tizen/itest/internal/models"
)

// Family is a distribution family as far as package naming goes
type Family string

const (
	FamilySUSE  Family = "suse"
	FamilyOther Family = "other"
)

// ParseFamily maps a distribution id or family name to a Family
func ParseFamily(s string) Family {
	s = strings.ToLower(s)
	if strings.Contains(s, "suse") || s == "sles" || s == "sled" {
		return FamilySUSE
	}
	return FamilyOther
}

// PexpectPackage is the name of the pexpect package per family
var PexpectPackage = map[Family]string{
	FamilySUSE:  "python-pexpect",
	FamilyOther: "pexpect",
}

// Metadata describes the itest-core package
type Metadata struct {
	Name    string
	Version string
	Release string
	Summary string
	Group   string
	License string
	URL     string

	BuildRequires []string

	// PythonMin is the lowest supported interpreter
	PythonMin string
	// ArgparseBelow: interpreters older than this need python-argparse
	ArgparseBelow string

	// SiteLibPrefix is the name prefix of the installed python modules
	SiteLibPrefix string
	Binaries      []string

	// SiteLib pins python_sitelib; empty asks the build interpreter
	SiteLib string

	Changelog []ChangelogEntry
}

// DefaultMetadata returns the itest-core packaging contract
func DefaultMetadata() *Metadata {
	return &Metadata{
		Name:          "itest-core",
		Version:       "1.7",
		Release:       "1",
		Summary:       "gbs system test automatic script and test cases",
		Group:         "Development/Tools",
		License:       "GPLv2",
		URL:           "https://github.com/tizen/itest",
		BuildRequires: []string{"python-setuptools", "python-devel"},
		PythonMin:     "2.6",
		ArgparseBelow: "2.7",
		SiteLibPrefix: "itest",
		Binaries:      []string{"runtest", "imgdiff"},
	}
}

// Target is a concrete build target
type Target struct {
	Family        Family
	PythonVersion string
}

// Requires resolves the run-time requirements for a target
func (m *Metadata) Requires(t Target) ([]string, error) {
	requires := []string{"python >= " + m.PythonMin}

	pexpect, ok := PexpectPackage[t.Family]
	if !ok {
		pexpect = PexpectPackage[FamilyOther]
	}
	requires = append(requires, pexpect)

	old, err := m.needsArgparse(t.PythonVersion)
	if err != nil {
		return nil, err
	}
	if old {
		requires = append(requires, "python-argparse")
	}
	return requires, nil
}

func (m *Metadata) needsArgparse(pythonVersion string) (bool, error) {
	v, err := semver.NewVersion(pythonVersion)
	if err != nil {
		return false, models.NewError(models.ErrPackaging, pythonVersion,
			fmt.Errorf("invalid python version: %w", err))
	}
	c, err := semver.NewConstraint("< " + m.ArgparseBelow)
	if err != nil {
		return false, models.NewError(models.ErrPackaging, m.ArgparseBelow, err)
	}
	return c.Check(v), nil
}

// Layout is where a distribution installs python modules and binaries
type Layout struct {
	SiteLib string
	BinDir  string
}

// DefaultLayout is the layout of a python 2.7 noarch package
var DefaultLayout = Layout{
	SiteLib: "/usr/lib/python2.7/site-packages",
	BinDir:  "/usr/bin",
}

// InstallCommand is the setup.py invocation run in %install
func InstallCommand(python, prefix, root string) []string {
	return []string{python, "setup.py", "install", "--prefix=" + prefix, "--root=" + root}
}

// SiteLibPattern is the file list glob of the python modules
func (m *Metadata) SiteLibPattern(l Layout) string {
	return path.Join(l.SiteLib, m.SiteLibPrefix) + "*"
}

// BinaryPaths returns the installed paths of the binaries
func (m *Metadata) BinaryPaths(l Layout) []string {
	out := make([]string, 0, len(m.Binaries))
	for _, b := range m.Binaries {
		out = append(out, path.Join(l.BinDir, b))
	}
	return out
}

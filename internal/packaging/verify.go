package packaging

import (
	"sort"
	"strings"

	"github.com/tizen/itest/internal/models"
)

// Report lists how a built package differs from the packaging contract
type Report struct {
	Package string

	MissingFiles    []string
	UnexpectedFiles []string

	MissingRequires    []string
	UnexpectedRequires []string
}

// OK reports whether the package matches the contract
func (r *Report) OK() bool {
	return len(r.MissingFiles) == 0 && len(r.UnexpectedFiles) == 0 &&
		len(r.MissingRequires) == 0 && len(r.UnexpectedRequires) == 0
}

// Verify checks the file list and requirements of pkg against m
func (m *Metadata) Verify(pkg *models.Package, t Target, l Layout) (*Report, error) {
	report := &Report{Package: pkg.NEVRA()}

	// file list: the site-library tree and every binary, nothing else
	sitePrefix := strings.TrimSuffix(m.SiteLibPattern(l), "*")
	binaries := make(map[string]bool)
	for _, b := range m.BinaryPaths(l) {
		binaries[b] = false
	}

	siteSeen := false
	for _, f := range pkg.Files {
		switch {
		case strings.HasPrefix(f, sitePrefix):
			siteSeen = true
		case isParentDir(f, sitePrefix):
			// directories leading to the site-library are owned by python
		default:
			if _, ok := binaries[f]; ok {
				binaries[f] = true
			} else {
				report.UnexpectedFiles = append(report.UnexpectedFiles, f)
			}
		}
	}
	if !siteSeen {
		report.MissingFiles = append(report.MissingFiles, m.SiteLibPattern(l))
	}
	for b, seen := range binaries {
		if !seen {
			report.MissingFiles = append(report.MissingFiles, b)
		}
	}

	// requirements by name; rpmlib() and file dependencies come from rpmbuild
	want, err := m.Requires(t)
	if err != nil {
		return nil, err
	}
	wantNames := make(map[string]bool)
	for _, w := range want {
		wantNames[strings.Fields(w)[0]] = true
	}

	have := make(map[string]bool)
	for _, r := range pkg.Requires {
		if strings.HasPrefix(r, "rpmlib(") || strings.HasPrefix(r, "/") {
			continue
		}
		if have[r] {
			continue
		}
		have[r] = true
		if !wantNames[r] {
			report.UnexpectedRequires = append(report.UnexpectedRequires, r)
		}
	}
	for name := range wantNames {
		if !have[name] {
			report.MissingRequires = append(report.MissingRequires, name)
		}
	}

	sort.Strings(report.MissingFiles)
	sort.Strings(report.UnexpectedFiles)
	sort.Strings(report.MissingRequires)
	sort.Strings(report.UnexpectedRequires)
	return report, nil
}

func isParentDir(dir, prefix string) bool {
	dir = strings.TrimSuffix(dir, "/")
	return dir != "" && strings.HasPrefix(prefix, dir+"/")
}

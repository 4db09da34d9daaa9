package models

import (
	"path/filepath"
	"strings"
)

// QA is a question the steps script may print and the answer typed back.
type QA struct {
	Question string
	Answer   string
}

// Case represents a single test case parsed from a .case file
type Case struct {
	// Absolute path of the .case file, also the case identity
	Filename string

	Summary      string
	Steps        string
	Setup        string
	Teardown     string
	Precondition string
	Version      string

	QA     []QA
	Issues map[string]string // matched token -> issue number
	Tags   []string

	// Conditions maps a condition keyword (distwhitelist, distblacklist)
	// to a lowercased label set.
	Conditions map[string]map[string]bool
	Fixtures   []string

	// Sections the parser does not know about, kept verbatim
	Extra map[string]string

	// Component is the first directory below the cases dir, or "unknown"
	Component string
}

// Dir returns the directory holding the case file.
func (c *Case) Dir() string {
	return filepath.Dir(c.Filename)
}

// Name returns the case file name relative to its component directory,
// used in reports.
func (c *Case) Name() string {
	base := filepath.Base(c.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GuessComponent returns the first path element of filename below
// casesDir, or "unknown" when the file is not nested in a directory there.
func GuessComponent(filename, casesDir string) string {
	if casesDir == "" {
		return "unknown"
	}
	casesDir = filepath.Clean(casesDir)
	if !strings.HasPrefix(filename, casesDir+string(filepath.Separator)) {
		return "unknown"
	}
	relative := strings.Split(filename[len(casesDir)+1:], string(filepath.Separator))
	if len(relative) > 1 {
		return relative[0]
	}
	return "unknown"
}

package sysinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// OSReleasePath is where the distribution identification is read from
var OSReleasePath = "/etc/os-release"

// OSRelease holds the fields of os-release(5) itest cares about
type OSRelease struct {
	ID        string
	VersionID string
	IDLike    []string
}

// ParseOSRelease reads KEY=value lines, unquoting values
func ParseOSRelease(r io.Reader) (*OSRelease, error) {
	rel := &OSRelease{}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			rel.ID = strings.ToLower(value)
		case "VERSION_ID":
			rel.VersionID = strings.ToLower(value)
		case "ID_LIKE":
			rel.IDLike = strings.Fields(strings.ToLower(value))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rel.ID == "" {
		return nil, fmt.Errorf("no ID in os-release")
	}
	return rel, nil
}

// Labels returns the labels of a machine running rel on a CPU of the given
// word size: id, id+version and id+version-bits.
func (rel *OSRelease) Labels(bits int) []string {
	labels := []string{rel.ID}
	if rel.VersionID != "" {
		full := rel.ID + rel.VersionID
		labels = append(labels, full, fmt.Sprintf("%s-%d", full, bits))
	}
	return labels
}

// Families returns the distribution id followed by the ids it is like,
// used to pick package manager settings.
func (rel *OSRelease) Families() []string {
	return append([]string{rel.ID}, rel.IDLike...)
}

// WordSize returns 64 or 32 for the running architecture
func WordSize() int {
	switch runtime.GOARCH {
	case "386", "arm", "mips", "mipsle":
		return 32
	default:
		return 64
	}
}

// Current reads the os-release file of the running machine
func Current() (*OSRelease, error) {
	f, err := os.Open(OSReleasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOSRelease(f)
}

// MachineLabels returns the labels of the running machine. Failures are
// logged and yield no labels.
func MachineLabels() []string {
	rel, err := Current()
	if err != nil {
		logrus.Warnf("Failed to identify distribution: %v", err)
		return nil
	}
	return rel.Labels(WordSize())
}

package sysinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOSRelease(t *testing.T) {
	data := `NAME="openSUSE Leap"
# comment
ID="opensuse-leap"
ID_LIKE="suse opensuse"
VERSION_ID="15.5"
`
	rel, err := ParseOSRelease(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "opensuse-leap", rel.ID)
	assert.Equal(t, "15.5", rel.VersionID)
	assert.Equal(t, []string{"opensuse-leap", "suse", "opensuse"}, rel.Families())
	assert.Equal(t, []string{"opensuse-leap", "opensuse-leap15.5", "opensuse-leap15.5-64"}, rel.Labels(64))
}

func TestParseOSReleaseWithoutVersion(t *testing.T) {
	rel, err := ParseOSRelease(strings.NewReader("ID=arch\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"arch"}, rel.Labels(32))
}

func TestParseOSReleaseMissingID(t *testing.T) {
	_, err := ParseOSRelease(strings.NewReader("NAME=foo\n"))
	assert.Error(t, err)
}

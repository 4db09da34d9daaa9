package packaging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/packaging/rpmtest"
)

func TestRequires(t *testing.T) {
	m := DefaultMetadata()

	tests := []struct {
		target Target
		want   []string
	}{
		{Target{Family: FamilySUSE, PythonVersion: "2.7.18"}, []string{"python >= 2.6", "python-pexpect"}},
		{Target{Family: FamilyOther, PythonVersion: "2.7"}, []string{"python >= 2.6", "pexpect"}},
		{Target{Family: FamilyOther, PythonVersion: "2.6.6"}, []string{"python >= 2.6", "pexpect", "python-argparse"}},
		{Target{Family: FamilySUSE, PythonVersion: "2.6"}, []string{"python >= 2.6", "python-pexpect", "python-argparse"}},
	}

	for _, tt := range tests {
		got, err := m.Requires(tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%+v", tt.target)
	}
}

func TestRequiresInvalidPython(t *testing.T) {
	_, err := DefaultMetadata().Requires(Target{Family: FamilyOther, PythonVersion: "two"})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrPackaging))
}

func TestParseFamily(t *testing.T) {
	assert.Equal(t, FamilySUSE, ParseFamily("opensuse-leap"))
	assert.Equal(t, FamilySUSE, ParseFamily("SLES"))
	assert.Equal(t, FamilyOther, ParseFamily("fedora"))
}

func TestRender(t *testing.T) {
	m := DefaultMetadata()
	m.Changelog = []ChangelogEntry{{
		Date:    time.Date(2013, time.May, 6, 12, 0, 0, 0, time.UTC),
		Author:  "Builder <builder@example.com>",
		Version: "1.7",
		Lines:   []string{" add imgdiff "},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, m))
	out := buf.String()

	assert.Contains(t, out, "%if 0%{?suse_version}\n%define pexpect_name python-pexpect\n%else\n%define pexpect_name pexpect\n%endif")
	assert.Contains(t, out, "Name:       itest-core\n")
	assert.Contains(t, out, "BuildRequires: python-setuptools\nBuildRequires: python-devel\n")
	assert.Contains(t, out, "Requires:   python >= 2.6\n")
	assert.Contains(t, out, "%if %{python_version_nodots} < 27\nRequires:   python-argparse\n%endif")
	assert.Contains(t, out, "%{__python} setup.py install --prefix=%{_prefix} --root=%{buildroot}")
	assert.Contains(t, out, "%{python_sitelib}/itest*\n%{_bindir}/runtest\n%{_bindir}/imgdiff\n")
	assert.Contains(t, out, "* Mon May 06 2013 Builder <builder@example.com> - 1.7\n- add imgdiff")
}

func TestRenderSiteLib(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, DefaultMetadata()))
	assert.Contains(t, buf.String(), "%endif\n%{!?python_sitelib: %define python_sitelib %(%{__python}")

	m := DefaultMetadata()
	m.SiteLib = "/usr/lib/python2.7/site-packages"
	buf.Reset()
	require.NoError(t, Render(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "%endif\n%define python_sitelib /usr/lib/python2.7/site-packages\n%{!?python_version_nodots:")
	assert.NotContains(t, out, "get_python_lib")
}

func TestRenderWithoutChangelog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, DefaultMetadata()))
	assert.NotContains(t, buf.String(), "%changelog")
}

func goodPackage() *models.Package {
	return &models.Package{
		Name: "itest-core", Version: "1.7", Release: "1", Architecture: "noarch",
		Files: []string{
			"/usr/bin/imgdiff",
			"/usr/bin/runtest",
			"/usr/lib/python2.7/site-packages/itest",
			"/usr/lib/python2.7/site-packages/itest/__init__.py",
			"/usr/lib/python2.7/site-packages/itest-1.7-py2.7.egg-info",
		},
		Requires: []string{"/usr/bin/python", "pexpect", "python", "rpmlib(PayloadFilesHavePrefix)"},
	}
}

func TestVerifyOK(t *testing.T) {
	report, err := DefaultMetadata().Verify(goodPackage(), Target{Family: FamilyOther, PythonVersion: "2.7"}, DefaultLayout)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report)
	assert.Equal(t, "itest-core-1.7-1.noarch", report.Package)
}

func TestVerifyFindsDifferences(t *testing.T) {
	pkg := goodPackage()
	pkg.Files = append(pkg.Files[1:], "/etc/stray.conf")

	report, err := DefaultMetadata().Verify(pkg, Target{Family: FamilySUSE, PythonVersion: "2.6"}, DefaultLayout)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"/usr/bin/imgdiff"}, report.MissingFiles)
	assert.Equal(t, []string{"/etc/stray.conf"}, report.UnexpectedFiles)
	assert.Equal(t, []string{"python-argparse", "python-pexpect"}, report.MissingRequires)
	assert.Equal(t, []string{"pexpect"}, report.UnexpectedRequires)
}

func TestVerifyEmptyFileList(t *testing.T) {
	pkg := goodPackage()
	pkg.Files = nil

	report, err := DefaultMetadata().Verify(pkg, Target{Family: FamilyOther, PythonVersion: "2.7"}, DefaultLayout)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/imgdiff", "/usr/bin/runtest", "/usr/lib/python2.7/site-packages/itest*"}, report.MissingFiles)
}

func TestReadPackageRejectsNonRPM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.rpm")
	require.NoError(t, os.WriteFile(path, []byte("fake rpm package"), 0644))

	_, err := ReadPackage(path)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrPackaging))
}

func TestReadPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itest-core.rpm")
	data := rpmtest.Build("itest-core", "1.7", "1", "noarch", 4096)
	require.NoError(t, os.WriteFile(path, data, 0644))

	pkg, err := ReadPackage(path)
	require.NoError(t, err)
	assert.Equal(t, "itest-core-1.7-1.noarch", pkg.NEVRA())
	assert.Equal(t, int64(4096), pkg.Size)
	assert.Len(t, pkg.SHA256Sum, 64)
	assert.Empty(t, pkg.Files)
}

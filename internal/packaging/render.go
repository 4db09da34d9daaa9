package packaging

import (
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/tizen/itest/internal/models"
)

// ChangelogEntry is one %changelog item
type ChangelogEntry struct {
	Date    time.Time
	Author  string
	Version string
	Lines   []string
}

const specTemplate = `{{- /* itest-core RPM spec */ -}}
%if 0%{?suse_version}
%define pexpect_name {{ index .Pexpect "suse" }}
%else
%define pexpect_name {{ index .Pexpect "other" }}
%endif
{{- if .Meta.SiteLib }}
%define python_sitelib {{ .Meta.SiteLib }}
{{- else }}
%{!?python_sitelib: %define python_sitelib %(%{__python} -c "from distutils.sysconfig import get_python_lib; print(get_python_lib())")}
{{- end }}
%{!?python_version_nodots: %define python_version_nodots %(%{__python} -c "import sys; print('%d%d' % sys.version_info[:2])")}

Name:       {{ .Meta.Name }}
Summary:    {{ .Meta.Summary }}
Version:    {{ .Meta.Version | default "0.1" }}
Release:    {{ .Meta.Release | default "1" }}
Group:      {{ .Meta.Group }}
License:    {{ .Meta.License }}
BuildArch:  noarch
URL:        {{ .Meta.URL }}
Source0:    %{name}_%{version}.tar.gz

{{- range .Meta.BuildRequires }}
BuildRequires: {{ . }}
{{- end }}
Requires:   python >= {{ .Meta.PythonMin }}
Requires:   %{pexpect_name}
%if %{python_version_nodots} < {{ .ArgparseNodots }}
Requires:   python-argparse
%endif

%description
{{ .Meta.Summary }}

%prep
%setup -q -n %{name}-%{version}

%build

%install
{{ .Install }}

%files
%defattr(-,root,root,-)
%{python_sitelib}/{{ .Meta.SiteLibPrefix }}*
{{- range .Meta.Binaries }}
%{_bindir}/{{ . }}
{{- end }}
{{- if .Meta.Changelog }}

%changelog
{{- range .Meta.Changelog }}
* {{ date "Mon Jan 02 2006" .Date }} {{ .Author }} - {{ .Version }}
{{- range .Lines }}
- {{ trim . }}
{{- end }}
{{- end }}
{{- end }}
`

var spec = template.Must(template.New("spec").Funcs(sprig.TxtFuncMap()).Parse(specTemplate))

// Render writes the RPM spec of m
func Render(w io.Writer, m *Metadata) error {
	data := map[string]interface{}{
		"Meta": m,
		"Pexpect": map[string]string{
			"suse":  PexpectPackage[FamilySUSE],
			"other": PexpectPackage[FamilyOther],
		},
		"ArgparseNodots": strings.ReplaceAll(m.ArgparseBelow, ".", ""),
		"Install":        strings.Join(InstallCommand("%{__python}", "%{_prefix}", "%{buildroot}"), " "),
	}

	if err := spec.Execute(w, data); err != nil {
		return models.NewError(models.ErrPackaging, m.Name, err)
	}
	return nil
}

package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/utils"
)

// MetaDir holds the scripts, variables and log of a case inside its
// run directory
const MetaDir = ".meta"

var setupTemplate = template.Must(template.New("setup").Parse(`cd {{.RunDir}}
(set -o posix; set) > {{.VarOld}}
set -x
{{.Body}}
set +x
(set -o posix; set) > {{.VarNew}}
diff --unchanged-line-format= --old-line-format= --new-line-format='%L' \
    {{.VarOld}} {{.VarNew}} > {{.VarOut}}
`))

var stepsTemplate = template.Must(template.New("steps").Parse(`cd {{.RunDir}}
if [ -f {{.VarOut}} ]; then
    . {{.VarOut}}
fi
{{.Coverage}}
set -o pipefail
set -ex
{{.Body}}
`))

var teardownTemplate = template.Must(template.New("teardown").Parse(`cd {{.RunDir}}
if [ -f {{.VarOut}} ]; then
    . {{.VarOut}}
fi
set -x
{{.Body}}
`))

// coverageTemplate wraps the target command (and sudo calls of it) with
// python coverage
var coverageTemplate = template.Must(template.New("coverage").Parse(`
__ITEST_ORIG_TARGET__=$(which {{.Target}})
shopt -s expand_aliases
coverage=$(which python-coverage 2>/dev/null || which coverage)
runsudo()
{
if [ $1 == {{.Target}} ]; then
shift
sudo COVERAGE_FILE={{.CoverageFile}} $coverage run -p {{.Opts}} $(which {{.Target}}) "$@" && set -o pipefail
else
sudo "$@" && set -o pipefail
fi
}
alias sudo=runsudo
alias {{.Target}}='COVERAGE_FILE={{.CoverageFile}} $coverage run -p {{.Opts}} '$__ITEST_ORIG_TARGET__
`))

type scriptVars struct {
	RunDir   string
	VarOld   string
	VarNew   string
	VarOut   string
	Coverage string
	Body     string
}

// Coverage configures wrapping the command under test with coverage
type Coverage struct {
	Target string
	RCFile string
	// File is where coverage data is collected
	File string
}

// Scripts are the paths of the generated bash scripts. Setup and Teardown
// are empty when the case has no such section.
type Scripts struct {
	Setup    string
	Steps    string
	Teardown string
}

// MakeScripts writes the setup, steps and teardown scripts of c into
// <runDir>/.meta
func MakeScripts(c *models.Case, runDir string, cov *Coverage) (*Scripts, error) {
	meta := filepath.Join(runDir, MetaDir)
	vars := scriptVars{
		RunDir: runDir,
		VarOld: filepath.Join(MetaDir, "var.old"),
		VarNew: filepath.Join(MetaDir, "var.new"),
		VarOut: filepath.Join(MetaDir, "var.out"),
	}

	scripts := &Scripts{}
	var err error

	if c.Setup != "" {
		vars.Body = c.Setup
		if scripts.Setup, err = writeScript(meta, "setup", setupTemplate, vars); err != nil {
			return nil, err
		}
	}

	vars.Body = c.Steps
	if cov != nil {
		if vars.Coverage, err = coverageCode(cov); err != nil {
			return nil, err
		}
	}
	if scripts.Steps, err = writeScript(meta, "steps", stepsTemplate, vars); err != nil {
		return nil, err
	}
	vars.Coverage = ""

	if c.Teardown != "" {
		vars.Body = c.Teardown
		if scripts.Teardown, err = writeScript(meta, "teardown", teardownTemplate, vars); err != nil {
			return nil, err
		}
	}

	return scripts, nil
}

func coverageCode(cov *Coverage) (string, error) {
	opts := ""
	if cov.RCFile != "" && utils.Exists(cov.RCFile) {
		opts = "--rcfile " + cov.RCFile
	}

	var buf bytes.Buffer
	err := coverageTemplate.Execute(&buf, map[string]string{
		"Target":       cov.Target,
		"CoverageFile": cov.File,
		"Opts":         opts,
	})
	return buf.String(), err
}

func writeScript(meta, name string, tmpl *template.Template, vars scriptVars) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", models.NewError(models.ErrRun, name, err)
	}

	path := filepath.Join(meta, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", models.NewError(models.ErrFileOp, path, err)
	}
	return path, nil
}

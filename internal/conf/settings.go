package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
)

// SettingsFile is the settings file name looked up in the env root
const SettingsFile = "settings.toml"

// EnvVar overrides the env root when no --env flag is given
const EnvVar = "ITEST_ENV_PATH"

// Settings holds the runtime configuration of a test environment
type Settings struct {
	// EnvRoot is the directory holding settings.toml and the cases dir.
	// Not read from the file.
	EnvRoot string `toml:"-"`

	CasesDir    string `toml:"cases_dir"`
	FixturesDir string `toml:"fixtures_dir"`
	Workspace   string `toml:"workspace"`

	SudoPasswd string `toml:"sudo_passwd"`

	// Timeouts in seconds
	RunCaseTimeout int `toml:"run_case_timeout"`
	HangingTimeout int `toml:"hanging_timeout"`

	EnableCoverage bool   `toml:"enable_coverage"`
	TargetName     string `toml:"target_name"`
	CoverageRCFile string `toml:"coverage_rcfile"`

	// Suites maps an alias to the selectors it stands for
	Suites map[string][]string `toml:"suites"`
}

// Default returns settings with every default filled in
func Default() *Settings {
	return &Settings{
		CasesDir:       "cases",
		FixturesDir:    "fixtures",
		Workspace:      filepath.Join(os.TempDir(), "itest-workspace"),
		RunCaseTimeout: 1800,
		HangingTimeout: 1800,
		CoverageRCFile: ".coveragerc",
		Suites:         map[string][]string{},
	}
}

// ResolveEnvRoot picks the env root from the flag value, then $ITEST_ENV_PATH,
// then the current directory.
func ResolveEnvRoot(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	return "."
}

// Load reads <envRoot>/settings.toml over the defaults. A missing settings
// file is not an error.
func Load(envRoot string) (*Settings, error) {
	abs, err := filepath.Abs(envRoot)
	if err != nil {
		return nil, models.NewError(models.ErrConfig, envRoot, err)
	}

	s := Default()
	s.EnvRoot = abs

	path := filepath.Join(abs, SettingsFile)
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("No %s in %s, using defaults", SettingsFile, abs)
			return s, s.Validate()
		}
		return nil, models.NewError(models.ErrConfig, path, err)
	}

	for _, key := range md.Undecoded() {
		logrus.Warnf("Unknown setting %q in %s", key.String(), path)
	}

	if s.Suites == nil {
		s.Suites = map[string][]string{}
	}

	return s, s.Validate()
}

// Validate checks value ranges
func (s *Settings) Validate() error {
	if s.CasesDir == "" {
		return models.NewError(models.ErrConfig, "cases_dir", fmt.Errorf("must not be empty"))
	}
	if s.RunCaseTimeout < 0 {
		return models.NewError(models.ErrConfig, "run_case_timeout", fmt.Errorf("negative value %d", s.RunCaseTimeout))
	}
	if s.HangingTimeout < 0 {
		return models.NewError(models.ErrConfig, "hanging_timeout", fmt.Errorf("negative value %d", s.HangingTimeout))
	}
	return nil
}

// CasesPath returns the absolute cases directory
func (s *Settings) CasesPath() string {
	return s.join(s.CasesDir)
}

// FixturesPath returns the absolute fixtures directory
func (s *Settings) FixturesPath() string {
	return s.join(s.FixturesDir)
}

// CoverageRCPath returns the absolute coverage rc file path
func (s *Settings) CoverageRCPath() string {
	return s.join(s.CoverageRCFile)
}

// CaseTimeout is RunCaseTimeout as a duration
func (s *Settings) CaseTimeout() time.Duration {
	return time.Duration(s.RunCaseTimeout) * time.Second
}

// OutputTimeout is HangingTimeout as a duration
func (s *Settings) OutputTimeout() time.Duration {
	return time.Duration(s.HangingTimeout) * time.Second
}

func (s *Settings) join(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.EnvRoot, p)
}

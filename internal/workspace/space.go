package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/utils"
)

// Space hands out fresh run directories for the cases of one session
type Space struct {
	// SessionID identifies the run in reports and directory names
	SessionID string
	Root      string

	// FixturesDir is searched for fixtures not found next to the case
	FixturesDir string
}

// New creates the session directory <root>/<timestamp>-<id>
func New(root, fixturesDir string) (*Space, error) {
	id := uuid.New().String()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), id[:8]))

	if err := utils.EnsureDir(dir); err != nil {
		return nil, models.NewError(models.ErrFileOp, dir, fmt.Errorf("failed to create workspace: %w", err))
	}

	logrus.Debugf("Workspace for session %s: %s", id, dir)
	return &Space{SessionID: id, Root: dir, FixturesDir: fixturesDir}, nil
}

// NewTestDir creates an empty run directory and copies fixtures into it.
// Fixture paths are relative to caseDir, falling back to the fixtures dir.
// A non-empty version groups run directories under <session>/<version>.
func (s *Space) NewTestDir(version, caseDir string, fixtures []string) (string, error) {
	parent := s.Root
	if version != "" {
		parent = filepath.Join(s.Root, version)
	}
	if err := utils.EnsureDir(parent); err != nil {
		return "", models.NewError(models.ErrFileOp, parent, err)
	}

	dir, err := os.MkdirTemp(parent, "case-")
	if err != nil {
		return "", models.NewError(models.ErrFileOp, parent, fmt.Errorf("failed to create run dir: %w", err))
	}

	for _, fixture := range fixtures {
		src, err := s.findFixture(caseDir, fixture)
		if err != nil {
			return "", err
		}

		dst := filepath.Join(dir, filepath.Base(filepath.Clean(fixture)))
		logrus.Debugf("Copying fixture %s to %s", src, dst)
		if err := utils.CopyTree(src, dst); err != nil {
			return "", models.NewError(models.ErrFileOp, src, fmt.Errorf("failed to copy fixture: %w", err))
		}
	}

	return dir, nil
}

func (s *Space) findFixture(caseDir, fixture string) (string, error) {
	candidates := []string{fixture}
	if !filepath.IsAbs(fixture) {
		candidates = []string{filepath.Join(caseDir, fixture)}
		if s.FixturesDir != "" {
			candidates = append(candidates, filepath.Join(s.FixturesDir, fixture))
		}
	}

	for _, c := range candidates {
		if utils.Exists(c) {
			return c, nil
		}
	}
	return "", models.NewError(models.ErrFileOp, fixture, fmt.Errorf("fixture not found in %v", candidates))
}

package spm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/expect"
	"github.com/tizen/itest/internal/models"
)

// Executor runs one command with root privileges and returns its exit
// status
type Executor func(ctx context.Context, command string) (int, error)

// SudoExecutor runs commands through sudo answering password prompts
func SudoExecutor(passwd string) Executor {
	return func(ctx context.Context, command string) (int, error) {
		return expect.Sudo(ctx, command, passwd)
	}
}

// Manager installs and removes packages on the test machine
type Manager struct {
	dist *Distribution
	run  Executor

	// DryRun prints commands to Out instead of running them
	DryRun bool
	Out    io.Writer
}

// NewManager creates a manager for a distribution
func NewManager(dist *Distribution, run Executor) *Manager {
	return &Manager{dist: dist, run: run}
}

// Install installs packages
func (m *Manager) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return fmt.Errorf("no packages given")
	}
	return m.exec(ctx, withArgs(m.dist.Install, packages))
}

// Remove removes packages
func (m *Manager) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return fmt.Errorf("no packages given")
	}
	return m.exec(ctx, withArgs(m.dist.Remove, packages))
}

// Refresh adds the configured repositories and refreshes metadata
func (m *Manager) Refresh(ctx context.Context) error {
	for _, repo := range m.dist.Repos {
		cmd := strings.NewReplacer("{name}", repo.Name, "{url}", repo.URL).Replace(m.dist.AddRepo)
		if err := m.exec(ctx, cmd); err != nil {
			return err
		}
	}
	if m.dist.Refresh == "" {
		return nil
	}
	return m.exec(ctx, m.dist.Refresh)
}

func (m *Manager) exec(ctx context.Context, command string) error {
	if m.DryRun {
		if m.Out != nil {
			fmt.Fprintln(m.Out, command)
		}
		return nil
	}

	logrus.Debugf("Running %s", command)
	status, err := m.run(ctx, command)
	if err != nil {
		return err
	}
	if status != 0 {
		return models.NewError(models.ErrRun, command, fmt.Errorf("exited with status %d", status))
	}
	return nil
}

func withArgs(command string, args []string) string {
	return command + " " + strings.Join(args, " ")
}

package spm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizen/itest/internal/models"
)

const sampleConfig = `
distributions:
  fedora:
    install: dnf install -y
    remove: dnf remove -y
    refresh: dnf makecache
  opensuse:
    install: zypper --non-interactive install
    remove: zypper --non-interactive remove
    refresh: zypper --non-interactive refresh
    add_repo: zypper addrepo -f {url} {name}
    repos:
      - name: tools
        url: http://download.example.com/tools/openSUSE_Leap_15.5/
`

type recorder struct {
	commands []string
	status   int
}

func (r *recorder) run(_ context.Context, command string) (int, error) {
	r.commands = append(r.commands, command)
	return r.status, nil
}

func TestLookupUsesFamilies(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig), "spm.yml")
	require.NoError(t, err)

	id, dist, err := cfg.Lookup([]string{"opensuse-leap", "suse", "opensuse"})
	require.NoError(t, err)
	assert.Equal(t, "opensuse", id)
	assert.Equal(t, "zypper --non-interactive refresh", dist.Refresh)

	_, _, err = cfg.Lookup([]string{"debian"})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrConfig))
}

func TestManagerCommands(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig), "spm.yml")
	require.NoError(t, err)
	_, dist, err := cfg.Lookup([]string{"opensuse"})
	require.NoError(t, err)

	rec := &recorder{}
	m := NewManager(dist, rec.run)

	require.NoError(t, m.Refresh(context.Background()))
	require.NoError(t, m.Install(context.Background(), []string{"gbs", "mic"}))
	require.NoError(t, m.Remove(context.Background(), []string{"gbs"}))

	assert.Equal(t, []string{
		"zypper addrepo -f http://download.example.com/tools/openSUSE_Leap_15.5/ tools",
		"zypper --non-interactive refresh",
		"zypper --non-interactive install gbs mic",
		"zypper --non-interactive remove gbs",
	}, rec.commands)

	assert.Error(t, m.Install(context.Background(), nil))
}

func TestManagerFailureStatus(t *testing.T) {
	rec := &recorder{status: 100}
	m := NewManager(&Distribution{Install: "dnf install -y", Remove: "dnf remove -y"}, rec.run)

	err := m.Install(context.Background(), []string{"gbs"})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrRun))
	assert.Contains(t, err.Error(), "exited with status 100")
}

func TestManagerDryRun(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	m := NewManager(&Distribution{Install: "dnf install -y", Remove: "dnf remove -y"}, rec.run)
	m.DryRun = true
	m.Out = &out

	require.NoError(t, m.Install(context.Background(), []string{"gbs"}))
	assert.Empty(t, rec.commands)
	assert.Equal(t, "dnf install -y gbs\n", out.String())
}

func TestParseConfigValidation(t *testing.T) {
	_, err := ParseConfig([]byte("distributions:\n  fedora:\n    install: dnf install\n"), "x")
	assert.Error(t, err)

	_, err = ParseConfig([]byte("distributions:\n  fedora:\n    install: a\n    remove: b\n    repos:\n      - name: r\n        url: u\n"), "x")
	assert.Error(t, err)

	_, err = ParseConfig([]byte("distributions: [\n"), "x")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spm.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Distributions, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

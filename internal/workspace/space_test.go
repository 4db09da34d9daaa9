package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizen/itest/internal/models"
)

func TestNewTestDirCopiesFixtures(t *testing.T) {
	root := t.TempDir()
	caseDir := t.TempDir()
	fixturesDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "local.spec"), []byte("spec"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(fixturesDir, "shared", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fixturesDir, "shared", "sub", "f"), []byte("f"), 0644))

	space, err := New(root, fixturesDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(space.Root, root))
	assert.Len(t, space.SessionID, 36)

	dir, err := space.NewTestDir("", caseDir, []string{"local.spec", "shared/"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "local.spec"))
	require.NoError(t, err)
	assert.Equal(t, "spec", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "shared", "sub", "f"))
	require.NoError(t, err)
	assert.Equal(t, "f", string(data))
}

func TestNewTestDirIsUniqueAndVersioned(t *testing.T) {
	space, err := New(t.TempDir(), "")
	require.NoError(t, err)

	a, err := space.NewTestDir("1.0", t.TempDir(), nil)
	require.NoError(t, err)
	b, err := space.NewTestDir("1.0", t.TempDir(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join(space.Root, "1.0"), filepath.Dir(a))
}

func TestNewTestDirMissingFixture(t *testing.T) {
	space, err := New(t.TempDir(), "")
	require.NoError(t, err)

	_, err = space.NewTestDir("", t.TempDir(), []string{"nope"})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrFileOp))
}

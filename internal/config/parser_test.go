package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

const minimalManifest = `
version: "1.0"
name: Test Course
capabilities:
  - id: pandas
    type: package
    package: pandas
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courseup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	t.Run("parses a minimal manifest and applies defaults", func(t *testing.T) {
		t.Parallel()
		manifest, err := ParseManifest(writeManifest(t, minimalManifest))
		require.NoError(t, err)

		assert.Equal(t, "Test Course", manifest.Name)
		assert.Equal(t, DefaultProbeTimeout, manifest.Settings.ProbeTimeout)
		require.NotNil(t, manifest.Settings.AcquireTimeout)
		assert.Equal(t, DefaultAcquireTimeout, *manifest.Settings.AcquireTimeout)
		assert.Equal(t, DefaultEnvironmentDir, manifest.Environment.Root)
		assert.Equal(t, DefaultMinPython, manifest.Environment.MinPython)
		assert.Equal(t, DefaultSettingsDir, manifest.Editor.SettingsDir)
	})

	t.Run("missing file is a parse error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseManifest(filepath.Join(t.TempDir(), "nope.yaml"))

		var parseErr *courseuperrors.ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("malformed yaml reports the line", func(t *testing.T) {
		t.Parallel()
		_, err := ParseManifest(writeManifest(t, "version: \"1.0\"\nname: [unclosed"))

		var parseErr *courseuperrors.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Greater(t, parseErr.Line, 0)
	})

	t.Run("explicit zero acquire timeout means unbounded", func(t *testing.T) {
		t.Parallel()
		manifest, err := ParseManifestBytes("inline", []byte(`
version: "1.0"
name: Test Course
settings:
  acquire_timeout: 0
capabilities:
  - id: pandas
    type: package
    package: pandas
`))
		require.NoError(t, err)
		require.NotNil(t, manifest.Settings.AcquireTimeout)
		assert.Equal(t, 0, *manifest.Settings.AcquireTimeout)
		assert.Zero(t, manifest.Settings.AcquireTimeoutDuration())
	})
}

func TestCapabilityDecoding(t *testing.T) {
	t.Parallel()

	manifest, err := ParseManifestBytes("inline", []byte(`
version: "1.0"
name: Test Course
capabilities:
  - id: python_ext
    type: extension
    extension: ms-python.python
  - id: sklearn
    type: package
    package: scikit-learn
    module: sklearn
  - id: punkt
    type: asset
    path: ~/nltk_data/tokenizers/punkt
    acquire: ["{python}", "-m", "nltk.downloader", "punkt"]
  - id: materials
    type: repo
    enabled: false
    url: https://example.edu/course.git
    destination: materials
    depth: 1
  - id: jupyter_cli
    type: command
    detect:
      method: output_contains
      probe: ["{python}", "-m", "pip", "list"]
      marker: jupyterlab
    acquire: ["{python}", "-m", "pip", "install", "jupyterlab"]
`))
	require.NoError(t, err)
	require.Len(t, manifest.Capabilities, 5)

	ext := manifest.Capabilities[0]
	require.NotNil(t, ext.Extension)
	assert.Equal(t, "ms-python.python", ext.Extension.Extension)
	assert.True(t, ext.Enabled, "enabled defaults to true")
	assert.Nil(t, ext.Package)

	pkg := manifest.Capabilities[1]
	require.NotNil(t, pkg.Package)
	assert.Equal(t, "scikit-learn", pkg.Package.Package)
	assert.Equal(t, "sklearn", pkg.Package.Module)

	asset := manifest.Capabilities[2]
	require.NotNil(t, asset.Asset)
	assert.Equal(t, "~/nltk_data/tokenizers/punkt", asset.Asset.Path)
	assert.Equal(t, []string{"{python}", "-m", "nltk.downloader", "punkt"}, asset.Asset.Acquire)

	repo := manifest.Capabilities[3]
	require.NotNil(t, repo.Repo)
	assert.False(t, repo.Enabled)
	assert.Equal(t, 1, repo.Repo.Depth)

	cmd := manifest.Capabilities[4]
	require.NotNil(t, cmd.Command)
	assert.Equal(t, DetectOutputContains, cmd.Command.Detect.Method)
	assert.Equal(t, "jupyterlab", cmd.Command.Detect.Marker)
}

func TestCapabilityDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Pandas", Capability{ID: "pandas", Name: "Pandas"}.DisplayName())
	assert.Equal(t, "pandas", Capability{ID: "pandas"}.DisplayName())
}

func TestCapabilityMap(t *testing.T) {
	t.Parallel()

	capabilities := []Capability{{ID: "a"}, {ID: "b"}}
	m := CapabilityMap(capabilities)
	require.Len(t, m, 2)
	assert.Equal(t, "a", m["a"].ID)
}

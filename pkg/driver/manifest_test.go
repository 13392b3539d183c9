package driver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cmm/interpreter-go/pkg/runtime"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
name: calculator
version: 1.2.0
main: src/main.cmm.yml
args: [3, true, "x"]
max_call_depth: 200
strict: true
dependencies:
  mathlib:
    path: ../mathlib
    version: ">=1.0.0 <2.0.0"
  remote:
    git: https://example.com/remote.git
    tag: v1.0.0
  shorthand: ../short
`)
	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "calculator", manifest.Name)
	require.Equal(t, "1.2.0", manifest.Version)
	require.Equal(t, filepath.Join(dir, "src", "main.cmm.yml"), manifest.MainPath())
	require.Equal(t, []runtime.Value{
		runtime.IntegerValue{Val: 3},
		runtime.BoolValue{Val: true},
		runtime.StringValue{Val: "x"},
	}, manifest.Args)
	require.NotNil(t, manifest.MaxCallDepth)
	require.Equal(t, 200, *manifest.MaxCallDepth)
	require.True(t, manifest.Strict)
	require.Equal(t, []string{"mathlib", "remote", "shorthand"}, manifest.DependencyNames())
	require.Equal(t, "../short", manifest.Dependencies["shorthand"].Path)
	require.Equal(t, "v1.0.0", manifest.Dependencies["remote"].Tag)
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `name: tiny`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, DefaultMain), manifest.MainPath())
	require.Nil(t, manifest.MaxCallDepth)
	require.False(t, manifest.Strict)
	require.Empty(t, manifest.Dependencies)
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
name: app
targets: {}
`)
	_, err := LoadManifest(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "targets")
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
version: not-a-version
max_call_depth: -1
dependencies:
  both:
    path: ../x
    git: https://example.com/x.git
  unpinned:
    git: https://example.com/y.git
  pinnedTwice:
    git: https://example.com/z.git
    tag: v1
    branch: main
  badRange:
    path: ../r
    version: "not a range"
`)
	_, err := LoadManifest(path)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Issues, "name must be provided")
	require.Contains(t, validation.Issues, `invalid version "not-a-version"`)
	require.Contains(t, validation.Issues, "max_call_depth must not be negative")
	require.Contains(t, validation.Issues, "dependencies.both: path dependencies cannot specify a git source")
	require.Contains(t, validation.Issues, "dependencies.unpinned: git dependencies require rev, tag, or branch")
	require.Contains(t, validation.Issues, "dependencies.pinnedTwice: only one of rev, tag, or branch may be given")
	require.Contains(t, validation.Issues, `dependencies.badRange: invalid version constraint "not a range"`)
}

func TestLoadManifestRejectsCompoundArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
name: app
args: [[1, 2]]
`)
	_, err := LoadManifest(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "args[0]")
}

func TestDependencySatisfies(t *testing.T) {
	spec := &DependencySpec{Path: "../x", Version: ">=1.0.0 <2.0.0"}
	ok, err := spec.Satisfies("1.4.2")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = spec.Satisfies("2.0.0")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = spec.Satisfies("")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = spec.Satisfies("one")
	require.Error(t, err)

	unconstrained := &DependencySpec{Path: "../x"}
	ok, err = unconstrained.Satisfies("")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	_, ok := FindManifest(dir)
	require.False(t, ok)

	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `name: app`)
	found, ok := FindManifest(dir)
	require.True(t, ok)
	require.Equal(t, path, found)

	found, ok = FindManifest(path)
	require.True(t, ok)
	require.Equal(t, path, found)

	doc := filepath.Join(dir, "main.cmm.yml")
	writeFile(t, doc, `declarations: []`)
	_, ok = FindManifest(doc)
	require.False(t, ok)
}

package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lyraproj/semver/semver"
	"gopkg.in/yaml.v3"

	"cmm/interpreter-go/pkg/runtime"
)

// ManifestName is the file a package directory is recognised by.
const ManifestName = "package.yml"

// DefaultMain is the AST document evaluated when a manifest names none.
const DefaultMain = "main.cmm.yml"

// Manifest represents the parsed contents of package.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	Main         string
	Args         []runtime.Value
	MaxCallDepth *int
	Strict       bool
	Dependencies map[string]*DependencySpec
}

// DependencySpec describes a dependency descriptor in the manifest.
type DependencySpec struct {
	Version string
	Git     string
	Rev     string
	Tag     string
	Branch  string
	Path    string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Dir returns the directory relative paths in the manifest resolve against.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// MainPath returns the absolute path of the entry AST document.
func (m *Manifest) MainPath() string {
	main := m.Main
	if main == "" {
		main = DefaultMain
	}
	if filepath.IsAbs(main) {
		return main
	}
	return filepath.Join(m.Dir(), main)
}

// DependencyNames lists dependencies in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindManifest accepts either a manifest path or a directory containing one.
func FindManifest(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		candidate := filepath.Join(path, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		return "", false
	}
	if filepath.Base(path) == ManifestName {
		return path, true
	}
	return "", false
}

// LoadManifest parses package.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Version != "" {
		if _, err := semver.ParseVersion(m.Version); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("invalid version %q", m.Version))
		}
	}
	if m.MaxCallDepth != nil && *m.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "max_call_depth must not be negative")
	}
	for _, depName := range m.DependencyNames() {
		dep := m.Dependencies[depName]
		for _, issue := range dep.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", depName, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d.Path != "" && d.Git != "" {
		errs = append(errs, "path dependencies cannot specify a git source")
	}
	if d.Path == "" && d.Git == "" {
		errs = append(errs, "must specify path or git")
	}
	pins := 0
	for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
		if pin != "" {
			pins++
		}
	}
	if d.Git != "" && pins == 0 {
		errs = append(errs, "git dependencies require rev, tag, or branch")
	}
	if pins > 1 {
		errs = append(errs, "only one of rev, tag, or branch may be given")
	}
	if d.Path != "" && pins > 0 {
		errs = append(errs, "rev, tag, and branch apply only to git dependencies")
	}
	if d.Version != "" {
		if _, err := semver.ParseVersionRange(d.Version); err != nil {
			errs = append(errs, fmt.Sprintf("invalid version constraint %q", d.Version))
		}
	}
	return errs
}

// Satisfies reports whether version falls inside the dependency's declared
// range. An empty range accepts anything; a constrained range rejects a
// package without a version.
func (d *DependencySpec) Satisfies(version string) (bool, error) {
	if d.Version == "" {
		return true, nil
	}
	rng, err := semver.ParseVersionRange(d.Version)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", d.Version, err)
	}
	if version == "" {
		return false, nil
	}
	v, err := semver.ParseVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return rng.Includes(v), nil
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Main         string        `yaml:"main"`
	Args         argList       `yaml:"args"`
	MaxCallDepth *int          `yaml:"max_call_depth"`
	Strict       bool          `yaml:"strict"`
	Dependencies dependencyMap `yaml:"dependencies"`
}

func (mf manifestFile) toManifest(path string) *Manifest {
	return &Manifest{
		Path:         path,
		Name:         strings.TrimSpace(mf.Name),
		Version:      strings.TrimSpace(mf.Version),
		Main:         strings.TrimSpace(mf.Main),
		Args:         mf.Args,
		MaxCallDepth: mf.MaxCallDepth,
		Strict:       mf.Strict,
		Dependencies: cloneDependencyMap(mf.Dependencies),
	}
}

type dependencyMap map[string]*DependencySpec

func cloneDependencyMap(src dependencyMap) map[string]*DependencySpec {
	out := make(map[string]*DependencySpec, len(src))
	for name, dep := range src {
		if dep == nil {
			continue
		}
		copy := *dep
		out[name] = &copy
	}
	return out
}

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = &dep
	}
	*dm = result
	return nil
}

func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		// Shorthand: a bare string is a path dependency.
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			return fmt.Errorf("expected a path or a mapping")
		}
		*d = DependencySpec{Path: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Version string `yaml:"version"`
			Git     string `yaml:"git"`
			Rev     string `yaml:"rev"`
			Tag     string `yaml:"tag"`
			Branch  string `yaml:"branch"`
			Path    string `yaml:"path"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Version: strings.TrimSpace(raw.Version),
			Git:     strings.TrimSpace(raw.Git),
			Rev:     strings.TrimSpace(raw.Rev),
			Tag:     strings.TrimSpace(raw.Tag),
			Branch:  strings.TrimSpace(raw.Branch),
			Path:    strings.TrimSpace(raw.Path),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

type argList []runtime.Value

func (l *argList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*l = nil
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("manifest: args must be a sequence")
	}
	out := make(argList, 0, len(value.Content))
	for _, item := range value.Content {
		val, err := scalarValue(item)
		if err != nil {
			return fmt.Errorf("manifest: args[%d]: %w", len(out), err)
		}
		out = append(out, val)
	}
	*l = out
	return nil
}

func scalarValue(n *yaml.Node) (runtime.Value, error) {
	if n.Kind == yaml.AliasNode {
		return scalarValue(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar, found %s", n.ShortTag())
	}
	switch n.ShortTag() {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return runtime.IntegerValue{Val: i}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: b}, nil
	case "!!str":
		return runtime.StringValue{Val: n.Value}, nil
	default:
		return nil, fmt.Errorf("unsupported value %q (%s)", n.Value, n.ShortTag())
	}
}

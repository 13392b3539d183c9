package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

// Fetcher materialises a non-path dependency on disk and returns the
// directory holding its package.yml plus a description of where it came from.
type Fetcher interface {
	Fetch(name string, spec *DependencySpec) (dir string, source string, err error)
}

// Package is one resolved package: its manifest and decoded entry document.
type Package struct {
	Name     string
	Version  string
	Dir      string
	Source   string
	Manifest *Manifest
	AST      *ast.Program
}

// Program is an entry package together with everything it depends on,
// flattened into one declaration list.
type Program struct {
	Name         string
	Entry        *Package
	Packages     []*Package
	Declarations []ast.Declaration
	Args         []runtime.Value
	MaxCallDepth *int
	Strict       bool
}

// Source returns the path of the entry AST document.
func (p *Program) Source() string {
	if p.Entry == nil || p.Entry.AST == nil {
		return ""
	}
	return p.Entry.AST.Source
}

// ErrDependencyCycle reports packages that depend on each other.
var ErrDependencyCycle = errors.New("dependency cycle")

// Load accepts an AST document, a package.yml, or a directory containing one.
func Load(path string, fetcher Fetcher) (*Program, error) {
	if manifestPath, ok := FindManifest(path); ok {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		return Resolve(manifest, fetcher)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("driver: %s has no %s", path, ManifestName)
	}
	doc, err := ast.LoadProgramFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entry := &Package{
		Name:   name,
		Dir:    filepath.Dir(path),
		Source: "file:" + path,
		AST:    doc,
	}
	return &Program{
		Name:         name,
		Entry:        entry,
		Packages:     []*Package{entry},
		Declarations: doc.Declarations,
	}, nil
}

// Resolve loads the manifest's entry document and all of its dependencies.
// Dependencies precede their dependents in both Packages and Declarations,
// and a package reached along several paths is loaded once.
func Resolve(manifest *Manifest, fetcher Fetcher) (*Program, error) {
	r := &resolver{
		fetcher: fetcher,
		loaded:  make(map[string]*Package),
		active:  make(map[string]bool),
	}
	entry, err := r.visit(manifest, "root:"+manifest.Dir(), []string{manifest.Name})
	if err != nil {
		return nil, err
	}
	program := &Program{
		Name:         manifest.Name,
		Entry:        entry,
		Packages:     r.order,
		Args:         manifest.Args,
		MaxCallDepth: manifest.MaxCallDepth,
		Strict:       manifest.Strict,
	}
	for _, pkg := range r.order {
		program.Declarations = append(program.Declarations, pkg.AST.Declarations...)
	}
	return program, nil
}

type resolver struct {
	fetcher Fetcher
	loaded  map[string]*Package
	active  map[string]bool
	order   []*Package
}

func (r *resolver) visit(manifest *Manifest, source string, chain []string) (*Package, error) {
	r.active[manifest.Name] = true
	defer delete(r.active, manifest.Name)

	for _, depName := range manifest.DependencyNames() {
		spec := manifest.Dependencies[depName]
		path := append(append([]string{}, chain...), depName)
		if r.active[depName] {
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(path, " -> "))
		}
		dir, depSource, err := r.locate(manifest, depName, spec)
		if err != nil {
			return nil, err
		}
		if existing, ok := r.loaded[depName]; ok {
			if !samePath(existing.Dir, dir) {
				return nil, fmt.Errorf("driver: dependency %q resolves to both %s and %s", depName, existing.Dir, dir)
			}
			if err := checkVersion(depName, spec, existing.Version); err != nil {
				return nil, err
			}
			continue
		}
		depManifest, err := LoadManifest(filepath.Join(dir, ManifestName))
		if err != nil {
			return nil, fmt.Errorf("driver: dependency %q: %w", depName, err)
		}
		if depManifest.Name != depName {
			return nil, fmt.Errorf("driver: dependency %q resolves to package %q", depName, depManifest.Name)
		}
		if err := checkVersion(depName, spec, depManifest.Version); err != nil {
			return nil, err
		}
		if _, err := r.visit(depManifest, depSource, path); err != nil {
			return nil, err
		}
	}

	doc, err := ast.LoadProgramFile(manifest.MainPath())
	if err != nil {
		return nil, fmt.Errorf("driver: package %q: %w", manifest.Name, err)
	}
	pkg := &Package{
		Name:     manifest.Name,
		Version:  manifest.Version,
		Dir:      manifest.Dir(),
		Source:   source,
		Manifest: manifest,
		AST:      doc,
	}
	r.loaded[manifest.Name] = pkg
	r.order = append(r.order, pkg)
	return pkg, nil
}

func (r *resolver) locate(parent *Manifest, name string, spec *DependencySpec) (string, string, error) {
	if spec.Path != "" {
		dir := spec.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(parent.Dir(), dir)
		}
		return filepath.Clean(dir), "path:" + spec.Path, nil
	}
	if r.fetcher == nil {
		return "", "", fmt.Errorf("driver: dependency %q needs a fetcher for %s", name, spec.Git)
	}
	dir, source, err := r.fetcher.Fetch(name, spec)
	if err != nil {
		return "", "", fmt.Errorf("driver: fetch %q: %w", name, err)
	}
	return dir, source, nil
}

func checkVersion(name string, spec *DependencySpec, version string) error {
	ok, err := spec.Satisfies(version)
	if err != nil {
		return fmt.Errorf("driver: dependency %q: %w", name, err)
	}
	if !ok {
		if version == "" {
			return fmt.Errorf("driver: dependency %q requires %s but the package declares no version", name, spec.Version)
		}
		return fmt.Errorf("driver: dependency %q requires %s, found %s", name, spec.Version, version)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

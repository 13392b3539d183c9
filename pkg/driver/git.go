package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// HomeEnv overrides the cache root used for fetched dependencies.
const HomeEnv = "CMM_HOME"

// DefaultCacheDir returns $CMM_HOME, falling back to ~/.cmm.
func DefaultCacheDir() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("driver: locate home directory: %w", err)
	}
	return filepath.Join(userHome, ".cmm"), nil
}

// GitFetcher clones git dependencies into <cache>/pkg/src/<name>/<version>.
type GitFetcher struct {
	cacheDir string
}

func NewGitFetcher(cacheDir string) *GitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &GitFetcher{cacheDir: cacheDir}
}

// Fetch returns the checkout directory for spec, cloning it on first use.
func (g *GitFetcher) Fetch(name string, spec *DependencySpec) (string, string, error) {
	if g == nil {
		return "", "", errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return "", "", fmt.Errorf("dependency %q: git URL required", name)
	}
	revision, pin, err := spec.gitRevision()
	if err != nil {
		return "", "", fmt.Errorf("dependency %q: %w", name, err)
	}

	pkgDir := g.packageDir(name)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", "", err
	}
	// A pinned rev never moves, so an existing checkout is reused as is.
	if spec.Rev != "" {
		dir := filepath.Join(pkgDir, sanitizePathSegment(spec.Rev))
		if _, err := os.Stat(dir); err == nil {
			return dir, fmt.Sprintf("git+%s@%s", url, spec.Rev), nil
		}
	}

	commit, dir, err := g.checkout(pkgDir, url, revision, pin)
	if err != nil {
		return "", "", err
	}
	return dir, fmt.Sprintf("git+%s@%s", url, commit), nil
}

func (g *GitFetcher) packageDir(name string) string {
	return filepath.Join(g.cacheDir, "pkg", "src", sanitizePathSegment(name))
}

// checkout clones url into a scratch directory under pkgDir, checks out
// revision and moves the tree to its pinned name. It returns the resolved
// commit and the final directory.
func (g *GitFetcher) checkout(pkgDir, url string, revision plumbing.Revision, pin string) (commit, dir string, err error) {
	scratch, err := os.MkdirTemp(pkgDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	// A no-op once the tree has been renamed into place.
	defer os.RemoveAll(scratch)
	// PlainClone wants to create the directory itself.
	if err := os.Remove(scratch); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(scratch, false, &git.CloneOptions{URL: url})
	if err != nil {
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit = hash.String()

	target := filepath.Join(pkgDir, sanitizePathSegment(checkoutName(pin, commit)))
	if _, statErr := os.Stat(target); statErr == nil {
		return commit, target, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(scratch, target); err != nil {
		return "", "", err
	}
	return commit, target, nil
}

// checkoutName names a checkout by what the manifest pinned and the commit it
// resolved to, e.g. "v1.0@3f2a...". A rev pin is the commit itself.
func checkoutName(pin, commit string) string {
	if pin == "" || pin == commit {
		return commit
	}
	return pin + "@" + commit
}

// gitRevision maps the dependency's pin to a revision go-git can resolve,
// together with the pin text used to name the checkout.
func (d *DependencySpec) gitRevision() (plumbing.Revision, string, error) {
	switch {
	case d.Rev != "":
		return plumbing.Revision(d.Rev), d.Rev, nil
	case d.Tag != "":
		return plumbing.Revision(plumbing.NewTagReferenceName(d.Tag)), d.Tag, nil
	case d.Branch != "":
		return plumbing.Revision(plumbing.NewBranchReferenceName(d.Branch)), d.Branch, nil
	}
	return "", "", errors.New("git dependencies require rev, tag, or branch")
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "head"
	}
	return b.String()
}

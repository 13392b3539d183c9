package driver

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644))
}

// writePackage writes a manifest plus an entry document declaring fnName,
// which returns value.
func writePackage(t *testing.T, dir, manifest, fnName string, value int) {
	t.Helper()
	writeFile(t, filepath.Join(dir, ManifestName), manifest)
	writeFile(t, filepath.Join(dir, DefaultMain), `
declarations:
  - type: FunctionDeclaration
    name: `+fnName+`
    returnType: Integer
    body:
      - {type: AssignValue, target: return, value: `+strconv.Itoa(value)+`}
`)
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	})
	require.NoError(t, err, "stage files")
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "cmm",
			Email: "cmm@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

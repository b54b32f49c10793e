// pkg/testutil/environment.go
// DEPENDENCIES: afero
// PURPOSE: Provide isolated project roots for tests

package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment is a project root plus the filesystem it lives on.
type TestEnvironment struct {
	Root    string
	TempDir string
	FS      afero.Fs
	Type    EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}

	switch envType {
	case EnvMemoryOnly:
		env.FS = afero.NewMemMapFs()
		env.Root = "/project"
		env.TempDir = "/tmp"
		if err := env.FS.MkdirAll(env.Root, 0755); err != nil {
			t.Fatalf("Failed to create project root: %v", err)
		}
	case EnvIsolated:
		base := t.TempDir()
		env.FS = afero.NewOsFs()
		env.Root = filepath.Join(base, "project")
		env.TempDir = filepath.Join(base, "tmp")
		for _, dir := range []string{env.Root, env.TempDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create %s: %v", dir, err)
			}
		}
	}

	return env
}

// Path joins rel onto the project root.
func (e *TestEnvironment) Path(rel string) string {
	return filepath.Join(e.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to a path relative to the project root.
func (e *TestEnvironment) WriteFile(rel, content string) string {
	e.t.Helper()
	path := e.Path(rel)
	if err := e.FS.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatalf("Failed to create parent of %s: %v", rel, err)
	}
	if err := afero.WriteFile(e.FS, path, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// ReadFile returns the content of a path relative to the project root.
func (e *TestEnvironment) ReadFile(rel string) string {
	e.t.Helper()
	data, err := afero.ReadFile(e.FS, e.Path(rel))
	if err != nil {
		e.t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// Exists reports whether a path relative to the project root exists.
func (e *TestEnvironment) Exists(rel string) bool {
	_, err := e.FS.Stat(e.Path(rel))
	return err == nil
}

// ListFiles returns every regular file under dir, relative to dir, sorted.
func ListFiles(fs afero.Fs, dir string) []string {
	var files []string
	_ = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files
}

// FilesWithSuffix filters ListFiles output by suffix.
func FilesWithSuffix(files []string, suffix string) []string {
	var out []string
	for _, f := range files {
		if strings.HasSuffix(f, suffix) {
			out = append(out, f)
		}
	}
	return out
}

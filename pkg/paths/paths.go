package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot pins the project root.
	EnvRoot = "ALIGNTRUE_ROOT"

	// EnvStateDir overrides the XDG state directory for aligntrue.
	EnvStateDir = "ALIGNTRUE_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

const (
	// AppDirName names aligntrue's per-user directories.
	AppDirName = "aligntrue"

	// ProjectDirName is the per-project state directory.
	ProjectDirName = ".aligntrue"

	// LogFileName is the name of the log file
	LogFileName = "aligntrue.log"
)

// Paths holds the resolved project root and per-user directories.
type Paths struct {
	root         string
	stateDir     string
	usedFallback bool
}

// New resolves paths for root. An empty root is discovered.
func New(root string) (*Paths, error) {
	p := &Paths{}

	if root == "" {
		found, usedFallback, err := findProjectRoot()
		if err != nil {
			return nil, err
		}
		p.root = found
		p.usedFallback = usedFallback
	} else {
		p.root = ExpandHome(root)
	}

	absRoot, err := filepath.Abs(p.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileRead, "failed to get absolute path for project root")
	}
	p.root = absRoot

	if stateDir := os.Getenv(EnvStateDir); stateDir != "" {
		p.stateDir = ExpandHome(stateDir)
	} else {
		p.stateDir = filepath.Join(xdg.StateHome, AppDirName)
	}

	return p, nil
}

func findProjectRoot() (string, bool, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		return ExpandHome(root), false, nil
	}

	if gitRoot, err := findGitRoot(); err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileRead, "failed to get current directory")
	}
	return cwd, true, nil
}

// findGitRoot asks git for the top level of the current repository.
func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}
	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}
	return gitRoot, nil
}

// ExpandHome expands a leading ~ to the home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	// ~user is not expanded
	return path
}

// Root returns the absolute project root.
func (p *Paths) Root() string {
	return p.root
}

// UsedFallback reports whether the working directory was used because no
// root was configured and no git repository was found.
func (p *Paths) UsedFallback() bool {
	return p.usedFallback
}

// ProjectDir returns <root>/.aligntrue.
func (p *Paths) ProjectDir() string {
	return filepath.Join(p.root, ProjectDirName)
}

// Resolve joins a project-relative path onto the root. Absolute paths are
// returned cleaned.
func (p *Paths) Resolve(rel string) string {
	rel = ExpandHome(rel)
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// Rel returns path relative to the root for display, or path unchanged
// when it lies outside the project.
func (p *Paths) Rel(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// IsInProject reports whether path lies under the project root.
func (p *Paths) IsInProject(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return p.Rel(abs) != abs || abs == p.root
}

// StateDir returns the per-user state directory.
func (p *Paths) StateDir() string {
	return p.stateDir
}

// LogFilePath returns the log file location.
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

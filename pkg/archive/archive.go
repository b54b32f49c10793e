// Package archive decides where superseded edit-source files are preserved.
//
// Layout: <archive dir>/<timestamp>/<path relative to project root>. One
// Destination shares a single timestamp so every file backed up by one
// merge lands in the same snapshot directory.
package archive

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// DirName is the archive directory name under .aligntrue.
const DirName = "overwritten-rules"

// StampLayout names snapshot directories. It sorts lexically and contains
// no characters that are invalid in Windows paths.
const StampLayout = "2006-01-02T15-04-05Z"

// externalDir holds files that live outside the project root.
const externalDir = "_external"

// Destination maps a file about to be superseded to the path its backup
// copy should be written to.
type Destination func(file string) (string, error)

// Stamp formats t for use as a snapshot directory name.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// OverwrittenRules returns the default Destination rooted at archiveDir.
func OverwrittenRules(archiveDir, root string, now time.Time) Destination {
	snapshot := filepath.Join(archiveDir, Stamp(now))
	return func(file string) (string, error) {
		if file == "" {
			return "", errors.New(errors.ErrInvalidInput, "cannot archive an empty path")
		}
		abs := file
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, file)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.Join(snapshot, externalDir, filepath.Base(abs)), nil
		}
		return filepath.Join(snapshot, rel), nil
	}
}

// Snapshots lists the snapshot directories under archiveDir, oldest first.
// A missing archive directory has no snapshots.
func Snapshots(fs afero.Fs, archiveDir string) ([]string, error) {
	infos, err := afero.ReadDir(fs, archiveDir)
	if err != nil {
		if exists, _ := afero.Exists(fs, archiveDir); !exists {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileRead, "failed to list %s", archiveDir)
	}
	var stamps []string
	for _, info := range infos {
		if info.IsDir() {
			stamps = append(stamps, info.Name())
		}
	}
	sort.Strings(stamps)
	return stamps, nil
}

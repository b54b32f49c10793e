package filesystem

import (
	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// DirPerm is the mode used for directories created by aligntrue.
const DirPerm = 0755

// EnsureDir makes sure dir exists as a directory. It is idempotent and safe
// to call from concurrent goroutines targeting overlapping trees: a failed
// creation is re-checked with a stat, and a directory that appeared in the
// meantime counts as success.
func EnsureDir(fs afero.Fs, dir string) error {
	mkErr := fs.MkdirAll(dir, DirPerm)

	info, statErr := fs.Stat(dir)
	if statErr != nil {
		if mkErr != nil {
			return errors.Wrapf(mkErr, errors.ErrDirCreate, "failed to create directory %s", dir).
				WithDetail("path", dir)
		}
		return errors.Wrapf(statErr, errors.ErrDirCreate, "failed to create directory %s", dir).
			WithDetail("path", dir)
	}

	if !info.IsDir() {
		return errors.Newf(errors.ErrNotADirectory, "path exists but is not a directory: %s", dir).
			WithDetail("path", dir)
	}

	return nil
}

package filesystem

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// FilePerm is the default mode for files written by aligntrue.
const FilePerm = 0644

// IsCrossDevice reports whether err is the EXDEV failure returned when a
// rename crosses filesystem boundaries.
func IsCrossDevice(err error) bool {
	return stderrors.Is(err, syscall.EXDEV)
}

// MoveFile renames src onto dst. If the rename fails because src and dst
// live on different devices it falls back to copy-then-delete, which is
// not atomic: dst is truncated and rewritten in place, so a concurrent
// reader can see it partly written. It is complete once MoveFile returns
// nil. Stage src on dst's device to avoid the fallback.
func MoveFile(fs afero.Fs, src, dst string) error {
	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return err
	}

	if err := CopyFile(fs, src, dst); err != nil {
		return fmt.Errorf("cross-device copy of %s: %w", src, err)
	}
	if err := fs.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}
	return nil
}

// CopyFile copies src to dst, creating or truncating dst. The mode of src
// is carried over.
func CopyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	mode := os.FileMode(FilePerm)
	if info, err := in.Stat(); err == nil {
		mode = info.Mode().Perm()
	}

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// WriteFile writes data to path and syncs it before closing.
func WriteFile(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Exists reports whether path exists. Errors other than "not exist" are
// returned to the caller.
func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

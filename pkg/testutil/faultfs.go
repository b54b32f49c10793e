package testutil

import (
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/afero"
)

// FaultFS wraps an afero.Fs and fails selected operations. Hooks receive
// the path(s) involved and return a non-nil error to inject a failure.
type FaultFS struct {
	afero.Fs

	mu        sync.Mutex
	renameErr func(oldname, newname string) error
	openErr   func(name string, flag int) error
	renames   int
}

// NewFaultFS wraps base.
func NewFaultFS(base afero.Fs) *FaultFS {
	return &FaultFS{Fs: base}
}

// FailRename installs a rename hook.
func (f *FaultFS) FailRename(hook func(oldname, newname string) error) *FaultFS {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameErr = hook
	return f
}

// FailOpen installs a hook consulted by Create and OpenFile.
func (f *FaultFS) FailOpen(hook func(name string, flag int) error) *FaultFS {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = hook
	return f
}

// CrossDevice makes every rename fail with EXDEV.
func (f *FaultFS) CrossDevice() *FaultFS {
	return f.FailRename(func(oldname, newname string) error {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
	})
}

// FailReadsOf fails every open-for-read of exactly path.
func (f *FaultFS) FailReadsOf(path string) *FaultFS {
	return f.FailOpen(func(name string, flag int) error {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 || name != path {
			return nil
		}
		return &os.PathError{Op: "open", Path: name, Err: syscall.EACCES}
	})
}

// FailWritesUnder fails every open-for-write of a path containing fragment.
func (f *FaultFS) FailWritesUnder(fragment string) *FaultFS {
	return f.FailOpen(func(name string, flag int) error {
		if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
			return nil
		}
		if strings.Contains(name, fragment) {
			return &os.PathError{Op: "open", Path: name, Err: syscall.EIO}
		}
		return nil
	})
}

// Renames returns how many renames reached the wrapped filesystem.
func (f *FaultFS) Renames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renames
}

func (f *FaultFS) Rename(oldname, newname string) error {
	f.mu.Lock()
	hook := f.renameErr
	f.mu.Unlock()
	if hook != nil {
		if err := hook(oldname, newname); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.renames++
	f.mu.Unlock()
	return f.Fs.Rename(oldname, newname)
}

func (f *FaultFS) Open(name string) (afero.File, error) {
	if err := f.checkOpen(name, os.O_RDONLY); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FaultFS) Create(name string) (afero.File, error) {
	if err := f.checkOpen(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC); err != nil {
		return nil, err
	}
	return f.Fs.Create(name)
}

func (f *FaultFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.checkOpen(name, flag); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FaultFS) checkOpen(name string, flag int) error {
	f.mu.Lock()
	hook := f.openErr
	f.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(name, flag)
}

package billy

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/textio/fs/core"
)

// FS adapts a billy.Filesystem to core.FS.
type FS struct {
	bfs  billy.Filesystem
	kind core.FSType
}

// NewLocal creates a disk-backed filesystem rooted at root.
// Relative names passed to FS methods resolve against root.
func NewLocal(root string) *FS {
	return &FS{bfs: osfs.New(root), kind: core.FSTypeLocal}
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() *FS {
	return &FS{bfs: memfs.New(), kind: core.FSTypeMemory}
}

// Wrap adapts an existing billy.Filesystem, for example a chroot of a
// go-git worktree.
func Wrap(bfs billy.Filesystem, kind core.FSType) *FS {
	return &FS{bfs: bfs, kind: kind}
}

// Unwrap returns the underlying billy.Filesystem.
func (f *FS) Unwrap() billy.Filesystem {
	return f.bfs
}

// Type reports whether the filesystem is local or in-memory.
func (f *FS) Type() core.FSType {
	return f.kind
}

// normalize converts paths to use forward slashes consistently.
func normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// Open opens the named file for reading.
func (f *FS) Open(name string) (fs.File, error) {
	name = normalize(name)
	bf, err := f.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

// Stat returns file metadata for the named file.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	return f.bfs.Stat(normalize(name))
}

// Exists reports whether the named file or directory exists.
func (f *FS) Exists(name string) (bool, error) {
	_, err := f.bfs.Stat(normalize(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Create creates or truncates the named file for writing.
func (f *FS) Create(name string) (core.File, error) {
	name = normalize(name)
	bf, err := f.bfs.Create(name)
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

// OpenFile opens a file with the specified flags and permissions.
//
// With os.O_APPEND the returned file is positioned at the end, so callers
// that ask for the offset see where their writes will land. The OS leaves
// the offset at 0 until the first write otherwise.
func (f *FS) OpenFile(name string, flag int, perm fs.FileMode) (core.File, error) {
	name = normalize(name)
	bf, err := f.bfs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&os.O_APPEND != 0 {
		if _, err := bf.Seek(0, io.SeekEnd); err != nil {
			_ = bf.Close()
			return nil, &fs.PathError{Op: "seek", Path: name, Err: err}
		}
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (f *FS) MkdirAll(path string, perm fs.FileMode) error {
	return f.bfs.MkdirAll(normalize(path), perm)
}

// Remove removes the named file or empty directory.
func (f *FS) Remove(name string) error {
	return f.bfs.Remove(normalize(name))
}

// Compile-time interface checks.
var _ core.FS = (*FS)(nil)

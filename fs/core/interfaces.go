package core

import (
	"io"
	"io/fs"
)

// FSType represents the underlying type of filesystem implementation.
type FSType int

const (
	// FSTypeUnknown indicates the filesystem type is unknown or unspecified.
	FSTypeUnknown FSType = iota
	// FSTypeLocal indicates a disk-backed filesystem.
	FSTypeLocal
	// FSTypeMemory indicates an in-memory filesystem.
	FSTypeMemory
	// FSTypeRemote indicates an object store such as S3 or MinIO.
	FSTypeRemote
)

// String returns a string representation of the FSType.
func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// FS is the file collaborator consumed by the text helpers: it hands out
// byte sources for reading and byte sinks for writing.
type FS interface {
	ReadFS
	WriteFS

	// Type returns the underlying filesystem type.
	Type() FSType
}

// ReadFS opens byte sources.
type ReadFS interface {
	// Open opens the named file for reading.
	// The returned file must be closed when no longer needed.
	// A missing file yields an error matching fs.ErrNotExist.
	Open(name string) (fs.File, error)

	// Stat returns file metadata.
	Stat(name string) (fs.FileInfo, error)

	// Exists reports whether the named file or directory exists.
	// A false result with a non-nil error means existence could not be
	// determined.
	Exists(name string) (bool, error)
}

// WriteFS opens byte sinks.
//
// Not all providers support all flags. Object stores in particular cannot
// append; they return ErrUnsupported for O_APPEND.
type WriteFS interface {
	// Create creates or truncates the named file for writing.
	Create(name string) (File, error)

	// OpenFile opens a file with the given os.O_* flags and permissions.
	// With O_APPEND the write position starts at the end of the file.
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)

	// MkdirAll creates a directory and any missing parents.
	// Providers with virtual directories treat it as a no-op.
	MkdirAll(path string, perm fs.FileMode) error
}

// File is an open file handle usable as both byte source and byte sink.
type File interface {
	fs.File // Read, Close, Stat
	io.Writer

	// Name returns the name as provided to Open or Create.
	Name() string
}

// Optional File capabilities (use type assertions):
//
// - io.Seeker: lets a text writer tell whether it starts mid-file
// - Truncater: Truncate(size int64) error
// - Syncer: Sync() error

// Truncater allows truncating a file to a specified size.
type Truncater interface {
	// Truncate changes the size of the file without moving the offset.
	Truncate(size int64) error
}

// Syncer allows syncing file contents to stable storage.
type Syncer interface {
	// Sync commits the current contents of the file to stable storage.
	Sync() error
}

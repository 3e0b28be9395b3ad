package minio

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jmgilman/go/textio/errors"
	"github.com/jmgilman/go/textio/fs/core"
	"github.com/jmgilman/go/textio/fs/minio/internal/errs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FS implements core.FS for MinIO/S3-compatible storage.
//
// Objects are written whole: a file opened for writing uploads on Close,
// so appending is not supported and directories are virtual.
type FS struct {
	client             *minio.Client
	bucket             string
	prefix             string
	multipartThreshold int64
}

// NewMinIO creates a MinIO-backed filesystem.
// Returns error if configuration is invalid or the client cannot be created.
func NewMinIO(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create minio client")
		}
	}

	threshold := cfg.MultipartThreshold
	if threshold <= 0 {
		threshold = defaultMultipartThreshold
	}

	return &FS{
		client:             client,
		bucket:             cfg.Bucket,
		prefix:             cleanKey(cfg.Prefix),
		multipartThreshold: threshold,
	}, nil
}

// Type returns core.FSTypeRemote.
func (m *FS) Type() core.FSType {
	return core.FSTypeRemote
}

// joinPath returns the object key for name.
func (m *FS) joinPath(name string) string {
	return objectKey(m.prefix, name)
}

// objectKey maps a filesystem name to its key under prefix. A name cannot
// climb above prefix.
func objectKey(prefix, name string) string {
	name = cleanKey(name)
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	}
	return prefix + "/" + name
}

// cleanKey turns a name into a slash-separated key with no leading or
// trailing slash. Backslashes count as separators and the root is "".
func cleanKey(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
	return strings.TrimPrefix(name, "/")
}

// Open opens the named object for streaming reads.
func (m *FS) Open(name string) (fs.File, error) {
	return newStreamingFile(context.Background(), m, m.joinPath(name), name)
}

// Stat returns object metadata for the named file.
func (m *FS) Stat(name string) (fs.FileInfo, error) {
	info, err := m.client.StatObject(context.Background(), m.bucket, m.joinPath(name), minio.StatObjectOptions{})
	if err != nil {
		return nil, errs.PathError("stat", name, errs.Translate(err))
	}
	return newFileInfo(path.Base(name), info.Size, info.LastModified), nil
}

// Exists reports whether the named object exists.
func (m *FS) Exists(name string) (bool, error) {
	_, err := m.Stat(name)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Create creates the named file for writing. The object is replaced when
// the file is closed.
func (m *FS) Create(name string) (core.File, error) {
	return newWriteFile(m, m.joinPath(name), name), nil
}

// OpenFile opens the named file with the specified flags.
// Supported flags: O_RDONLY, O_WRONLY, O_CREATE, O_TRUNC.
// O_RDWR, O_APPEND, O_EXCL and O_SYNC return core.ErrUnsupported.
func (m *FS) OpenFile(name string, flag int, _ fs.FileMode) (core.File, error) {
	for _, unsupported := range []struct {
		flag  int
		label string
	}{
		{os.O_RDWR, "O_RDWR"},
		{os.O_APPEND, "O_APPEND"},
		{os.O_EXCL, "O_EXCL"},
		{os.O_SYNC, "O_SYNC"},
	} {
		if flag&unsupported.flag != 0 {
			return nil, errs.PathErrorf("open", name, "%w: %s not supported in S3", core.ErrUnsupported, unsupported.label)
		}
	}

	key := m.joinPath(name)
	if flag&(os.O_WRONLY|os.O_CREATE) != 0 {
		return newWriteFile(m, key, name), nil
	}
	return newStreamingFile(context.Background(), m, key, name)
}

// MkdirAll is a no-op; S3 directories are virtual.
func (m *FS) MkdirAll(string, fs.FileMode) error {
	return nil
}

// Remove deletes the named object.
func (m *FS) Remove(name string) error {
	err := m.client.RemoveObject(context.Background(), m.bucket, m.joinPath(name), minio.RemoveObjectOptions{})
	return errs.PathError("remove", name, errs.Translate(err))
}

// fileInfo implements fs.FileInfo for objects.
type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func newFileInfo(name string, size int64, modTime time.Time) *fileInfo {
	return &fileInfo{name: name, size: size, modTime: modTime}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return 0o644 }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return nil }

// Compile-time interface checks.
var _ core.FS = (*FS)(nil)

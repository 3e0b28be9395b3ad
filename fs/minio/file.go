package minio

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/jmgilman/go/textio/fs/core"
	"github.com/jmgilman/go/textio/fs/minio/internal/errs"
	"github.com/minio/minio-go/v7"
)

// writeFile accumulates writes and uploads them as one object.
// Once the buffered data exceeds the filesystem's multipart threshold the
// remainder is streamed through a pipe into a background PutObject.
type writeFile struct {
	fs   *FS
	key  string
	name string

	buffer       *bytes.Buffer
	pipeW        *io.PipeWriter
	putRes       chan error
	bytesWritten int64
	closed       bool
}

func newWriteFile(mfs *FS, key, name string) *writeFile {
	return &writeFile{
		fs:     mfs,
		key:    key,
		name:   name,
		buffer: new(bytes.Buffer),
	}
}

// Read is not supported on files opened for writing.
func (f *writeFile) Read([]byte) (int, error) {
	return 0, errs.PathError("read", f.name, fs.ErrInvalid)
}

// Write buffers p, switching to a streaming upload past the threshold.
// nolint:contextcheck // io.Writer.Write signature cannot accept a context parameter
func (f *writeFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, errs.PathError("write", f.name, fs.ErrClosed)
	}

	if f.pipeW != nil {
		n, err := f.pipeW.Write(p)
		f.bytesWritten += int64(n)
		return n, errs.PathError("write", f.name, err)
	}

	if int64(f.buffer.Len()+len(p)) <= f.fs.multipartThreshold {
		n, _ := f.buffer.Write(p)
		f.bytesWritten += int64(n)
		return n, nil
	}

	return f.startStreaming(p)
}

// startStreaming moves buffered data into a pipe feeding a background upload.
// nolint:contextcheck // Background upload; io.Writer.Write cannot accept context
func (f *writeFile) startStreaming(p []byte) (int, error) {
	pr, pw := io.Pipe()
	f.pipeW = pw
	f.putRes = make(chan error, 1)

	go func() {
		_, err := f.fs.client.PutObject(context.Background(), f.fs.bucket, f.key, pr, -1,
			minio.PutObjectOptions{ContentType: "text/plain"})
		_ = pr.CloseWithError(err)
		f.putRes <- errs.Translate(err)
		close(f.putRes)
	}()

	if f.buffer.Len() > 0 {
		if _, err := f.pipeW.Write(f.buffer.Bytes()); err != nil {
			return 0, errs.PathError("write", f.name, err)
		}
	}
	f.buffer = nil

	n, err := f.pipeW.Write(p)
	f.bytesWritten += int64(n)
	return n, errs.PathError("write", f.name, err)
}

// Stat reports the bytes written so far.
func (f *writeFile) Stat() (fs.FileInfo, error) {
	return newFileInfo(path.Base(f.name), f.bytesWritten, time.Now()), nil
}

// Name returns the name provided to Create or OpenFile.
func (f *writeFile) Name() string {
	return f.name
}

// Close uploads the object. It is idempotent.
func (f *writeFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.pipeW != nil {
		_ = f.pipeW.Close()
		return errs.PathError("close", f.name, <-f.putRes)
	}

	data := f.buffer.Bytes()
	_, err := f.fs.client.PutObject(context.Background(), f.fs.bucket, f.key,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "text/plain"})
	return errs.PathError("close", f.name, errs.Translate(err))
}

// streamingFile reads an object without buffering it in memory.
type streamingFile struct {
	fs     *FS
	key    string
	name   string
	obj    *minio.Object
	info   minio.ObjectInfo
	offset int64
	closed bool
}

// newStreamingFile stats the object, so a missing key fails here rather
// than on first read, then opens it for streaming.
func newStreamingFile(ctx context.Context, mfs *FS, key, name string) (*streamingFile, error) {
	info, err := mfs.client.StatObject(ctx, mfs.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, errs.PathError("open", name, errs.Translate(err))
	}

	obj, err := mfs.client.GetObject(ctx, mfs.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.PathError("open", name, errs.Translate(err))
	}

	return &streamingFile{fs: mfs, key: key, name: name, obj: obj, info: info}, nil
}

// Read reads up to len(p) bytes from the object stream.
func (f *streamingFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, errs.PathError("read", f.name, fs.ErrClosed)
	}
	n, err := f.obj.Read(p)
	f.offset += int64(n)

	// Only report EOF when no data is returned.
	if n > 0 && stderrors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

// Seek repositions the stream by reopening the object with a range request.
func (f *streamingFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, errs.PathError("seek", f.name, fs.ErrClosed)
	}

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = f.offset + offset
	case io.SeekEnd:
		newOffset = f.info.Size + offset
	default:
		return 0, errs.PathError("seek", f.name, fs.ErrInvalid)
	}
	if newOffset < 0 {
		return 0, errs.PathError("seek", f.name, fs.ErrInvalid)
	}
	if newOffset == f.offset {
		return newOffset, nil
	}

	opts := minio.GetObjectOptions{}
	if newOffset > 0 {
		if err := opts.SetRange(newOffset, 0); err != nil {
			return 0, errs.PathError("seek", f.name, err)
		}
	}

	// nolint:contextcheck // io.Seeker cannot accept context
	obj, err := f.fs.client.GetObject(context.Background(), f.fs.bucket, f.key, opts)
	if err != nil {
		return 0, errs.PathError("seek", f.name, errs.Translate(err))
	}

	_ = f.obj.Close()
	f.obj = obj
	f.offset = newOffset
	return newOffset, nil
}

// Write is not supported on files opened for reading.
func (f *streamingFile) Write([]byte) (int, error) {
	return 0, errs.PathError("write", f.name, fs.ErrInvalid)
}

// Stat returns the object metadata captured at open.
func (f *streamingFile) Stat() (fs.FileInfo, error) {
	return newFileInfo(path.Base(f.name), f.info.Size, f.info.LastModified), nil
}

// Name returns the name provided to Open.
func (f *streamingFile) Name() string {
	return f.name
}

// Close releases the object stream. It is idempotent.
func (f *streamingFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.obj.Close()
}

// Compile-time interface checks.
var (
	_ core.File = (*writeFile)(nil)
	_ core.File = (*streamingFile)(nil)
	_ io.Seeker = (*streamingFile)(nil)
)

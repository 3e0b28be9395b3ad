// Package core defines the file collaborator that textio's file helpers
// are written against.
//
// The codec itself only needs an io.Reader or io.Writer. The interfaces here
// describe where those come from: a ReadFS opens byte sources, a WriteFS
// opens byte sinks, and File is a handle that can be both. Providers live in
// sibling packages:
//
//   - github.com/jmgilman/go/textio/fs/billy - local and in-memory files (go-billy)
//   - github.com/jmgilman/go/textio/fs/minio - MinIO/S3 objects
//
// # Usage Example
//
//	func Load(fsys core.ReadFS) (string, error) {
//	    return textio.ReadAllText(fsys, "notes.txt")
//	}
//
// # Optional Capabilities
//
// Files may also implement io.Seeker, Truncater or Syncer. Callers check
// with a type assertion:
//
//	if s, ok := file.(core.Syncer); ok {
//	    err := s.Sync()
//	}
package core

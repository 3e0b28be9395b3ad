// Package billy provides go-billy-backed implementations of core.FS.
//
// NewLocal wraps billy's osfs and NewMemory wraps memfs. Both hand out
// *File values that textio can use as byte sources and sinks:
//
//	fsys := billy.NewMemory()
//	w, err := textio.CreateText(fsys, "notes.txt", textio.WithEncoding(textio.UTF16LE))
//
// Unwrap exposes the billy.Filesystem for code that needs it directly.
//
// # Thread Safety
//
// FS values are safe for concurrent use by multiple goroutines. File
// handles are not.
package billy

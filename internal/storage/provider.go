// Package storage defines the file-system abstraction for graph sources and
// published output.
package storage

// Provider is the interface for reading and writing files under a root.
type Provider interface {
	// List returns the slash-separated paths (relative to root) of every .md
	// file under dir, in lexical order. A missing dir yields no paths.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
}

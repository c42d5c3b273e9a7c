// Package blob stores image bytes under generated names. Objects are
// written once per artwork and read many times.
package blob

import (
	"context"
	"path"
	"strings"
)

// Store persists raw bytes and reads them back by reference
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	// Delete removes ref; deleting a missing blob is not an error
	Delete(ctx context.Context, ref string) error
}

// ContentType maps a generated file name to its image MIME type
func ContentType(ref string) string {
	switch strings.ToLower(path.Ext(ref)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// validName rejects references that could escape the store's namespace
func validName(ref string) bool {
	return ref != "" && ref != "." && ref != ".." && !strings.ContainsAny(ref, `/\`)
}

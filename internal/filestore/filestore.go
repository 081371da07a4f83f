// Package filestore persists uploaded file bytes. The path returned by Save is
// what the record store keeps as Document.FilePath and what Open accepts.
package filestore

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
)

// ErrNotFound is returned by Open for a path that holds no file.
var ErrNotFound = errors.New("file not found")

// Store saves and reopens uploaded files. Saving under an existing name
// replaces the previous file.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (path string, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

package domain

import "io"

// FileStore stores event images. Save returns the stored path used later for
// Delete; deleting a path that no longer exists is not an error.
type FileStore interface {
	Save(r io.Reader, ext string) (path string, err error)
	Delete(path string) error
}

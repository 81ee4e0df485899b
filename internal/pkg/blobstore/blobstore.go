// Package blobstore abstracts "put a file, get back a durable reference"
// over the two backends the portal stores exam files in: the local uploads
// directory and Cloudinary.
//
// A reference is either a bare filename (local, no path separators) or a
// fully qualified https URL (remote). Which backend owns a reference is
// decided by a prefix check on the reference string alone, never by file
// extension or other out-of-band metadata.
package blobstore

import (
	"context"
	"mime/multipart"
	"strings"
)

// Kind identifies which backend owns a stored reference.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// KindOf classifies a stored reference. A reference is remote iff it starts
// with http:// or https://; everything else is a filename under the local
// blob root.
func KindOf(ref string) Kind {
	if IsRemote(ref) {
		return KindRemote
	}
	return KindLocal
}

// IsRemote reports whether a reference belongs to the remote backend.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Store is the write side of a storage backend.
type Store interface {
	// Save stores one uploaded file and returns its durable reference:
	// the bare generated filename for local storage, the public https
	// URL assigned by the remote backend otherwise.
	Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// Delete removes the blob behind a reference. Absence is not an
	// error; deletion is best-effort.
	Delete(ctx context.Context, ref string) error
}

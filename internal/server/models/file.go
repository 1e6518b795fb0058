// Package models defines server-side data models persisted in the database.
package models

import "time"

// DefaultTag is the display label assigned when a client registers a file
// without supplying one.
const DefaultTag = "No tag"

// File describes the metadata record for one uploaded file. The bytes
// themselves live in object storage under StorageKey; this record is the
// only thing that makes the object visible to its owner.
type File struct {
	// FileID is the server-generated primary key, immutable.
	FileID string
	// OwnerID is the verified subject identifier of the uploader. Set once
	// at registration, re-verified (never re-assigned) on every operation.
	OwnerID string
	// StorageKey is the object-storage key of the bytes. Unique; carries
	// the owner id as its first path segment by convention.
	StorageKey string
	// OriginalFileName is the client-supplied name, used for the download
	// filename and for search.
	OriginalFileName string
	// Tag is the user-editable display label.
	Tag string
	// FileSize is the size in bytes as declared by the client at upload
	// coordination time. Advisory; not re-verified against actual bytes.
	FileSize int64
	// UploadTimestamp is set once at registration.
	UploadTimestamp time.Time
}

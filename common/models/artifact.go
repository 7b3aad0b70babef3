package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactHandle references a finished compressed output held by the artifact store
type ArtifactHandle struct {
	// Opaque id handed to the caller
	ID uuid.UUID `json:"artifact_id"`

	// Key of the blob inside the backing store
	BlobKey string `json:"blob_key"`

	// Server-derived download name, never caller supplied
	Filename string `json:"filename"`

	Category  Category  `json:"category"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the retention window has elapsed at now
func (h *ArtifactHandle) Expired(now time.Time) bool {
	return !h.ExpiresAt.IsZero() && !now.Before(h.ExpiresAt)
}

// Artifact is a redeemed handle together with its bytes
type Artifact struct {
	Handle ArtifactHandle
	Data   []byte
}

// DownloadName is the server-derived filename of a compressed output.
// ext carries its leading dot.
func DownloadName(category Category, ext string) string {
	return "compressed_" + category.String() + ext
}

package main

import "time"

// Bucket is the data-model type from spec.md §3.
type Bucket struct {
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata"`
}

// Object is the externally-visible view of an addressable blob.
type Object struct {
	Key          string            `json:"key"`
	Bucket       string            `json:"bucket"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	ETag         string            `json:"etag"`
	CreatedAt    time.Time         `json:"created_at"`
	LastModified time.Time         `json:"last_modified"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

// ObjectMetadata is the on-disk sidecar: a superset of Object.
type ObjectMetadata struct {
	ID             string            `json:"id"`
	Key            string            `json:"key"`
	Bucket         string            `json:"bucket"`
	Size           int64             `json:"size"`
	ContentType    string            `json:"content_type"`
	ETag           string            `json:"etag"`
	CreatedAt      time.Time         `json:"created_at"`
	LastModified   time.Time         `json:"last_modified"`
	UserMetadata   map[string]string `json:"user_metadata,omitempty"`
	VersionID      string            `json:"version_id,omitempty"`
	IsDeleteMarker bool              `json:"is_delete_marker,omitempty"`
	ReferenceCount uint32            `json:"reference_count,omitempty"`
	DataHolderID   string            `json:"data_holder_id,omitempty"`
}

// toObject projects a sidecar down to the externally-visible Object view.
func (m *ObjectMetadata) toObject() *Object {
	return &Object{
		Key:          m.Key,
		Bucket:       m.Bucket,
		Size:         m.Size,
		ContentType:  m.ContentType,
		ETag:         m.ETag,
		CreatedAt:    m.CreatedAt,
		LastModified: m.LastModified,
		UserMetadata: m.UserMetadata,
	}
}

// isReference reports whether this sidecar points at a holder instead of
// owning its own data bytes.
func (m *ObjectMetadata) isReference() bool {
	return m.DataHolderID != ""
}

// DeduplicationPolicy selects how Put handles identical content
// uploaded under a different key (spec.md §4.5).
type DeduplicationPolicy string

const (
	PolicyReject    DeduplicationPolicy = "reject"
	PolicyAllow     DeduplicationPolicy = "allow"
	PolicyReference DeduplicationPolicy = "reference"
)

func parseDeduplicationPolicy(s string) (DeduplicationPolicy, error) {
	switch DeduplicationPolicy(s) {
	case "", PolicyAllow:
		return PolicyAllow, nil
	case PolicyReject:
		return PolicyReject, nil
	case PolicyReference:
		return PolicyReference, nil
	default:
		return "", newErr(KindInvalidDeduplicationMode, "unknown deduplication_mode: "+s)
	}
}

// PutObjectInput carries the caller-supplied fields of a put (spec.md §4.5).
type PutObjectInput struct {
	ContentType  string
	UserMetadata map[string]string
	Policy       DeduplicationPolicy
}

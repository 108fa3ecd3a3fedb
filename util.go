package main

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// nowUTC is the single clock read used throughout the engine, so that
// created_at/last_modified timestamps are always UTC per spec.md §6.1's
// RFC 3339 UTC convention.
func nowUTC() time.Time {
	return time.Now().UTC()
}

// newToken mints a collision-resistant random token used for multipart
// upload ids and per-request ids — never for the
// content-addressed object-id, which stays sha256_hex(bucket:key).
func newToken() string {
	return uuid.NewString()
}

// dataDirApproxSize walks root with filepath.WalkDir, summing regular
// file sizes. It is
// "approx" because it is only ever consulted for the debug health
// endpoint, never for accounting invariants.
func dataDirApproxSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

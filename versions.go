package main

import "sort"

// ListObjectVersions implements spec.md §4.10: enumerate every sidecar in
// bucket whose key field equals key, sorted by created_at descending.
// No code path sets version_id, and each key maps to the single sidecar
// named by objectID(bucket,key), so the result holds at most one entry.
func (e *Engine) ListObjectVersions(bucket, key string) ([]*ObjectMetadata, error) {
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, err
	}

	ids, err := e.layout.allSidecarIDs(bucket)
	if err != nil {
		return nil, err
	}

	var versions []*ObjectMetadata
	for _, id := range ids {
		m, err := e.layout.readSidecar(bucket, id)
		if err != nil {
			continue
		}
		if m.Key == key {
			versions = append(versions, m)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions, nil
}

package main

import "strings"

// ListObjectsResult is the outcome of a ListObjects call: the filtered
// (and possibly delimiter-rolled-up) objects, plus a cursor the caller can
// hand back as Marker to resume — the last sidecar filename examined this
// page, per spec.md §4.2's filename-cursor pagination contract.
type ListObjectsResult struct {
	Objects    []*Object
	NextMarker string
}

// ListObjects implements spec.md §4.9: pull a page of sidecars in
// filesystem (filename) order, then apply prefix, etag-glob, and
// custom-metadata filters, then roll up common prefixes if a delimiter
// was supplied. Filtering happens strictly after pagination, so a
// returned page can be shorter than MaxKeys even when more matching
// objects exist further in the sidecar directory — this mirrors the
// source's documented (if surprising) ordering contract.
func (e *Engine) ListObjects(bucket string, f ListFilter) (*ListObjectsResult, error) {
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, err
	}

	ids, err := e.layout.listSidecarFiles(bucket, f.Marker, f.MaxKeys)
	if err != nil {
		return nil, err
	}

	var objects []*Object
	var lastID string
	for _, id := range ids {
		lastID = id
		m, err := e.layout.readSidecar(bucket, id)
		if err != nil {
			continue
		}
		if f.Prefix != "" && !strings.HasPrefix(m.Key, f.Prefix) {
			continue
		}
		if f.ETagFilter != "" && !matchGlob(f.ETagFilter, m.ETag) {
			continue
		}
		if len(f.CustomFilters) > 0 && !matchesCustomFilters(m, f.CustomFilters) {
			continue
		}
		objects = append(objects, m.toObject())
	}

	objects = rollupDelimiter(objects, f.Prefix, f.Delimiter)

	return &ListObjectsResult{Objects: objects, NextMarker: lastID}, nil
}

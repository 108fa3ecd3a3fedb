package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Layout owns every on-disk read/write for buckets, data files, and
// sidecars. It has no knowledge of the in-memory indexes — callers (the
// object/bucket services) pair layout mutations with index mutations
// under the appropriate lock, per spec.md §5.
type Layout struct {
	root string
	log  *logrus.Logger
}

func newLayout(root string, log *logrus.Logger) *Layout {
	return &Layout{root: root, log: log}
}

// --- bucket directory lifecycle -------------------------------------------------

func (l *Layout) createBucketDir(name string) error {
	if err := os.MkdirAll(sidecarDir(l.root, name), 0o755); err != nil {
		return wrapErr(KindIoFailure, "create bucket directory", err)
	}
	return nil
}

func (l *Layout) removeBucketDir(name string) error {
	if err := os.RemoveAll(filepath.Join(l.root, name)); err != nil {
		return wrapErr(KindIoFailure, "remove bucket directory", err)
	}
	return nil
}

func (l *Layout) writeBucketMeta(b *Bucket) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return wrapErr(KindIoFailure, "marshal bucket metadata", err)
	}
	path := bucketMetaPath(l.root, b.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr(KindIoFailure, "create bucket directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapErr(KindIoFailure, "write bucket metadata", err)
	}
	return nil
}

func (l *Layout) readBucketMeta(name string) (*Bucket, error) {
	data, err := os.ReadFile(bucketMetaPath(l.root, name))
	if err != nil {
		return nil, err
	}
	var b Bucket
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// --- data files -------------------------------------------------------------

func (l *Layout) writeData(bucket, id string, data []byte) error {
	path := dataPath(l.root, bucket, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr(KindIoFailure, "create data shard directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapErr(KindIoFailure, "write data file", err)
	}
	return nil
}

func (l *Layout) readData(bucket, id string) ([]byte, error) {
	data, err := os.ReadFile(dataPath(l.root, bucket, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newErr(KindDataMissing, "data file missing for "+id)
		}
		return nil, wrapErr(KindIoFailure, "read data file", err)
	}
	return data, nil
}

func (l *Layout) dataExists(bucket, id string) bool {
	_, err := os.Stat(dataPath(l.root, bucket, id))
	return err == nil
}

func (l *Layout) removeData(bucket, id string) error {
	if err := os.Remove(dataPath(l.root, bucket, id)); err != nil && !os.IsNotExist(err) {
		return wrapErr(KindIoFailure, "remove data file", err)
	}
	return nil
}

// --- sidecars ----------------------------------------------------------------

func (l *Layout) writeSidecar(m *ObjectMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return wrapErr(KindIoFailure, "marshal sidecar", err)
	}
	path := sidecarPath(l.root, m.Bucket, m.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr(KindIoFailure, "create sidecar directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapErr(KindIoFailure, "write sidecar", err)
	}
	return nil
}

func (l *Layout) readSidecar(bucket, id string) (*ObjectMetadata, error) {
	data, err := os.ReadFile(sidecarPath(l.root, bucket, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newErr(KindNotFound, "sidecar not found for "+id)
		}
		return nil, wrapErr(KindIoFailure, "read sidecar", err)
	}
	var m ObjectMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, wrapErr(KindIoFailure, "parse sidecar", err)
	}
	return &m, nil
}

func (l *Layout) removeSidecar(bucket, id string) error {
	if err := os.Remove(sidecarPath(l.root, bucket, id)); err != nil && !os.IsNotExist(err) {
		return wrapErr(KindIoFailure, "remove sidecar", err)
	}
	return nil
}

// listSidecarFiles returns sidecar filenames (without .json) for bucket in
// lexicographic order, applying marker (exclusive) and maxKeys per
// spec.md §4.2's pagination contract.
func (l *Layout) listSidecarFiles(bucket string, marker string, maxKeys int) ([]string, error) {
	entries, err := os.ReadDir(sidecarDir(l.root, bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapErr(KindIoFailure, "read sidecar directory", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)

	if marker != "" {
		idx := sort.SearchStrings(names, marker)
		if idx < len(names) && names[idx] == marker {
			idx++
		}
		names = names[idx:]
	}

	if maxKeys > 0 && len(names) > maxKeys {
		names = names[:maxKeys]
	}
	return names, nil
}

// allSidecarIDs returns every sidecar id for bucket, unpaginated — used by
// startup scan and version listing, which both need the full set.
func (l *Layout) allSidecarIDs(bucket string) ([]string, error) {
	entries, err := os.ReadDir(sidecarDir(l.root, bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapErr(KindIoFailure, "read sidecar directory", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

// topLevelBucketDirs enumerates bucket directories at the storage root,
// skipping dot-prefixed reserved entries.
func (l *Layout) topLevelBucketDirs() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapErr(KindIoFailure, "read data root", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || isSystemEntry(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

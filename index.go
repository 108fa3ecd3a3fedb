package main

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry is the bucket registry plus the two per-bucket indexes
// described in spec.md §4.3: object_index (key->id) and etag_index
// (etag->[]id). Each map carries its own sync.RWMutex, matching the
// spec's "one read-write lock each" option.
//
// Every mutation of an on-disk sidecar for (bucket,key,id) must be paired
// with the corresponding index mutation, and writers must hold the write
// side of the relevant lock across both — see object.go and bucket.go for
// the call sites that honor this.
type Registry struct {
	bucketsMu sync.RWMutex
	buckets   map[string]*Bucket

	objectMu    sync.RWMutex
	objectIndex map[string]map[string]string // bucket -> key -> id

	etagMu    sync.RWMutex
	etagIndex map[string]map[string][]string // bucket -> etag -> []id

	log *logrus.Logger
}

func newRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		buckets:     make(map[string]*Bucket),
		objectIndex: make(map[string]map[string]string),
		etagIndex:   make(map[string]map[string][]string),
		log:         log,
	}
}

// --- bucket registry ---------------------------------------------------------

func (r *Registry) registerBucket(b *Bucket) {
	r.bucketsMu.Lock()
	defer r.bucketsMu.Unlock()
	r.buckets[b.Name] = b
}

func (r *Registry) unregisterBucket(name string) {
	r.bucketsMu.Lock()
	defer r.bucketsMu.Unlock()
	delete(r.buckets, name)
}

func (r *Registry) getBucket(name string) (*Bucket, bool) {
	r.bucketsMu.RLock()
	defer r.bucketsMu.RUnlock()
	b, ok := r.buckets[name]
	return b, ok
}

func (r *Registry) listBuckets() []*Bucket {
	r.bucketsMu.RLock()
	defer r.bucketsMu.RUnlock()
	out := make([]*Bucket, 0, len(r.buckets))
	for _, b := range r.buckets {
		out = append(out, b)
	}
	return out
}

// --- object_index ------------------------------------------------------------

func (r *Registry) findIDByKey(bucket, key string) (string, bool) {
	r.objectMu.RLock()
	defer r.objectMu.RUnlock()
	m, ok := r.objectIndex[bucket]
	if !ok {
		return "", false
	}
	id, ok := m[key]
	return id, ok
}

func (r *Registry) addKey(bucket, key, id string) {
	r.objectMu.Lock()
	defer r.objectMu.Unlock()
	m, ok := r.objectIndex[bucket]
	if !ok {
		m = make(map[string]string)
		r.objectIndex[bucket] = m
	}
	m[key] = id
}

func (r *Registry) removeKey(bucket, key string) {
	r.objectMu.Lock()
	defer r.objectMu.Unlock()
	m, ok := r.objectIndex[bucket]
	if !ok {
		return
	}
	delete(m, key)
	if len(m) == 0 {
		delete(r.objectIndex, bucket)
	}
}

// bucketObjectCount returns the number of keys registered for bucket,
// making bucket-emptiness checks O(1).
func (r *Registry) bucketObjectCount(bucket string) int {
	r.objectMu.RLock()
	defer r.objectMu.RUnlock()
	return len(r.objectIndex[bucket])
}

// --- etag_index ---------------------------------------------------------------

func (r *Registry) addEtag(bucket, etag, id string) {
	r.etagMu.Lock()
	defer r.etagMu.Unlock()
	m, ok := r.etagIndex[bucket]
	if !ok {
		m = make(map[string][]string)
		r.etagIndex[bucket] = m
	}
	m[etag] = append(m[etag], id)
}

// removeEtag removes one occurrence of id from bucket's etag entry,
// dropping the etag entry when it becomes empty and the bucket entry when
// it in turn becomes empty.
func (r *Registry) removeEtag(bucket, etag, id string) {
	r.etagMu.Lock()
	defer r.etagMu.Unlock()
	m, ok := r.etagIndex[bucket]
	if !ok {
		return
	}
	ids := m[etag]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m, etag)
	} else {
		m[etag] = ids
	}
	if len(m) == 0 {
		delete(r.etagIndex, bucket)
	}
}

func (r *Registry) findIDsByEtag(bucket, etag string) []string {
	r.etagMu.RLock()
	defer r.etagMu.RUnlock()
	ids := r.etagIndex[bucket][etag]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// resetBucketIndexes clears bucket's in-memory index state, used by
// rebuild before repopulating from disk.
func (r *Registry) resetBucketIndexes(bucket string) {
	r.objectMu.Lock()
	delete(r.objectIndex, bucket)
	r.objectMu.Unlock()

	r.etagMu.Lock()
	delete(r.etagIndex, bucket)
	r.etagMu.Unlock()
}

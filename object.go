package main

import (
	"fmt"
	"sync"
	"time"
)

// refMu serializes holder selection and reference-count read-modify-write
// so two concurrent Reference puts (or a put racing a delete) against the
// same holder never lose an increment/decrement — spec.md §5's explicit
// requirement that refcount updates happen under the index write lock.
var refMu sync.Mutex

// Put implements spec.md §4.5: validate, compute etag, take the same-key
// idempotency fast path when applicable, otherwise branch on
// input.Policy (default Allow).
func (e *Engine) Put(bucket, key string, data []byte, input *PutObjectInput) (*Object, error) {
	if !isValidObjectKey(key) {
		return nil, newErr(KindInvalidKey, "invalid object key: "+key)
	}
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, err
	}
	if input == nil {
		input = &PutObjectInput{}
	}
	policy := input.Policy
	if policy == "" {
		policy = PolicyAllow
	}

	etag := quotedMD5(data)
	contentType := resolveContentType(key, input.ContentType)
	id := objectID(bucket, key)

	var existing *ObjectMetadata
	var existingID string
	if foundID, ok := e.reg.findIDByKey(bucket, key); ok {
		if sc, err := e.layout.readSidecar(bucket, foundID); err == nil {
			existing = sc
			existingID = foundID
		}
	}

	// Same-key idempotency fast path: identical content under the same
	// key never rewrites the data file.
	if existing != nil && existing.ETag == etag {
		existing.LastModified = nowUTC()
		existing.UserMetadata = input.UserMetadata
		if err := e.layout.writeSidecar(existing); err != nil {
			return nil, err
		}
		return existing.toObject(), nil
	}

	// Same key, different content: a holder still carrying references
	// cannot be silently overwritten — any reference pointing at it would
	// start resolving to the new bytes, and its refcount would reset to 0
	// underneath them. Reject instead of clobbering (spec.md invariants
	// 3/4/6).
	if existing != nil && !existing.isReference() && existing.ReferenceCount > 0 {
		return nil, newErr(KindHasReferences,
			fmt.Sprintf("object %q has %d references and cannot be overwritten", key, existing.ReferenceCount))
	}

	// Same key with different content: if the key previously was a
	// reference, release that reference before
	// establishing the new mapping, preserving invariant 4.
	if existing != nil && existing.isReference() {
		decrementHolder(e, bucket, existing.DataHolderID)
	}

	// The old sidecar's etag mapping must be retired before the new one is
	// added, or a stale etag->id entry survives pointing at a key that no
	// longer holds that content (invariant 2).
	if existing != nil {
		e.reg.removeEtag(bucket, existing.ETag, existingID)
	}

	createdAt := nowUTC()
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	switch policy {
	case PolicyReject:
		for _, cid := range e.reg.findIDsByEtag(bucket, etag) {
			if cid == id {
				continue
			}
			if csc, err := e.layout.readSidecar(bucket, cid); err == nil && csc.Key != key {
				return nil, newErr(KindDuplicateContent,
					fmt.Sprintf("content already exists under key %q", csc.Key))
			}
		}
		return e.writeStandalone(bucket, key, id, data, etag, contentType, createdAt, input.UserMetadata)

	case PolicyReference:
		var candidates []string
		for _, cid := range e.reg.findIDsByEtag(bucket, etag) {
			if cid != id {
				candidates = append(candidates, cid)
			}
		}
		if len(candidates) == 0 {
			return e.writeStandalone(bucket, key, id, data, etag, contentType, createdAt, input.UserMetadata)
		}
		holderID, err := selectAndIncrementHolder(e, bucket, candidates)
		if err != nil {
			return nil, err
		}
		sidecar := &ObjectMetadata{
			ID:             id,
			Key:            key,
			Bucket:         bucket,
			Size:           int64(len(data)),
			ContentType:    contentType,
			ETag:           etag,
			CreatedAt:      createdAt,
			LastModified:   nowUTC(),
			UserMetadata:   input.UserMetadata,
			ReferenceCount: 0,
			DataHolderID:   holderID,
		}
		if err := e.layout.writeSidecar(sidecar); err != nil {
			return nil, err
		}
		e.reg.addKey(bucket, key, id)
		e.reg.addEtag(bucket, etag, id)
		setObjectCount(bucket, e.reg.bucketObjectCount(bucket))
		incDedupReference(bucket)
		return sidecar.toObject(), nil

	default: // PolicyAllow
		return e.writeStandalone(bucket, key, id, data, etag, contentType, createdAt, input.UserMetadata)
	}
}

// writeStandalone is the §4.5 step-5 write procedure: write the data
// file, write the owning sidecar, then register both indexes. Disk state
// is published before the index mutation, per the writer ordering rule
// in spec.md §5.
func (e *Engine) writeStandalone(bucket, key, id string, data []byte, etag, contentType string, createdAt time.Time, userMetadata map[string]string) (*Object, error) {
	if err := e.layout.writeData(bucket, id, data); err != nil {
		return nil, err
	}
	sidecar := &ObjectMetadata{
		ID:           id,
		Key:          key,
		Bucket:       bucket,
		Size:         int64(len(data)),
		ContentType:  contentType,
		ETag:         etag,
		CreatedAt:    createdAt,
		LastModified: nowUTC(),
		UserMetadata: userMetadata,
	}
	if err := e.layout.writeSidecar(sidecar); err != nil {
		return nil, err
	}
	e.reg.addKey(bucket, key, id)
	e.reg.addEtag(bucket, etag, id)
	setObjectCount(bucket, e.reg.bucketObjectCount(bucket))
	return sidecar.toObject(), nil
}

// PutIfNotExists fails AlreadyExists when the same-key idempotency check
// in Put would apply (same key, identical content); otherwise it behaves
// exactly like Put.
func (e *Engine) PutIfNotExists(bucket, key string, data []byte, input *PutObjectInput) (*Object, error) {
	etag := quotedMD5(data)
	if id, ok := e.reg.findIDByKey(bucket, key); ok {
		if sc, err := e.layout.readSidecar(bucket, id); err == nil && sc.ETag == etag {
			return nil, newErr(KindAlreadyExists, "key already exists with identical content: "+key)
		}
	}
	return e.Put(bucket, key, data, input)
}

// PutIfEtagMismatch preserves the source's observed — and inverted —
// precondition semantics (spec.md §9 Open Question 1): it fails
// PreconditionFailed when the *current* sidecar's etag *equals* expected,
// which is the opposite of typical S3 If-Match CAS behavior. Do not fix.
func (e *Engine) PutIfEtagMismatch(bucket, key string, data []byte, input *PutObjectInput, expected string) (*Object, error) {
	if id, ok := e.reg.findIDByKey(bucket, key); ok {
		if sc, err := e.layout.readSidecar(bucket, id); err == nil && sc.ETag == expected {
			return nil, newErr(KindPreconditionFailed, "current etag matches expected etag: "+expected)
		}
	}
	return e.Put(bucket, key, data, input)
}

// Get implements spec.md §4.6: resolve key->id, load the sidecar, follow
// data_holder_id indirection when present, and return the requesting
// object's own metadata alongside the resolved bytes.
func (e *Engine) Get(bucket, key string) ([]byte, *ObjectMetadata, error) {
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, nil, err
	}
	id, ok := e.reg.findIDByKey(bucket, key)
	if !ok {
		return nil, nil, newErr(KindNotFound, "object not found: "+key)
	}
	sidecar, err := e.layout.readSidecar(bucket, id)
	if err != nil {
		return nil, nil, newErr(KindNotFound, "object not found: "+key)
	}

	if sidecar.isReference() {
		holder, err := e.layout.readSidecar(bucket, sidecar.DataHolderID)
		if err != nil {
			return nil, nil, newErr(KindDanglingReference, "holder sidecar missing for "+sidecar.DataHolderID)
		}
		data, err := e.layout.readData(bucket, holder.ID)
		if err != nil {
			return nil, nil, newErr(KindDanglingReference, "holder data missing for "+holder.ID)
		}
		return data, sidecar, nil
	}

	data, err := e.layout.readData(bucket, id)
	if err != nil {
		return nil, nil, err
	}
	return data, sidecar, nil
}

// HeadObject returns metadata only, without reading data bytes.
func (e *Engine) HeadObject(bucket, key string) (*ObjectMetadata, error) {
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, err
	}
	id, ok := e.reg.findIDByKey(bucket, key)
	if !ok {
		return nil, newErr(KindNotFound, "object not found: "+key)
	}
	sidecar, err := e.layout.readSidecar(bucket, id)
	if err != nil {
		return nil, newErr(KindNotFound, "object not found: "+key)
	}
	return sidecar, nil
}

// Delete implements spec.md §4.7. References release their holder's
// refcount (floor 0) without touching the holder's data file; holders
// with reference_count > 0 refuse to delete.
func (e *Engine) Delete(bucket, key string) error {
	return e.deleteObject(bucket, key, false)
}

// deleteForced bypasses the HasReferences guard on a holder delete. It is
// intentionally not wired to any HTTP route (spec.md §9 Open Question 5).
func (e *Engine) deleteForced(bucket, key string) error {
	return e.deleteObject(bucket, key, true)
}

func (e *Engine) deleteObject(bucket, key string, force bool) error {
	if _, err := e.GetBucket(bucket); err != nil {
		return err
	}
	id, ok := e.reg.findIDByKey(bucket, key)
	if !ok {
		return newErr(KindNotFound, "object not found: "+key)
	}
	sidecar, err := e.layout.readSidecar(bucket, id)
	if err != nil {
		return newErr(KindNotFound, "object not found: "+key)
	}

	if sidecar.isReference() {
		e.reg.removeKey(bucket, key)
		e.reg.removeEtag(bucket, sidecar.ETag, id)
		if err := e.layout.removeSidecar(bucket, id); err != nil {
			return err
		}
		decrementHolder(e, bucket, sidecar.DataHolderID)
		setObjectCount(bucket, e.reg.bucketObjectCount(bucket))
		return nil
	}

	if !force && sidecar.ReferenceCount > 0 {
		return newErr(KindHasReferences,
			fmt.Sprintf("object %q has %d references", key, sidecar.ReferenceCount))
	}

	e.reg.removeKey(bucket, key)
	e.reg.removeEtag(bucket, sidecar.ETag, id)
	if err := e.layout.removeData(bucket, id); err != nil {
		return err
	}
	err = e.layout.removeSidecar(bucket, id)
	setObjectCount(bucket, e.reg.bucketObjectCount(bucket))
	return err
}

// UpdateMetadata implements spec.md §4.8. customETag is accepted but
// deliberately never written — spec.md §9 Open Question 2 — it is
// reserved and unimplemented in the source this was modeled on.
func (e *Engine) UpdateMetadata(bucket, key string, contentType *string, userMetadata *map[string]string, customETag *string) (*Object, error) {
	if _, err := e.GetBucket(bucket); err != nil {
		return nil, err
	}
	id, ok := e.reg.findIDByKey(bucket, key)
	if !ok {
		return nil, newErr(KindNotFound, "object not found: "+key)
	}
	sidecar, err := e.layout.readSidecar(bucket, id)
	if err != nil {
		return nil, newErr(KindNotFound, "object not found: "+key)
	}

	if contentType != nil {
		sidecar.ContentType = *contentType
	}
	if userMetadata != nil {
		sidecar.UserMetadata = *userMetadata
	}
	sidecar.LastModified = nowUTC()

	if err := e.layout.writeSidecar(sidecar); err != nil {
		return nil, err
	}
	return sidecar.toObject(), nil
}

// selectAndIncrementHolder implements the §4.5 Reference-policy holder
// selection: resolve every candidate to its holder (flattening one level
// of indirection per §9's re-architecture note, since holders never
// chain), pick the holder with the highest reference_count breaking ties
// by first-seen order, then increment it under refMu.
func selectAndIncrementHolder(e *Engine, bucket string, candidateIDs []string) (string, error) {
	refMu.Lock()
	defer refMu.Unlock()

	seen := make(map[string]bool)
	var bestID string
	var bestCount uint32
	found := false

	for _, cid := range candidateIDs {
		csc, err := e.layout.readSidecar(bucket, cid)
		if err != nil {
			continue
		}
		holderID := cid
		holderCount := csc.ReferenceCount
		if csc.isReference() {
			holderID = csc.DataHolderID
			hsc, err := e.layout.readSidecar(bucket, holderID)
			if err != nil {
				continue
			}
			holderCount = hsc.ReferenceCount
		}
		if seen[holderID] {
			continue
		}
		seen[holderID] = true
		if !found || holderCount > bestCount {
			bestID, bestCount = holderID, holderCount
			found = true
		}
	}

	if !found {
		return "", newErr(KindIoFailure, "no resolvable holder for duplicate content")
	}

	holder, err := e.layout.readSidecar(bucket, bestID)
	if err != nil {
		return "", wrapErr(KindIoFailure, "read holder sidecar", err)
	}
	holder.ReferenceCount++
	if err := e.layout.writeSidecar(holder); err != nil {
		return "", err
	}
	return bestID, nil
}

// decrementHolder floors reference_count at 0 and persists the holder
// sidecar under refMu, the read-modify-write discipline spec.md §5
// requires to avoid lost updates.
func decrementHolder(e *Engine, bucket, holderID string) {
	refMu.Lock()
	defer refMu.Unlock()

	holder, err := e.layout.readSidecar(bucket, holderID)
	if err != nil {
		return
	}
	if holder.ReferenceCount > 0 {
		holder.ReferenceCount--
	}
	_ = e.layout.writeSidecar(holder)
}

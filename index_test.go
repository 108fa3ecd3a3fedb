package main

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestRegistry() *Registry {
	log := logrus.New()
	log.SetOutput(discardWriter{})
	return newRegistry(log)
}

func TestRegistryObjectIndex(t *testing.T) {
	r := newTestRegistry()
	r.addKey("b", "k", "id1")

	id, ok := r.findIDByKey("b", "k")
	if !ok || id != "id1" {
		t.Fatalf("findIDByKey = (%s, %v), want (id1, true)", id, ok)
	}
	if r.bucketObjectCount("b") != 1 {
		t.Errorf("bucketObjectCount = %d, want 1", r.bucketObjectCount("b"))
	}

	r.removeKey("b", "k")
	if _, ok := r.findIDByKey("b", "k"); ok {
		t.Error("key should be gone after removeKey")
	}
	if _, present := r.objectIndex["b"]; present || r.bucketObjectCount("b") != 0 {
		t.Error("bucket entry should be pruned once empty")
	}
}

func TestRegistryEtagIndex(t *testing.T) {
	r := newTestRegistry()
	r.addEtag("b", "etag1", "id1")
	r.addEtag("b", "etag1", "id2")

	ids := r.findIDsByEtag("b", "etag1")
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	r.removeEtag("b", "etag1", "id1")
	ids = r.findIDsByEtag("b", "etag1")
	if len(ids) != 1 || ids[0] != "id2" {
		t.Fatalf("expected only id2 to remain, got %v", ids)
	}

	r.removeEtag("b", "etag1", "id2")
	ids = r.findIDsByEtag("b", "etag1")
	if _, present := r.etagIndex["b"]; present || len(ids) != 0 {
		t.Error("etag entry should be fully pruned once empty")
	}
}

func TestRegistryResetBucketIndexes(t *testing.T) {
	r := newTestRegistry()
	r.addKey("b", "k", "id1")
	r.addEtag("b", "etag1", "id1")

	r.resetBucketIndexes("b")

	if _, ok := r.findIDByKey("b", "k"); ok {
		t.Error("object index should be cleared")
	}
	if ids := r.findIDsByEtag("b", "etag1"); len(ids) != 0 {
		t.Error("etag index should be cleared")
	}
}

func TestRegistryBucketLifecycle(t *testing.T) {
	r := newTestRegistry()
	b := &Bucket{Name: "b"}
	r.registerBucket(b)

	if got, ok := r.getBucket("b"); !ok || got.Name != "b" {
		t.Fatal("expected registered bucket to be retrievable")
	}
	if len(r.listBuckets()) != 1 {
		t.Fatal("expected exactly one bucket listed")
	}

	r.unregisterBucket("b")
	if _, ok := r.getBucket("b"); ok {
		t.Error("bucket should be gone after unregister")
	}
}

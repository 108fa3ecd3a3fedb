package main

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	log := logrus.New()
	log.SetOutput(discardWriter{})
	return newLayout(t.TempDir(), log)
}

func TestLayoutBucketDirLifecycle(t *testing.T) {
	l := newTestLayout(t)

	if err := l.createBucketDir("b"); err != nil {
		t.Fatalf("createBucketDir: %v", err)
	}
	b := &Bucket{Name: "b", Metadata: map[string]string{}}
	if err := l.writeBucketMeta(b); err != nil {
		t.Fatalf("writeBucketMeta: %v", err)
	}
	got, err := l.readBucketMeta("b")
	if err != nil {
		t.Fatalf("readBucketMeta: %v", err)
	}
	if got.Name != "b" {
		t.Errorf("name = %s, want b", got.Name)
	}

	if err := l.removeBucketDir("b"); err != nil {
		t.Fatalf("removeBucketDir: %v", err)
	}
	if _, err := l.readBucketMeta("b"); err == nil {
		t.Fatal("expected error reading metadata for removed bucket")
	}
}

func TestLayoutDataRoundTrip(t *testing.T) {
	l := newTestLayout(t)
	l.createBucketDir("b")

	if err := l.writeData("b", "deadbeef", []byte("payload")); err != nil {
		t.Fatalf("writeData: %v", err)
	}
	if !l.dataExists("b", "deadbeef") {
		t.Fatal("dataExists should report true after writeData")
	}
	data, err := l.readData("b", "deadbeef")
	if err != nil {
		t.Fatalf("readData: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want payload", data)
	}

	if err := l.removeData("b", "deadbeef"); err != nil {
		t.Fatalf("removeData: %v", err)
	}
	if l.dataExists("b", "deadbeef") {
		t.Error("dataExists should report false after removeData")
	}
}

func TestLayoutSidecarRoundTrip(t *testing.T) {
	l := newTestLayout(t)
	l.createBucketDir("b")

	m := &ObjectMetadata{ID: "id1", Key: "k", Bucket: "b", ETag: `"x"`}
	if err := l.writeSidecar(m); err != nil {
		t.Fatalf("writeSidecar: %v", err)
	}
	got, err := l.readSidecar("b", "id1")
	if err != nil {
		t.Fatalf("readSidecar: %v", err)
	}
	if got.Key != "k" {
		t.Errorf("key = %s, want k", got.Key)
	}

	if err := l.removeSidecar("b", "id1"); err != nil {
		t.Fatalf("removeSidecar: %v", err)
	}
	if _, err := l.readSidecar("b", "id1"); err == nil {
		t.Fatal("expected NotFound after removeSidecar")
	}
}

func TestLayoutListSidecarFilesPaginationAndMarker(t *testing.T) {
	l := newTestLayout(t)
	l.createBucketDir("b")

	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		l.writeSidecar(&ObjectMetadata{ID: id, Key: id, Bucket: "b"})
	}

	all, err := l.listSidecarFiles("b", "", 0)
	if err != nil {
		t.Fatalf("listSidecarFiles: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 sidecars, got %d", len(all))
	}

	page, err := l.listSidecarFiles("b", "", 2)
	if err != nil {
		t.Fatalf("listSidecarFiles (paged): %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}

	next, err := l.listSidecarFiles("b", page[len(page)-1], 0)
	if err != nil {
		t.Fatalf("listSidecarFiles (marker): %v", err)
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 remaining after marker, got %d", len(next))
	}
	if next[0] == page[len(page)-1] {
		t.Error("marker should be exclusive")
	}
}

func TestLayoutTopLevelBucketDirsSkipsReserved(t *testing.T) {
	l := newTestLayout(t)
	l.createBucketDir("visible")
	l.createBucketDir(".reserved")

	dirs, err := l.topLevelBucketDirs()
	if err != nil {
		t.Fatalf("topLevelBucketDirs: %v", err)
	}
	if len(dirs) != 1 || dirs[0] != "visible" {
		t.Fatalf("expected only [visible], got %v", dirs)
	}
}

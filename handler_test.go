package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	log := logrus.New()
	log.SetOutput(discardWriter{})
	engine, err := NewEngine(dir, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	cfg := &Config{MaxFileSize: 1 << 20, EnableMetrics: false}
	handler := NewHandler(engine, cfg, log)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func mustDo(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandlerHealth(t *testing.T) {
	server := setupTestServer(t)

	resp := mustDo(t, http.MethodGet, server.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatal("expected success=true")
	}
}

func TestHandlerBucketLifecycle(t *testing.T) {
	server := setupTestServer(t)

	createBody, _ := json.Marshal(map[string]string{"name": "photos"})
	resp := mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create bucket status = %d, want 200", resp.StatusCode)
	}
	decodeEnvelope(t, resp)

	resp = mustDo(t, http.MethodGet, server.URL+"/api/buckets/photos", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get bucket status = %d, want 200", resp.StatusCode)
	}
	decodeEnvelope(t, resp)

	resp = mustDo(t, http.MethodDelete, server.URL+"/api/buckets/photos", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete bucket status = %d, want 200", resp.StatusCode)
	}
}

func TestHandlerCreateBucketInvalidNameReturnsBadRequest(t *testing.T) {
	server := setupTestServer(t)

	createBody, _ := json.Marshal(map[string]string{"name": "-bad"})
	resp := mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected success=false")
	}
}

func TestHandlerPutGetObjectRoundTrip(t *testing.T) {
	server := setupTestServer(t)

	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()

	resp := mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/hello.txt", bytes.NewReader([]byte("Hello")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put object status = %d, want 200", resp.StatusCode)
	}
	decodeEnvelope(t, resp)

	resp = mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects/hello.txt", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get object status = %d, want 200", resp.StatusCode)
	}
	wantETag := `"8b1a9953c4611296a827abf8c47804d7"`
	if got := resp.Header.Get("ETag"); got != wantETag {
		t.Errorf("ETag header = %s, want %s", got, wantETag)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "Hello" {
		t.Errorf("body = %q, want Hello", body)
	}
}

func TestHandlerGetObjectNotFound(t *testing.T) {
	server := setupTestServer(t)
	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()

	resp := mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerListObjects(t *testing.T) {
	server := setupTestServer(t)
	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()
	mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/a.txt", bytes.NewReader([]byte("a"))).Body.Close()
	mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/b.txt", bytes.NewReader([]byte("b"))).Body.Close()

	resp := mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatal("expected data object")
	}
	objects, ok := data["objects"].([]interface{})
	if !ok || len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %v", data["objects"])
	}
}

func TestHandlerMetadataRoundTrip(t *testing.T) {
	server := setupTestServer(t)
	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()
	mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/k", bytes.NewReader([]byte("v"))).Body.Close()

	resp := mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects/k/metadata", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	decodeEnvelope(t, resp)

	updateBody, _ := json.Marshal(map[string]interface{}{"content_type": "text/custom"})
	resp = mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/k/metadata", bytes.NewReader(updateBody))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update metadata status = %d, want 200", resp.StatusCode)
	}
}

func TestHandlerVersions(t *testing.T) {
	server := setupTestServer(t)
	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()
	mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/k", bytes.NewReader([]byte("v"))).Body.Close()

	resp := mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects/k/versions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	decodeEnvelope(t, resp)
}

func TestHandlerDeleteObject(t *testing.T) {
	server := setupTestServer(t)
	createBody, _ := json.Marshal(map[string]string{"name": "b"})
	mustDo(t, http.MethodPost, server.URL+"/api/buckets", bytes.NewReader(createBody)).Body.Close()
	mustDo(t, http.MethodPut, server.URL+"/api/buckets/b/objects/k", bytes.NewReader([]byte("v"))).Body.Close()

	resp := mustDo(t, http.MethodDelete, server.URL+"/api/buckets/b/objects/k", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp = mustDo(t, http.MethodGet, server.URL+"/api/buckets/b/objects/k", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", resp.StatusCode)
	}
}

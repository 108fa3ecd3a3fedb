package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// envelope is the JSON response wrapper spec.md §6.1 requires for every
// non-raw-data response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Handler is the HTTP transport collaborator: it owns routing, request
// parsing, and JSON-envelope encoding, and delegates everything else to
// the Engine. The only disk access of its own is the data-directory walk
// behind the debug health payload.
type Handler struct {
	engine *Engine
	cfg    *Config
	log    *logrus.Logger
}

func NewHandler(engine *Engine, cfg *Config, log *logrus.Logger) *Handler {
	return &Handler{engine: engine, cfg: cfg, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/":
		h.handleWelcome(w, r)
	case path == "/health":
		h.handleHealth(w, r)
	case path == "/metrics":
		if h.cfg.EnableMetrics {
			metricsHandler().ServeHTTP(w, r)
			return
		}
		h.writeError(w, http.StatusNotFound, "metrics disabled")
	case strings.HasPrefix(path, "/api/buckets"):
		h.routeBuckets(w, r, strings.TrimPrefix(path, "/api/buckets"))
	default:
		h.writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, "welcome to sevino — an S3-style object storage service")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "ok",
		"timestamp": nowUTC().Format(time.RFC3339),
	}
	if r.URL.Query().Get("debug") != "" {
		buckets := h.engine.ListBuckets()
		resp["bucket_count"] = len(buckets)
		var total int64
		for _, b := range buckets {
			total += int64(h.engine.reg.bucketObjectCount(b.Name))
		}
		resp["object_count"] = total
		resp["data_dir_size"] = humanize.Bytes(uint64(dataDirApproxSize(h.engine.root)))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// routeBuckets dispatches everything under /api/buckets.
func (h *Handler) routeBuckets(w http.ResponseWriter, r *http.Request, rest string) {
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleListBuckets(w, r)
		case http.MethodPost:
			h.handleCreateBucket(w, r)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	bucket := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGetBucket(w, r, bucket)
		case http.MethodDelete:
			h.handleDeleteBucket(w, r, bucket)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	sub := parts[1]
	if sub == "objects" {
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleListObjects(w, r, bucket)
		return
	}

	if !strings.HasPrefix(sub, "objects/") {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	keyPart := strings.TrimPrefix(sub, "objects/")

	switch {
	case strings.HasSuffix(keyPart, "/metadata"):
		key := strings.TrimSuffix(keyPart, "/metadata")
		h.routeObjectMetadata(w, r, bucket, key)
	case strings.HasSuffix(keyPart, "/versions"):
		key := strings.TrimSuffix(keyPart, "/versions")
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleListVersions(w, r, bucket, key)
	case strings.HasSuffix(keyPart, "/multipart"):
		key := strings.TrimSuffix(keyPart, "/multipart")
		if r.Method != http.MethodPut {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handlePutMultipart(w, r, bucket, key)
	default:
		h.routeObject(w, r, bucket, keyPart)
	}
}

func (h *Handler) routeObjectMetadata(w http.ResponseWriter, r *http.Request, bucket, key string) {
	switch r.Method {
	case http.MethodGet:
		h.handleGetMetadata(w, r, bucket, key)
	case http.MethodPut:
		h.handleUpdateMetadata(w, r, bucket, key)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) routeObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	switch r.Method {
	case http.MethodPut:
		h.handlePutObject(w, r, bucket, key)
	case http.MethodGet:
		h.handleGetObject(w, r, bucket, key)
	case http.MethodDelete:
		h.handleDeleteObject(w, r, bucket, key)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- bucket handlers ----------------------------------------------------------

func (h *Handler) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets := h.engine.ListBuckets()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"buckets": buckets})
}

func (h *Handler) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b, err := h.engine.CreateBucket(body.Name)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleGetBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	b, err := h.engine.GetBucket(bucket)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDeleteBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	if err := h.engine.DeleteBucket(bucket); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "bucket deleted"})
}

// --- object handlers ------------------------------------------------------------

func (h *Handler) handlePutObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	query := r.URL.Query()

	policy, err := parseDeduplicationPolicy(query.Get("deduplication_mode"))
	if err != nil {
		h.writeStorageError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxFileSize+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > h.cfg.MaxFileSize {
		h.writeError(w, http.StatusRequestEntityTooLarge, "object exceeds max_file_size")
		return
	}

	userMetadata := map[string]string{}
	if custom := query.Get("custom"); custom != "" {
		decoded, err := url.QueryUnescape(custom)
		if err != nil {
			decoded = custom
		}
		var m map[string]string
		if err := json.Unmarshal([]byte(decoded), &m); err == nil {
			for k, v := range m {
				userMetadata[k] = v
			}
		}
	}

	input := &PutObjectInput{
		ContentType:  firstNonEmpty(query.Get("content_type"), r.Header.Get("Content-Type"), "application/octet-stream"),
		UserMetadata: userMetadata,
		Policy:       policy,
	}

	obj, err := h.engine.Put(bucket, key, body, input)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obj)
}

func (h *Handler) handlePutMultipart(w http.ResponseWriter, r *http.Request, bucket, key string) {
	query := r.URL.Query()
	partNumber := query.Get("part_number")
	totalParts := query.Get("total_parts")
	uploadID := query.Get("upload_id")
	if uploadID == "" {
		uploadID = newToken()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxFileSize+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > h.cfg.MaxFileSize {
		h.writeError(w, http.StatusRequestEntityTooLarge, "part exceeds max_file_size")
		return
	}

	partKey := fmt.Sprintf("%s.part.%s", key, partNumber)
	input := &PutObjectInput{
		ContentType: firstNonEmpty(query.Get("content_type"), "application/octet-stream"),
		UserMetadata: map[string]string{
			"multipart_upload_id":   uploadID,
			"multipart_part_number": partNumber,
			"multipart_total_parts": totalParts,
			"multipart_key":         key,
		},
		Policy: PolicyAllow,
	}

	obj, err := h.engine.Put(bucket, partKey, body, input)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obj)
}

func (h *Handler) handleGetObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	data, meta, err := h.engine.Get(bucket, key)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("ETag", meta.ETag)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Last-Modified", meta.LastModified.Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) handleDeleteObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	if err := h.engine.Delete(bucket, key); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "object deleted"})
}

func (h *Handler) handleGetMetadata(w http.ResponseWriter, r *http.Request, bucket, key string) {
	meta, err := h.engine.HeadObject(bucket, key)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meta)
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request, bucket, key string) {
	var body struct {
		ContentType  *string            `json:"content_type"`
		UserMetadata *map[string]string `json:"user_metadata"`
		CustomETag   *string            `json:"custom_etag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	obj, err := h.engine.UpdateMetadata(bucket, key, body.ContentType, body.UserMetadata, body.CustomETag)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obj)
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request, bucket, key string) {
	versions, err := h.engine.ListObjectVersions(bucket, key)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions})
}

func (h *Handler) handleListObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	query := r.URL.Query()

	maxKeys := 0
	if mk := query.Get("max_keys"); mk != "" {
		if parsed, err := strconv.Atoi(mk); err == nil && parsed >= 0 {
			maxKeys = parsed
		}
	}

	customFilters := map[string]string{}
	for k, v := range query {
		if strings.HasPrefix(k, "custom_") && len(v) > 0 {
			customFilters[strings.TrimPrefix(k, "custom_")] = v[0]
		}
	}

	result, err := h.engine.ListObjects(bucket, ListFilter{
		Prefix:        query.Get("prefix"),
		Delimiter:     query.Get("delimiter"),
		MaxKeys:       maxKeys,
		Marker:        query.Get("marker"),
		ETagFilter:    query.Get("etag_filter"),
		CustomFilters: customFilters,
	})
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"objects":     result.Objects,
		"next_marker": result.NextMarker,
	})
}

// --- response helpers -----------------------------------------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

func (h *Handler) writeStorageError(w http.ResponseWriter, err error) {
	var se *StorageError
	if errors.As(err, &se) {
		h.writeError(w, statusFor(se.Kind), se.Error())
		return
	}
	h.writeError(w, http.StatusInternalServerError, err.Error())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

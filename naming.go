package main

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// bucketNamePattern matches spec.md's bucket-name rule: starts with a
// letter (so no leading hyphen), then letters/digits/hyphens, capped at
// 63 characters total. A trailing hyphen passes the pattern and is
// rejected separately by isValidBucketName.
var bucketNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,62}$`)

// maxKeyLength is the hard cap on object key length.
const maxKeyLength = 1024

// sevinoMetaDir is the reserved sidecar subtree under every bucket directory.
const sevinoMetaDir = ".sevino.meta"

// isValidBucketName reports whether name satisfies the bucket-name rule.
func isValidBucketName(name string) bool {
	if !bucketNamePattern.MatchString(name) {
		return false
	}
	if strings.HasSuffix(name, "-") {
		return false
	}
	return true
}

// isValidObjectKey reports whether key satisfies the object-key rule:
// non-empty, at most maxKeyLength characters, and never containing "..".
func isValidObjectKey(key string) bool {
	if key == "" || utf8.RuneCountInString(key) > maxKeyLength {
		return false
	}
	if strings.Contains(key, "..") {
		return false
	}
	return true
}

// objectID computes the stable, content-independent id for (bucket,key):
// sha256_hex(bucket + ":" + key).
func objectID(bucket, key string) string {
	sum := sha256.Sum256([]byte(bucket + ":" + key))
	return hex.EncodeToString(sum[:])
}

// quotedMD5 computes the quoted hex MD5 digest used as an ETag.
func quotedMD5(data []byte) string {
	sum := md5.Sum(data)
	return "\"" + hex.EncodeToString(sum[:]) + "\""
}

// dataPath returns the sharded on-disk path for id within bucket:
// <root>/<bucket>/<id[0:4]>/<id[4:6]>/<id>.
func dataPath(root, bucket, id string) string {
	return filepath.Join(root, bucket, id[0:4], id[4:6], id)
}

// sidecarPath returns the metadata sidecar path for id within bucket.
func sidecarPath(root, bucket, id string) string {
	return filepath.Join(root, bucket, sevinoMetaDir, "objects", id+".json")
}

// sidecarDir returns the directory holding every sidecar for bucket.
func sidecarDir(root, bucket string) string {
	return filepath.Join(root, bucket, sevinoMetaDir, "objects")
}

// bucketMetaPath returns the path to a bucket's own metadata file.
func bucketMetaPath(root, bucket string) string {
	return filepath.Join(root, bucket, "bucket.json")
}

// mimeBySuffix maps recognized lowercase key extensions to content types,
// used to infer a real content type when the caller only supplies the
// generic application/octet-stream.
var mimeBySuffix = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"txt":  "text/plain",
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"mp4":  "video/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
}

// resolveContentType returns contentType unchanged unless it is the
// generic default, in which case it infers one from key's suffix.
func resolveContentType(key, contentType string) string {
	if contentType != "application/octet-stream" && contentType != "" {
		return contentType
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(key)), ".")
	if mt, ok := mimeBySuffix[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// isSystemEntry reports whether a top-level bucket-directory entry name is
// reserved (dot-prefixed) and must be skipped during enumeration.
func isSystemEntry(name string) bool {
	return strings.HasPrefix(name, ".")
}

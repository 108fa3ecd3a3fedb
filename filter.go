package main

import "strings"

// matchGlob implements the small glob dialect spec.md §4.9 requires for
// etag_filter: '*' matches any run of characters (including none), '?'
// matches exactly one character. No other metacharacters are recognized.
func matchGlob(pattern, s string) bool {
	return matchGlobRunes([]rune(pattern), []rune(s))
}

func matchGlobRunes(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	switch pattern[0] {
	case '*':
		// Try consuming zero or more characters of s for this '*'.
		for i := 0; i <= len(s); i++ {
			if matchGlobRunes(pattern[1:], s[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return matchGlobRunes(pattern[1:], s[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return matchGlobRunes(pattern[1:], s[1:])
	}
}

// ListFilter carries the optional filters spec.md §4.9 defines for a
// listing request.
type ListFilter struct {
	Prefix        string
	Delimiter     string
	MaxKeys       int
	Marker        string
	ETagFilter    string
	CustomFilters map[string]string
}

// matchesCustomFilters reports whether every (name,value) pair in filters
// matches m's user metadata exactly.
func matchesCustomFilters(m *ObjectMetadata, filters map[string]string) bool {
	for name, value := range filters {
		if m.UserMetadata[name] != value {
			return false
		}
	}
	return true
}

// commonPrefixContentType is the content type reported for a rolled-up
// pseudo-directory entry under a delimiter listing.
const commonPrefixContentType = "application/x-directory"

// rollupDelimiter applies spec.md §4.9 step 5: for each surviving entry,
// if its key (after stripping prefix) contains delimiter, collapse it into
// a single pseudo-entry at the first delimiter boundary. Order of
// first-appearance determines pseudo-entry position.
func rollupDelimiter(entries []*Object, prefix, delimiter string) []*Object {
	if delimiter == "" {
		return entries
	}
	seen := make(map[string]bool)
	out := make([]*Object, 0, len(entries))
	for _, o := range entries {
		rest := strings.TrimPrefix(o.Key, prefix)
		idx := strings.Index(rest, delimiter)
		if idx < 0 {
			out = append(out, o)
			continue
		}
		cp := prefix + rest[:idx+len(delimiter)]
		if seen[cp] {
			continue
		}
		seen[cp] = true
		out = append(out, &Object{
			Key:         cp,
			Bucket:      o.Bucket,
			Size:        0,
			ContentType: commonPrefixContentType,
		})
	}
	return out
}

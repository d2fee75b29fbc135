package storage

import (
	"encoding/hex"
	"path"
	"strings"
	"unicode"

	"lukechampine.com/blake3"
)

const (
	uploadPrefix     = "uploads"
	normalizedPrefix = "normalized"
	digestPrefixLen  = 8
)

// KeyOf recovers the object key from a reference produced by s.Ref. It
// reports false for references that belong to another store.
func KeyOf(s Storage, ref string) (string, bool) {
	root := strings.TrimSuffix(s.Ref(""), "/") + "/"
	if !strings.HasPrefix(ref, root) || len(ref) == len(root) {
		return "", false
	}
	return ref[len(root):], true
}

// Hasher computes the BLAKE3-256 content digest used in upload keys.
type Hasher struct{ h *blake3.Hasher }

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher { return &Hasher{h: blake3.New(32, nil)} }

func (h *Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// Sum returns the hex digest of everything written so far.
func (h *Hasher) Sum() string { return hex.EncodeToString(h.h.Sum(nil)) }

// UploadKey builds the object key for an uploaded file:
// uploads/<digest prefix>/<id>-<sanitized name>.
func UploadKey(digest, id, filename string) string {
	prefix := digest
	if len(prefix) > digestPrefixLen {
		prefix = prefix[:digestPrefixLen]
	}
	return path.Join(uploadPrefix, prefix, id+"-"+SanitizeName(filename))
}

// NormalizedKey is where the normalized audio for a job lives. ext is the
// container extension, e.g. ".flac".
func NormalizedKey(jobID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(normalizedPrefix, jobID+ext)
}

// SanitizeName keeps the base name of filename and replaces anything outside
// letters, digits, dot, dash and underscore.
func SanitizeName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "audio"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

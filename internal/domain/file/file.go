package file

import (
	"errors"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrInvalidFilename = errors.New("invalid file name")
	ErrOwnerMissing    = errors.New("file owner does not exist")
)

type File struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	UploadedBy int64     `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
	Edited     bool      `json:"edited"`

	// Populated by listing queries that join users; empty when the uploader row is gone.
	UploaderName string `json:"-"`
}

func init() {
	// stored names keep the uploader's casing
	slug.Lowercase = false
}

// SanitizeFilename strips any directory components and reduces the name to a
// case-preserving slug plus a lower-cased alphanumeric extension,
// e.g. "../My Report.PDF" -> "My-Report.pdf".
func SanitizeFilename(raw string) (string, error) {
	name := raw
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)

	stem, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		stem, ext = name[:i], name[i+1:]
	}

	stem = slug.Make(stem)
	if stem == "" {
		return "", ErrInvalidFilename
	}

	ext = cleanExtension(ext)
	if ext == "" {
		return stem, nil
	}

	return stem + "." + ext, nil
}

// Extension returns the dotted extension of an already sanitized name, or "".
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}

func cleanExtension(ext string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(ext) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > 16 {
		out = out[:16]
	}
	return out
}

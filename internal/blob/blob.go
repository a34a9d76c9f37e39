// Package blob moves opaque payloads to and from the remote object store.
// Every driver makes a single attempt per call; failures are *TransferError.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Store interface {
	// Put stores data under a fresh random key and returns its canonical URL.
	Put(ctx context.Context, data []byte, ext, contentType string) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// maxDiagnosticBody caps how much of an upstream error body is kept.
const maxDiagnosticBody = 2048

type TransferError struct {
	Op         string // "put" or "get"
	StatusCode int    // 0 when no response was received
	Body       string
	Err        error
}

func (e *TransferError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("blob %s: upstream status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("blob %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("blob %s failed", e.Op)
	}
}

func (e *TransferError) Unwrap() error { return e.Err }

func newTransferError(op string, status int, body string, err error) *TransferError {
	if len(body) > maxDiagnosticBody {
		body = body[:maxDiagnosticBody]
	}
	return &TransferError{Op: op, StatusCode: status, Body: body, Err: err}
}

// NewKey returns a random 32-hex-char key with the given extension appended.
func NewKey(ext string) string {
	id := uuid.New()
	key := strings.ReplaceAll(id.String(), "-", "")

	ext = strings.TrimSpace(ext)
	if ext == "" {
		return key
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return key + ext
}

var errForeignURL = errors.New("url does not belong to this store")

// keyFromURL strips the store's public prefix from an object URL.
func keyFromURL(prefix, url string) (string, error) {
	prefix = strings.TrimRight(prefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", errForeignURL
	}

	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", errForeignURL
	}
	return key, nil
}

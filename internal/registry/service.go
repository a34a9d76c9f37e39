// Package registry keeps the metadata that links stored blobs to their owners.
// Authorization happens before these calls; the registry trusts its caller.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/docvault/internal/domain/file"
)

type FileStore interface {
	Create(ctx context.Context, f file.File) (file.File, error)
	Replace(ctx context.Context, id int64, filename, fileURL string) (file.File, error)
	GetByID(ctx context.Context, id int64) (file.File, error)
	ListByOwner(ctx context.Context, ownerID int64, editedOnly bool) ([]file.File, error)
	ListAll(ctx context.Context) ([]file.File, error)
}

type Service struct {
	files FileStore
}

func NewService(files FileStore) *Service {
	return &Service{files: files}
}

func (s *Service) Create(ctx context.Context, filename, blobURL string, ownerID int64) (file.File, error) {
	if err := checkRecord(filename, blobURL); err != nil {
		return file.File{}, err
	}

	return s.files.Create(ctx, file.File{
		Filename:   filename,
		FileURL:    blobURL,
		UploadedBy: ownerID,
	})
}

// Replace swaps the content pointer and marks the record edited. The flag is
// never cleared again.
func (s *Service) Replace(ctx context.Context, fileID int64, newFilename, newBlobURL string) (file.File, error) {
	if err := checkRecord(newFilename, newBlobURL); err != nil {
		return file.File{}, err
	}

	return s.files.Replace(ctx, fileID, newFilename, newBlobURL)
}

func (s *Service) Get(ctx context.Context, fileID int64) (file.File, error) {
	return s.files.GetByID(ctx, fileID)
}

// ListByOwner returns the owner's files, newest upload first.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]file.File, error) {
	return s.files.ListByOwner(ctx, ownerID, false)
}

func (s *Service) ListEditedByOwner(ctx context.Context, ownerID int64) ([]file.File, error) {
	return s.files.ListByOwner(ctx, ownerID, true)
}

func (s *Service) ListAll(ctx context.Context) ([]file.File, error) {
	return s.files.ListAll(ctx)
}

func checkRecord(filename, blobURL string) error {
	if strings.TrimSpace(filename) == "" || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: %q", file.ErrInvalidFilename, filename)
	}
	if strings.TrimSpace(blobURL) == "" {
		return fmt.Errorf("registry: empty blob url")
	}
	return nil
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/actorctx"
	"github.com/geocoder89/docvault/internal/blob"
	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/gin-gonic/gin"
)

type FileRegistry interface {
	Create(ctx context.Context, filename, blobURL string, ownerID int64) (file.File, error)
	Replace(ctx context.Context, fileID int64, newFilename, newBlobURL string) (file.File, error)
	Get(ctx context.Context, fileID int64) (file.File, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]file.File, error)
	ListEditedByOwner(ctx context.Context, ownerID int64) ([]file.File, error)
	ListAll(ctx context.Context) ([]file.File, error)
}

type FilesHandler struct {
	files FileRegistry
	blobs blob.Store
}

func NewFilesHandler(files FileRegistry, blobs blob.Store) *FilesHandler {
	return &FilesHandler{files: files, blobs: blobs}
}

const rawContentType = "application/pdf"

type upload struct {
	filename    string
	contentType string
	data        []byte
}

// readUpload pulls the "file" part out of a multipart body and writes a 400 when it is unusable.
func readUpload(ctx *gin.Context) (upload, bool) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "File is too large", nil)
			return upload{}, false
		}
		RespondBadRequest(ctx, "No file part in request (key must be 'file').", nil)
		return upload{}, false
	}

	if fh.Filename == "" {
		RespondBadRequest(ctx, "No file selected.", nil)
		return upload{}, false
	}

	name, err := file.SanitizeFilename(fh.Filename)
	if err != nil {
		RespondBadRequest(ctx, "Invalid file name.", nil)
		return upload{}, false
	}

	data, err := readPart(fh)
	if err != nil {
		RespondBadRequest(ctx, "Could not read uploaded file.", gin.H{"reason": err.Error()})
		return upload{}, false
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return upload{filename: name, contentType: contentType, data: data}, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func fileIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid file id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}
	return id, true
}

// Upload stores the blob first and only then records it, so a failed transfer
// leaves no metadata behind.
func (h *FilesHandler) Upload(ctx *gin.Context) {
	actor := actorctx.ActorFrom(ctx.Request.Context())
	if err := access.Authorize(actor, access.NoOwner, access.UploadFile); err != nil {
		respondPolicy(ctx, err, "Forbidden")
		return
	}

	up, ok := readUpload(ctx)
	if !ok {
		return
	}

	url, err := h.blobs.Put(ctx.Request.Context(), up.data, file.Extension(up.filename), up.contentType)
	if err != nil {
		RespondUpstream(ctx, "Blob upload failed.", err)
		return
	}

	saved, err := h.files.Create(ctx.Request.Context(), up.filename, url, actor.ID)
	if err != nil {
		if errors.Is(err, file.ErrOwnerMissing) {
			RespondNotFound(ctx, "User not found (invalid or missing token).")
			return
		}
		RespondInternal(ctx, "Internal server error during file upload.", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"msg":  "File uploaded successfully.",
		"file": toSavedFileView(saved),
	})
}

// ownedFile loads a file and checks op against its owner: 404 first, then 403.
func (h *FilesHandler) ownedFile(ctx *gin.Context, op access.Operation, forbiddenMsg string) (file.File, bool) {
	id, ok := fileIDParam(ctx)
	if !ok {
		return file.File{}, false
	}

	f, err := h.files.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			RespondNotFound(ctx, "File not found")
			return file.File{}, false
		}
		RespondInternal(ctx, "Could not load file", err)
		return file.File{}, false
	}

	if err := access.Authorize(actorctx.ActorFrom(ctx.Request.Context()), f.UploadedBy, op); err != nil {
		respondPolicy(ctx, err, forbiddenMsg)
		return file.File{}, false
	}

	return f, true
}

func (h *FilesHandler) Raw(ctx *gin.Context) {
	f, ok := h.ownedFile(ctx, access.ViewFileRaw, "Forbidden")
	if !ok {
		return
	}

	data, err := h.blobs.Get(ctx.Request.Context(), f.FileURL)
	if err != nil {
		RespondUpstream(ctx, "Failed to fetch PDF from storage.", err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.Filename))
	ctx.Data(http.StatusOK, rawContentType, data)
}

func (h *FilesHandler) EditPDF(ctx *gin.Context) {
	f, ok := h.ownedFile(ctx, access.EditFile, "Forbidden: cannot edit this file")
	if !ok {
		return
	}

	up, ok := readUpload(ctx)
	if !ok {
		return
	}

	url, err := h.blobs.Put(ctx.Request.Context(), up.data, file.Extension(up.filename), up.contentType)
	if err != nil {
		RespondUpstream(ctx, "Failed to upload edited PDF to blob", err)
		return
	}

	saved, err := h.files.Replace(ctx.Request.Context(), f.ID, up.filename, url)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			// deleted between load and replace
			RespondNotFound(ctx, "File not found")
			return
		}
		RespondInternal(ctx, "Internal error saving edited PDF", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"msg":  "Edited PDF saved successfully",
		"file": toSavedFileView(saved),
	})
}

// ListAll is admin-only; the route is gated by middlewares.Allow(access.ListAllFiles).
func (h *FilesHandler) ListAll(ctx *gin.Context) {
	files, err := h.files.ListAll(ctx.Request.Context())
	if err != nil {
		RespondInternal(ctx, "Internal server error retrieving files.", err)
		return
	}

	out := make([]adminFileView, 0, len(files))
	for _, f := range files {
		out = append(out, toAdminFileView(f))
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *FilesHandler) Detail(ctx *gin.Context) {
	id, ok := fileIDParam(ctx)
	if !ok {
		return
	}

	f, err := h.files.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			RespondNotFound(ctx, "File not found")
			return
		}
		RespondInternal(ctx, "Internal server error retrieving file detail.", err)
		return
	}

	ctx.JSON(http.StatusOK, toAdminFileView(f))
}

func (h *FilesHandler) ListMine(ctx *gin.Context) {
	h.listOwn(ctx, h.files.ListByOwner, "Internal server error retrieving user files.")
}

func (h *FilesHandler) ListMineEdited(ctx *gin.Context) {
	h.listOwn(ctx, h.files.ListEditedByOwner, "Internal server error retrieving edited files.")
}

func (h *FilesHandler) listOwn(ctx *gin.Context, list func(context.Context, int64) ([]file.File, error), failMsg string) {
	actor := actorctx.ActorFrom(ctx.Request.Context())
	if err := access.Authorize(actor, access.NoOwner, access.ViewOwnFiles); err != nil {
		respondPolicy(ctx, err, "Forbidden")
		return
	}

	files, err := list(ctx.Request.Context(), actor.ID)
	if err != nil {
		RespondInternal(ctx, failMsg, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, toOwnFileViews(files))
}

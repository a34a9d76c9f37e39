package handlers

import (
	"time"

	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/domain/user"
)

// Response shapes. uploaded_by means different things per endpoint: the
// uploader's name after upload/edit, the uploader's id in admin views.

type savedFileView struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	UploadedBy *string   `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
	Edited     bool      `json:"edited"`
}

type adminFileView struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	FileURL      string    `json:"file_url"`
	UploadedBy   int64     `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Edited       bool      `json:"edited"`
}

type ownFileView struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
	Edited     bool      `json:"edited"`
}

type userView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSavedFileView(f file.File) savedFileView {
	v := savedFileView{
		ID:         f.ID,
		Filename:   f.Filename,
		FileURL:    f.FileURL,
		UploadedAt: f.UploadedAt,
		Edited:     f.Edited,
	}
	if f.UploaderName != "" {
		name := f.UploaderName
		v.UploadedBy = &name
	}
	return v
}

func toAdminFileView(f file.File) adminFileView {
	name := f.UploaderName
	if name == "" {
		name = "Unknown"
	}

	return adminFileView{
		ID:           f.ID,
		Filename:     f.Filename,
		FileURL:      f.FileURL,
		UploadedBy:   f.UploadedBy,
		UploaderName: name,
		UploadedAt:   f.UploadedAt,
		Edited:       f.Edited,
	}
}

func toOwnFileViews(files []file.File) []ownFileView {
	out := make([]ownFileView, 0, len(files))
	for _, f := range files {
		out = append(out, ownFileView{
			ID:         f.ID,
			Filename:   f.Filename,
			FileURL:    f.FileURL,
			UploadedAt: f.UploadedAt,
			Edited:     f.Edited,
		})
	}
	return out
}

func toUserView(u user.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

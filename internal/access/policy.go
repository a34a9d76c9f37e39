// Package access decides whether an authenticated actor may perform an
// operation on a resource. It does no I/O.
package access

import (
	"errors"

	"github.com/geocoder89/docvault/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Operation int

const (
	ViewOwnFiles Operation = iota + 1
	UploadFile
	ViewDashboard
	ViewFileRaw
	EditFile
	ListAllFiles
	ViewFileDetail
)

func (op Operation) String() string {
	switch op {
	case ViewOwnFiles:
		return "view_own_files"
	case UploadFile:
		return "upload_file"
	case ViewDashboard:
		return "view_dashboard"
	case ViewFileRaw:
		return "view_file_raw"
	case EditFile:
		return "edit_file"
	case ListAllFiles:
		return "list_all_files"
	case ViewFileDetail:
		return "view_file_detail"
	default:
		return "unknown"
	}
}

// Actor is the identity taken from a validated access token.
type Actor struct {
	ID   int64
	Role user.Role
}

// NoOwner is passed for operations that don't target a single resource.
const NoOwner int64 = 0

// Authorize evaluates the rules in order; the first matching rule decides.
// Admins get no override on raw content: viewing or editing another user's
// file is denied even for them.
func Authorize(actor *Actor, resourceOwnerID int64, op Operation) error {
	if actor == nil || actor.ID <= 0 || !actor.Role.Valid() {
		return ErrUnauthenticated
	}

	switch op {
	case ViewOwnFiles, UploadFile, ViewDashboard:
		return nil

	case ViewFileRaw, EditFile:
		if actor.ID == resourceOwnerID {
			return nil
		}
		return ErrForbidden

	case ListAllFiles, ViewFileDetail:
		if actor.Role == user.RoleAdmin {
			return nil
		}
		return ErrForbidden

	default:
		return ErrForbidden
	}
}

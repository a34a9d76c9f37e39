package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *FilesRepo {
	return &FilesRepo{pool: pool, prom: prom}
}

func (r *FilesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const fileSelect = `
	SELECT f.id, f.filename, f.file_url, f.uploaded_by, f.uploaded_at, f.edited,
	       COALESCE(u.name, '')
	FROM files f
	LEFT JOIN users u ON u.id = f.uploaded_by`

const fileOrder = ` ORDER BY f.uploaded_at DESC, f.id DESC`

func scanFile(row pgx.Row) (file.File, error) {
	var f file.File
	err := row.Scan(
		&f.ID,
		&f.Filename,
		&f.FileURL,
		&f.UploadedBy,
		&f.UploadedAt,
		&f.Edited,
		&f.UploaderName,
	)
	return f, err
}

func (r *FilesRepo) Create(ctx context.Context, in file.File) (file.File, error) {
	var id int64

	err := r.observe("files.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO files (filename, file_url, uploaded_by)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			in.Filename, in.FileURL, in.UploadedBy,
		).Scan(&id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return file.File{}, file.ErrOwnerMissing
		}
		return file.File{}, err
	}

	return r.GetByID(ctx, id)
}

// Replace points the record at new content and sets edited; nothing clears it.
func (r *FilesRepo) Replace(ctx context.Context, id int64, filename, fileURL string) (file.File, error) {
	var tag pgconn.CommandTag

	err := r.observe("files.replace", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE files SET filename = $2, file_url = $3, edited = TRUE WHERE id = $1`,
			id, filename, fileURL)
		return err
	})
	if err != nil {
		return file.File{}, err
	}
	if tag.RowsAffected() == 0 {
		return file.File{}, file.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *FilesRepo) GetByID(ctx context.Context, id int64) (file.File, error) {
	var f file.File

	err := r.observe("files.get_by_id", func() error {
		var err error
		f, err = scanFile(r.pool.QueryRow(ctx, fileSelect+` WHERE f.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return file.File{}, file.ErrNotFound
		}
		return file.File{}, err
	}
	return f, nil
}

func (r *FilesRepo) ListByOwner(ctx context.Context, ownerID int64, editedOnly bool) ([]file.File, error) {
	query := fileSelect + ` WHERE f.uploaded_by = $1`
	if editedOnly {
		query += ` AND f.edited`
	}

	op := "files.list_by_owner"
	if editedOnly {
		op = "files.list_edited_by_owner"
	}

	return r.list(ctx, op, query+fileOrder, ownerID)
}

func (r *FilesRepo) ListAll(ctx context.Context) ([]file.File, error) {
	return r.list(ctx, "files.list_all", fileSelect+fileOrder)
}

func (r *FilesRepo) list(ctx context.Context, op, query string, args ...any) ([]file.File, error) {
	out := make([]file.File, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			f, err := scanFile(rows)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

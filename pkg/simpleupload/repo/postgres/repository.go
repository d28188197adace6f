package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// fileColumns is the column list for every SELECT against files.
const fileColumns = `id, stored_name, original_filename, mime_type, category,
	size_bytes, content_hash, uploaded_at, text_content`

// Repository implements simpleupload.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors onto domain errors
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "content_hash") {
				return simpleupload.ErrDuplicateContent
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateFile(ctx context.Context, record *simpleupload.FileRecord) error {
	query := `
		INSERT INTO files (
			id, stored_name, original_filename, mime_type, category,
			size_bytes, content_hash, uploaded_at, text_content
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.StoredName, record.OriginalFilename, record.MimeType,
		record.Category, record.SizeBytes, record.ContentHash, record.UploadedAt,
		record.TextContent)

	if err != nil {
		return r.handlePostgresError("create file", err)
	}

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID) (*simpleupload.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetFileByHash(ctx context.Context, contentHash string) (*simpleupload.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE content_hash = $1 ORDER BY uploaded_at ASC LIMIT 1`, fileColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, contentHash))
}

func (r *Repository) GetFileByStoredName(ctx context.Context, storedName string) (*simpleupload.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE stored_name = $1`, fileColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, storedName))
}

func (r *Repository) UpdateStoredName(ctx context.Context, id uuid.UUID, storedName string) error {
	tag, err := r.db.Exec(ctx, `UPDATE files SET stored_name = $2 WHERE id = $1`, id, storedName)
	if err != nil {
		return r.handlePostgresError("update stored name", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleupload.ErrFileNotFound
	}
	return nil
}

func (r *Repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete file", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleupload.ErrFileNotFound
	}
	return nil
}

func (r *Repository) SearchFiles(ctx context.Context, filter simpleupload.SearchFilter, now time.Time) ([]*simpleupload.FileRecord, error) {
	where, args := buildSearchWhere(filter, now)

	query := fmt.Sprintf(
		`SELECT %s FROM files %s ORDER BY uploaded_at DESC, id DESC`,
		fileColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("search files", err)
	}
	defer rows.Close()

	result := []*simpleupload.FileRecord{}
	for rows.Next() {
		record, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("search files", err)
	}

	return result, nil
}

func (r *Repository) scanOne(row pgx.Row) (*simpleupload.FileRecord, error) {
	var record simpleupload.FileRecord
	err := row.Scan(
		&record.ID, &record.StoredName, &record.OriginalFilename, &record.MimeType,
		&record.Category, &record.SizeBytes, &record.ContentHash, &record.UploadedAt,
		&record.TextContent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleupload.ErrFileNotFound
		}
		return nil, err
	}
	return &record, nil
}

// buildSearchWhere translates the normalized filter into a WHERE clause with
// numbered arguments. The generated predicates must agree with
// SearchFilter.Matches, which the memory repository uses.
func buildSearchWhere(filter simpleupload.SearchFilter, now time.Time) (string, []interface{}) {
	var conds []string
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		pattern := "%" + escapeLike(filter.Query) + "%"
		if filter.Scope == simpleupload.ScopeContent {
			conds = append(conds, fmt.Sprintf("text_content ILIKE %s", next(pattern)))
		} else {
			p := next(pattern)
			conds = append(conds, fmt.Sprintf("(original_filename ILIKE %s OR mime_type ILIKE %s)", p, p))
		}
	}

	if filter.Category != "" {
		conds = append(conds, categoryCondition(filter.Category, next))
	}

	if filter.DateBucket != "" {
		conds = append(conds, fmt.Sprintf("uploaded_at >= %s", next(filter.DateBucket.DateFloor(now))))
	}
	if filter.DateFrom != nil {
		conds = append(conds, fmt.Sprintf("uploaded_at >= %s", next(*filter.DateFrom)))
	}
	if filter.DateTo != nil {
		conds = append(conds, fmt.Sprintf("uploaded_at <= %s", next(*filter.DateTo)))
	}

	if filter.SizeBucket != "" {
		min, max := filter.SizeBucket.SizeRange()
		if min > 0 {
			conds = append(conds, fmt.Sprintf("size_bytes >= %s", next(min)))
		}
		if max > 0 {
			conds = append(conds, fmt.Sprintf("size_bytes < %s", next(max)))
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// categoryCondition builds the MIME-set membership predicate for one
// category. The filter works off mime_type, not the stored category column,
// so records classified under older rule sets still match.
func categoryCondition(category simpleupload.Category, next func(interface{}) string) string {
	set := simpleupload.MimeTypeSet(category)

	var parts []string
	for _, prefix := range set.Prefixes {
		parts = append(parts, fmt.Sprintf("LOWER(mime_type) LIKE %s", next(prefix+"%")))
	}
	if len(set.Exact) > 0 {
		parts = append(parts, fmt.Sprintf("LOWER(mime_type) = ANY(%s)", next(set.Exact)))
	}

	cond := "(" + strings.Join(parts, " OR ") + ")"
	if len(set.Excluded) > 0 {
		cond = fmt.Sprintf("(%s AND NOT (LOWER(mime_type) = ANY(%s)))", cond, next(set.Excluded))
	}
	if set.Negated {
		cond = "NOT " + cond
	}
	return cond
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

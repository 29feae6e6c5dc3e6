package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storeit/internal/model"
	"storeit/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

// sortColumns whitelists the ORDER BY expressions accepted from the filter.
var sortColumns = map[string]string{
	"":                "f.created_at DESC",
	"created_at":      "f.created_at ASC",
	"created_at-desc": "f.created_at DESC",
	"name":            "f.name ASC",
	"name-desc":       "f.name DESC",
	"size":            "f.size ASC",
	"size-desc":       "f.size DESC",
}

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, file *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, name, extension, category, size, owner_id, bucket_file_id, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, name, extension, category, size, owner_id, bucket_file_id, content_type, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		file.ID,
		file.Name,
		file.Extension,
		file.Category,
		file.Size,
		file.OwnerID,
		file.BucketFileID,
		file.ContentType,
		file.CreatedAt,
	)
	var out model.File
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Extension,
		&out.Category,
		&out.Size,
		&out.OwnerID,
		&out.BucketFileID,
		&out.ContentType,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.SharedWith = []string{}
	return &out, nil
}

// FindByID fetches a single file by its ID, including its share list.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `
		SELECT f.id, f.name, f.extension, f.category, f.size, f.owner_id, f.bucket_file_id,
		       f.content_type, f.created_at, f.updated_at,
		       COALESCE(string_agg(fs.email, ',' ORDER BY fs.email), '')
		FROM files f
		LEFT JOIN file_shares fs ON fs.file_id = f.id
		WHERE f.id = $1
		GROUP BY f.id
	`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanFile(row.Scan)
}

// List returns files visible to the caller using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) List(ctx context.Context, f repository.FileFilter) (*repository.PageResult[model.File], error) {
	where, args := buildFileWhere(f)

	qCount := `SELECT COUNT(*) FROM files f ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	order, ok := sortColumns[f.Sort]
	if !ok {
		order = sortColumns[""]
	}

	qList := fmt.Sprintf(`
		SELECT f.id, f.name, f.extension, f.category, f.size, f.owner_id, f.bucket_file_id,
		       f.content_type, f.created_at, f.updated_at,
		       COALESCE(string_agg(fs.email, ',' ORDER BY fs.email), '')
		FROM files f
		LEFT JOIN file_shares fs ON fs.file_id = f.id
		%s
		GROUP BY f.id
		ORDER BY %s, f.id DESC
		LIMIT $%d OFFSET $%d
	`, where, order, len(args)+1, len(args)+2)
	args = append(args, f.Page.Limit, f.Page.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.File]{
		Items: items,
		Total: total,
	}, nil
}

// Rename updates the display name of a file.
func (r *FilePostgres) Rename(ctx context.Context, id, name string) error {
	const q = `UPDATE files SET name = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceShares overwrites the share list of a file inside one transaction.
func (r *FilePostgres) ReplaceShares(ctx context.Context, fileID string, emails []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_shares WHERE file_id = $1`, fileID); err != nil {
		return err
	}
	const qInsert = `
		INSERT INTO file_shares (file_id, email)
		VALUES ($1, $2)
		ON CONFLICT (file_id, email) DO NOTHING
	`
	for _, email := range emails {
		if _, err := tx.ExecContext(ctx, qInsert, fileID, email); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE files SET updated_at = now() WHERE id = $1`, fileID); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a file row by ID; file_shares rows cascade.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// UsageByCategory sums stored bytes per category for one owner.
func (r *FilePostgres) UsageByCategory(ctx context.Context, ownerID string) ([]repository.CategoryUsage, error) {
	const q = `
		SELECT category, COALESCE(SUM(size), 0), COUNT(*)
		FROM files
		WHERE owner_id = $1
		GROUP BY category
		ORDER BY category
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make([]repository.CategoryUsage, 0)
	for rows.Next() {
		var u repository.CategoryUsage
		if err := rows.Scan(&u.Category, &u.TotalBytes, &u.Count); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return usage, nil
}

// buildFileWhere assembles the visibility and filter predicates for List.
func buildFileWhere(f repository.FileFilter) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if f.OwnerID != "" || f.Email != "" {
		args = append(args, f.OwnerID, f.Email)
		clauses = append(clauses, fmt.Sprintf(
			`(f.owner_id = $%d OR EXISTS (SELECT 1 FROM file_shares s WHERE s.file_id = f.id AND s.email = $%d))`,
			len(args)-1, len(args)))
	}
	if len(f.Categories) > 0 {
		ph := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			args = append(args, c)
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, fmt.Sprintf("f.category IN (%s)", strings.Join(ph, ", ")))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clauses = append(clauses, fmt.Sprintf("f.name ILIKE $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanFile(scan func(dest ...any) error) (*model.File, error) {
	var f model.File
	var shared string
	if err := scan(
		&f.ID,
		&f.Name,
		&f.Extension,
		&f.Category,
		&f.Size,
		&f.OwnerID,
		&f.BucketFileID,
		&f.ContentType,
		&f.CreatedAt,
		&f.UpdatedAt,
		&shared,
	); err != nil {
		return nil, err
	}
	if shared == "" {
		f.SharedWith = []string{}
	} else {
		f.SharedWith = strings.Split(shared, ",")
	}
	return &f, nil
}

package repository

import (
	"context"

	"storeit/internal/model"
)

// FileFilter narrows a file listing to what the caller may see and what they
// asked for. OwnerID/Email identify the caller: a file is visible when the
// caller owns it or its email appears in the share list.
type FileFilter struct {
	OwnerID    string
	Email      string
	Categories []string
	Search     string
	Sort       string
	Page       PageQuery
}

// CategoryUsage is one row of the per-category storage summary.
type CategoryUsage struct {
	Category   string `json:"type"`
	TotalBytes int64  `json:"size"`
	Count      int    `json:"count"`
}

// FileRepository defines data access for file metadata using SQL queries only.
// No business logic here — strictly persistence operations.
type FileRepository interface {
	// Create inserts a new file row and returns the stored record.
	Create(ctx context.Context, file *model.File) (*model.File, error)

	// FindByID returns a file by its ID including the share list, or
	// sql.ErrNoRows if none exists.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// List returns files visible to the caller per the filter, with a total count.
	List(ctx context.Context, f FileFilter) (*PageResult[model.File], error)

	// Rename updates the display name of a file and bumps updated_at.
	Rename(ctx context.Context, id, name string) error

	// ReplaceShares overwrites the full share list of a file in one
	// transaction. An empty slice removes all access.
	ReplaceShares(ctx context.Context, fileID string, emails []string) error

	// Delete removes a file row by ID; shares cascade. It returns nil if the
	// row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// UsageByCategory sums stored bytes per category for one owner.
	UsageByCategory(ctx context.Context, ownerID string) ([]CategoryUsage, error)
}

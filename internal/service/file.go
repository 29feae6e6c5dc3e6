package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"storeit/internal/cache"
	"storeit/internal/model"
	"storeit/internal/repository"
	"storeit/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNameRequired = errors.New("name is required")
	ErrNotFound     = errors.New("file not found")
	ErrForbidden    = errors.New("not the file owner")
	ErrReaderNil    = errors.New("reader is nil")
)

const (
	// StorageCapacity is the per-user quota reported in the space summary.
	StorageCapacity = 2 * 1024 * 1024 * 1024

	downloadExpiry = 15 * time.Minute
	viewTTL        = time.Minute
)

// FileListQuery carries the listing parameters from the HTTP layer.
// Path is the revalidation token naming the view being rendered.
type FileListQuery struct {
	Categories []string
	Search     string
	Sort       string
	Limit      int
	Offset     int
	Path       string
}

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []model.File `json:"data"`
	Total int          `json:"total"`
}

// SpaceSummary reports per-category storage usage against the quota.
type SpaceSummary struct {
	Used       int64                      `json:"used"`
	Capacity   int64                      `json:"capacity"`
	Categories []repository.CategoryUsage `json:"categories"`
}

// FileService defines the use cases for handling files. Every mutating
// operation takes a revalidation path: an opaque token naming the cached view
// that must be dropped once the mutation is applied.
type FileService interface {
	// Upload stores the content in object storage, saves metadata to the DB,
	// and rolls back storage if the DB save fails.
	Upload(ctx context.Context, owner *model.User, r io.Reader, originalFilename, contentType string, size int64, path string) (*model.File, error)

	// List returns files owned by or shared with the principal. Default
	// listings are served from the view cache when possible.
	List(ctx context.Context, principal *model.User, q FileListQuery) (*FileListResult, error)

	// Rename updates a file's display name; the extension is reappended.
	Rename(ctx context.Context, principal *model.User, fileID, newName, extension, path string) error

	// UpdateFileUsers replaces the file's full share list with the supplied
	// set of emails. Not a merge: an empty slice revokes all access.
	UpdateFileUsers(ctx context.Context, principal *model.User, fileID string, emails []string, path string) error

	// Delete removes the metadata record first, then the stored bytes. The
	// operation reports success only if both steps succeed; a storage failure
	// after the record is gone leaves the object for lazy garbage collection.
	Delete(ctx context.Context, principal *model.User, fileID, bucketFileID, path string) error

	// DownloadURL returns a time-limited URL for the file's bytes.
	DownloadURL(ctx context.Context, principal *model.User, fileID string) (string, error)

	// TotalSpace sums the principal's stored bytes per category.
	TotalSpace(ctx context.Context, principal *model.User) (*SpaceSummary, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store storage.Storage
	repo  repository.FileRepository
	views cache.Store
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository, views cache.Store) FileService {
	return &fileService{store: store, repo: repo, views: views}
}

func (s *fileService) Upload(ctx context.Context, owner *model.User, r io.Reader, originalFilename, contentType string, size int64, path string) (*model.File, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	name, ext := model.SplitFilename(originalFilename)
	if name == "" {
		return nil, ErrNameRequired
	}

	bucketFileID := filepath.ToSlash(filepath.Join("files", uuid.New().String()+dotted(ext)))

	objInfo, err := s.store.Put(ctx, bucketFileID, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		Name:         originalFilename,
		Extension:    ext,
		Category:     model.CategoryForExtension(ext),
		Size:         objInfo.Size,
		OwnerID:      owner.ID,
		BucketFileID: bucketFileID,
		ContentType:  contentType,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, file)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, bucketFileID); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.revalidate(ctx, path, owner.ID)
	return stored, nil
}

func (s *fileService) List(ctx context.Context, principal *model.User, q FileListQuery) (*FileListResult, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	cacheable := q.Path != "" && q.Search == "" && q.Sort == "" && q.Offset == 0
	key := viewKey(q.Path, principal.ID)
	if cacheable {
		if raw, err := s.views.Get(ctx, key); err == nil {
			var cached FileListResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	res, err := s.repo.List(ctx, repository.FileFilter{
		OwnerID:    principal.ID,
		Email:      principal.Email,
		Categories: q.Categories,
		Search:     q.Search,
		Sort:       q.Sort,
		Page:       repository.PageQuery{Limit: q.Limit, Offset: q.Offset},
	})
	if err != nil {
		return nil, err
	}

	result := &FileListResult{Items: res.Items, Total: res.Total}
	if cacheable {
		if raw, err := json.Marshal(result); err == nil {
			// Cache population is best effort; the short TTL bounds staleness
			// for viewers whose key was not invalidated by a mutation.
			_ = s.views.Set(ctx, key, raw, viewTTL)
		}
	}
	return result, nil
}

func (s *fileService) Rename(ctx context.Context, principal *model.User, fileID, newName, extension, path string) error {
	if newName == "" {
		return ErrNameRequired
	}
	file, err := s.ownedFile(ctx, principal, fileID)
	if err != nil {
		return err
	}

	if extension == "" {
		extension = file.Extension
	}
	if err := s.repo.Rename(ctx, file.ID, newName+dotted(extension)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	s.revalidate(ctx, path, principal.ID)
	return nil
}

func (s *fileService) UpdateFileUsers(ctx context.Context, principal *model.User, fileID string, emails []string, path string) error {
	file, err := s.ownedFile(ctx, principal, fileID)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceShares(ctx, file.ID, emails); err != nil {
		return err
	}

	s.revalidate(ctx, path, principal.ID)
	return nil
}

func (s *fileService) Delete(ctx context.Context, principal *model.User, fileID, bucketFileID, path string) error {
	file, err := s.ownedFile(ctx, principal, fileID)
	if err != nil {
		return err
	}
	if bucketFileID != "" && bucketFileID != file.BucketFileID {
		// Stale client state: the record no longer points at that object.
		return ErrNotFound
	}

	// Metadata first. If this fails, nothing has been touched. If the storage
	// delete afterwards fails, the orphaned object is unreachable (no record
	// points at it) and is left for lazy garbage collection, but the caller
	// still sees a failure.
	if err := s.repo.Delete(ctx, file.ID); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	if err := s.store.Delete(ctx, file.BucketFileID); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}

	s.revalidate(ctx, path, principal.ID)
	return nil
}

func (s *fileService) DownloadURL(ctx context.Context, principal *model.User, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrIDRequired
	}
	file, err := s.repo.FindByID(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !canRead(principal, file) {
		return "", ErrForbidden
	}
	return s.store.PresignGet(ctx, file.BucketFileID, downloadExpiry)
}

func (s *fileService) TotalSpace(ctx context.Context, principal *model.User) (*SpaceSummary, error) {
	usage, err := s.repo.UsageByCategory(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	summary := &SpaceSummary{Capacity: StorageCapacity, Categories: usage}
	for _, u := range usage {
		summary.Used += u.TotalBytes
	}
	return summary, nil
}

// ownedFile loads a file and checks that the principal owns it. Rename, share
// and delete are owner-only operations.
func (s *fileService) ownedFile(ctx context.Context, principal *model.User, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	file, err := s.repo.FindByID(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if file.OwnerID != principal.ID {
		return nil, ErrForbidden
	}
	return file, nil
}

// revalidate drops the cached view for the given path. The mutation has
// already been applied remotely, so invalidation failures must not fail the
// operation; the view TTL bounds the staleness window.
func (s *fileService) revalidate(ctx context.Context, path, principalID string) {
	if path == "" {
		return
	}
	_ = s.views.Del(ctx, viewKey(path, principalID))
}

func canRead(principal *model.User, file *model.File) bool {
	if file.OwnerID == principal.ID {
		return true
	}
	for _, email := range file.SharedWith {
		if email == principal.Email {
			return true
		}
	}
	return false
}

func viewKey(path, principalID string) string {
	return "view:" + path + ":" + principalID
}

func dotted(ext string) string {
	if ext == "" {
		return ""
	}
	return "." + ext
}

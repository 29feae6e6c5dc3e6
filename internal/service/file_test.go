package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storeit/internal/cache"
	cacheMocks "storeit/internal/cache/mocks"
	"storeit/internal/model"
	"storeit/internal/repository"
	repoMocks "storeit/internal/repository/mocks"
	"storeit/internal/storage"
	storeMocks "storeit/internal/storage/mocks"
)

var owner = &model.User{ID: "user-1", Email: "alice@example.com"}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		contentType      string
		size             int64
		setupMocks       func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader
		wantErr          error
		wantErrMsg       string
	}{
		{
			name:             "happy path",
			originalFilename: "report.pdf",
			contentType:      "application/pdf",
			size:             11,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				r := strings.NewReader("hello world")
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "files/") && strings.HasSuffix(key, ".pdf")
				}), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "report.pdf"},
				}).Return(storage.ObjectInfo{
					Key:         "files/uuid.pdf",
					Size:        11,
					ContentType: "application/pdf",
				}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(f *model.File) bool {
					return f.Name == "report.pdf" &&
						f.Extension == "pdf" &&
						f.Category == model.CategoryDocument &&
						f.OwnerID == owner.ID
				})).Return(&model.File{ID: "gen-id"}, nil)

				mViews.On("Del", ctx, "view:/dashboard:user-1").Return(nil)
				return r
			},
		},
		{
			name:             "validation - nil reader",
			originalFilename: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:             "validation - empty filename",
			originalFilename: "",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrNameRequired,
		},
		{
			name:             "storage error",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return r
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:             "repository error with successful rollback",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return r
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:             "repository error with failed rollback",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockFileRepository)
			mViews := new(cacheMocks.MockStore)
			svc := NewFileService(mStore, mRepo, mViews)

			r := tt.setupMocks(mStore, mRepo, mViews)

			file, err := svc.Upload(ctx, owner, r, tt.originalFilename, tt.contentType, tt.size, "/dashboard")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, file)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mViews.AssertExpectations(t)
		})
	}
}

func TestFileService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss populates the view cache", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		mViews := new(cacheMocks.MockStore)
		svc := NewFileService(nil, mRepo, mViews)

		mViews.On("Get", ctx, "view:/documents:user-1").Return(nil, cache.ErrMiss)
		mRepo.On("List", ctx, repository.FileFilter{
			OwnerID:    owner.ID,
			Email:      owner.Email,
			Categories: []string{"document"},
			Page:       repository.PageQuery{Limit: 10, Offset: 0},
		}).Return(&repository.PageResult[model.File]{
			Items: []model.File{{ID: "f1"}, {ID: "f2"}},
			Total: 2,
		}, nil)
		mViews.On("Set", ctx, "view:/documents:user-1", mock.Anything, time.Minute).Return(nil)

		res, err := svc.List(ctx, owner, FileListQuery{
			Categories: []string{"document"},
			Path:       "/documents",
		})

		require.NoError(t, err)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, 2, res.Total)
		mRepo.AssertExpectations(t)
		mViews.AssertExpectations(t)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		mViews := new(cacheMocks.MockStore)
		svc := NewFileService(nil, mRepo, mViews)

		cached, _ := json.Marshal(&FileListResult{Items: []model.File{{ID: "f1"}}, Total: 1})
		mViews.On("Get", ctx, "view:/documents:user-1").Return(cached, nil)

		res, err := svc.List(ctx, owner, FileListQuery{Path: "/documents"})

		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
		mRepo.AssertNotCalled(t, "List")
		mViews.AssertExpectations(t)
	})

	t.Run("search queries bypass the cache", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		mViews := new(cacheMocks.MockStore)
		svc := NewFileService(nil, mRepo, mViews)

		mRepo.On("List", ctx, mock.MatchedBy(func(f repository.FileFilter) bool {
			return f.Search == "tax"
		})).Return(&repository.PageResult[model.File]{Items: []model.File{}, Total: 0}, nil)

		_, err := svc.List(ctx, owner, FileListQuery{Path: "/documents", Search: "tax"})

		require.NoError(t, err)
		mViews.AssertNotCalled(t, "Get")
		mViews.AssertNotCalled(t, "Set")
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		mViews := new(cacheMocks.MockStore)
		svc := NewFileService(nil, mRepo, mViews)

		mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.List(ctx, owner, FileListQuery{Search: "x"})
		assert.Error(t, err)
	})
}

func TestFileService_Rename(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		fileID     string
		newName    string
		extension  string
		setupMocks func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore)
		wantErr    error
	}{
		{
			name:      "happy path keeps the stored extension",
			fileID:    "f1",
			newName:   "renamed",
			extension: "",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, Extension: "pdf"}, nil)
				mRepo.On("Rename", ctx, "f1", "renamed.pdf").Return(nil)
				mViews.On("Del", ctx, "view:/documents:user-1").Return(nil)
			},
		},
		{
			name:      "explicit extension wins",
			fileID:    "f1",
			newName:   "renamed",
			extension: "txt",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, Extension: "pdf"}, nil)
				mRepo.On("Rename", ctx, "f1", "renamed.txt").Return(nil)
				mViews.On("Del", ctx, "view:/documents:user-1").Return(nil)
			},
		},
		{
			name:       "validation - empty name",
			fileID:     "f1",
			newName:    "",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {},
			wantErr:    ErrNameRequired,
		},
		{
			name:       "validation - empty id",
			fileID:     "",
			newName:    "renamed",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:    "not the owner",
			fileID:  "f1",
			newName: "renamed",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: "someone-else"}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:    "not found",
			fileID:  "missing",
			newName: "renamed",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:    "row vanished between read and update",
			fileID:  "f1",
			newName: "renamed",
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, Extension: "pdf"}, nil)
				mRepo.On("Rename", ctx, "f1", "renamed.pdf").Return(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockFileRepository)
			mViews := new(cacheMocks.MockStore)
			svc := NewFileService(nil, mRepo, mViews)

			tt.setupMocks(mRepo, mViews)

			err := svc.Rename(ctx, owner, tt.fileID, tt.newName, tt.extension, "/documents")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			mRepo.AssertExpectations(t)
			mViews.AssertExpectations(t)
		})
	}
}

func TestFileService_UpdateFileUsers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		emails     []string
		setupMocks func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore)
		wantErr    error
	}{
		{
			name:   "happy path replaces the whole list",
			emails: []string{"bob@example.com", "carol@example.com"},
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID}, nil)
				mRepo.On("ReplaceShares", ctx, "f1", []string{"bob@example.com", "carol@example.com"}).Return(nil)
				mViews.On("Del", ctx, "view:/shared:user-1").Return(nil)
			},
		},
		{
			name:   "empty list revokes all access",
			emails: []string{},
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID}, nil)
				mRepo.On("ReplaceShares", ctx, "f1", []string{}).Return(nil)
				mViews.On("Del", ctx, "view:/shared:user-1").Return(nil)
			},
		},
		{
			name:   "not the owner",
			emails: []string{"bob@example.com"},
			setupMocks: func(mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: "someone-else"}, nil)
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockFileRepository)
			mViews := new(cacheMocks.MockStore)
			svc := NewFileService(nil, mRepo, mViews)

			tt.setupMocks(mRepo, mViews)

			err := svc.UpdateFileUsers(ctx, owner, "f1", tt.emails, "/shared")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			mRepo.AssertExpectations(t)
			mViews.AssertExpectations(t)
		})
	}
}

func TestFileService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		fileID       string
		bucketFileID string
		setupMocks   func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore)
		wantErr      error
		wantErrMsg   string
	}{
		{
			name:         "happy path deletes metadata before storage",
			fileID:       "f1",
			bucketFileID: "files/obj.pdf",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf"}, nil)
				mRepo.On("Delete", ctx, "f1").Return(nil)
				mStore.On("Delete", ctx, "files/obj.pdf").Return(nil)
				mViews.On("Del", ctx, "view:/dashboard:user-1").Return(nil)
			},
		},
		{
			name:         "stale bucket file id",
			fileID:       "f1",
			bucketFileID: "files/old.pdf",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf"}, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name:   "metadata delete failure leaves storage untouched",
			fileID: "f1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf"}, nil)
				mRepo.On("Delete", ctx, "f1").Return(errors.New("db fail"))
			},
			wantErrMsg: "delete metadata: db fail",
		},
		{
			name:   "storage delete failure still surfaces",
			fileID: "f1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf"}, nil)
				mRepo.On("Delete", ctx, "f1").Return(nil)
				mStore.On("Delete", ctx, "files/obj.pdf").Return(errors.New("storage fail"))
			},
			wantErrMsg: "delete storage: storage fail",
		},
		{
			name:   "not the owner",
			fileID: "f1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository, mViews *cacheMocks.MockStore) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: "someone-else"}, nil)
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockFileRepository)
			mViews := new(cacheMocks.MockStore)
			svc := NewFileService(mStore, mRepo, mViews)

			tt.setupMocks(mStore, mRepo, mViews)

			err := svc.Delete(ctx, owner, tt.fileID, tt.bucketFileID, "/dashboard")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mViews.AssertExpectations(t)
		})
	}
}

func TestFileService_DownloadURL(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		principal  *model.User
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository)
		wantErr    error
		wantURL    string
	}{
		{
			name:      "owner can download",
			principal: owner,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf"}, nil)
				mStore.On("PresignGet", ctx, "files/obj.pdf", downloadExpiry).
					Return("https://minio/presigned", nil)
			},
			wantURL: "https://minio/presigned",
		},
		{
			name:      "shared user can download",
			principal: &model.User{ID: "user-2", Email: "bob@example.com"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{
						ID: "f1", OwnerID: owner.ID, BucketFileID: "files/obj.pdf",
						SharedWith: []string{"bob@example.com"},
					}, nil)
				mStore.On("PresignGet", ctx, "files/obj.pdf", downloadExpiry).
					Return("https://minio/presigned", nil)
			},
			wantURL: "https://minio/presigned",
		},
		{
			name:      "stranger is rejected",
			principal: &model.User{ID: "user-3", Email: "eve@example.com"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByID", ctx, "f1").
					Return(&model.File{ID: "f1", OwnerID: owner.ID, SharedWith: []string{"bob@example.com"}}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:      "not found",
			principal: owner,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByID", ctx, "f1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockFileRepository)
			svc := NewFileService(mStore, mRepo, nil)

			tt.setupMocks(mStore, mRepo)

			url, err := svc.DownloadURL(ctx, tt.principal, "f1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantURL, url)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestFileService_TotalSpace(t *testing.T) {
	ctx := context.Background()

	t.Run("sums usage across categories", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		svc := NewFileService(nil, mRepo, nil)

		mRepo.On("UsageByCategory", ctx, owner.ID).Return([]repository.CategoryUsage{
			{Category: "document", TotalBytes: 100, Count: 2},
			{Category: "image", TotalBytes: 50, Count: 1},
		}, nil)

		summary, err := svc.TotalSpace(ctx, owner)

		require.NoError(t, err)
		assert.Equal(t, int64(150), summary.Used)
		assert.Equal(t, int64(StorageCapacity), summary.Capacity)
		assert.Len(t, summary.Categories, 2)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockFileRepository)
		svc := NewFileService(nil, mRepo, nil)

		mRepo.On("UsageByCategory", ctx, owner.ID).Return(nil, errors.New("db fail"))

		_, err := svc.TotalSpace(ctx, owner)
		assert.Error(t, err)
	})
}

package mocks

import (
	"context"
	"io"

	"storeit/internal/model"
	"storeit/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, owner *model.User, r io.Reader, originalFilename, contentType string, size int64, path string) (*model.File, error) {
	args := m.Called(ctx, owner, r, originalFilename, contentType, size, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, principal *model.User, q service.FileListQuery) (*service.FileListResult, error) {
	args := m.Called(ctx, principal, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Rename(ctx context.Context, principal *model.User, fileID, newName, extension, path string) error {
	args := m.Called(ctx, principal, fileID, newName, extension, path)
	return args.Error(0)
}

func (m *MockFileService) UpdateFileUsers(ctx context.Context, principal *model.User, fileID string, emails []string, path string) error {
	args := m.Called(ctx, principal, fileID, emails, path)
	return args.Error(0)
}

func (m *MockFileService) Delete(ctx context.Context, principal *model.User, fileID, bucketFileID, path string) error {
	args := m.Called(ctx, principal, fileID, bucketFileID, path)
	return args.Error(0)
}

func (m *MockFileService) DownloadURL(ctx context.Context, principal *model.User, fileID string) (string, error) {
	args := m.Called(ctx, principal, fileID)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) TotalSpace(ctx context.Context, principal *model.User) (*service.SpaceSummary, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SpaceSummary), args.Error(1)
}

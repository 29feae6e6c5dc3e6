package mocks

import (
	"context"

	"storeit/internal/model"
	"storeit/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) SendEmailOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityService) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	args := m.Called(ctx, fullName, email)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityService) SignIn(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityService) VerifySecret(ctx context.Context, accountID, passcode string) (*service.SessionToken, error) {
	args := m.Called(ctx, accountID, passcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionToken), args.Error(1)
}

func (m *MockIdentityService) CurrentUser(ctx context.Context, secret string) (*model.User, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockIdentityService) SignOut(ctx context.Context, secret string) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

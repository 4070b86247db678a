package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetFiling(ctx context.Context, sbu, year string) (*types.Filing, error) {
	args := m.Called(ctx, sbu, year)
	val := args.Get(0)
	if val == nil {
		return nil, args.Error(1)
	}
	return val.(*types.Filing), args.Error(1)
}

func (m *MockDatabase) SetFiling(ctx context.Context, filing *types.Filing) error {
	args := m.Called(ctx, filing)
	return args.Error(0)
}

func (m *MockDatabase) SetFindings(ctx context.Context, sbu, year string, findings []types.Finding) error {
	args := m.Called(ctx, sbu, year, findings)
	return args.Error(0)
}

func (m *MockDatabase) GetFindings(ctx context.Context, sbu, year string) ([]types.Finding, error) {
	args := m.Called(ctx, sbu, year)
	if len(args) > 0 {
		return args.Get(0).([]types.Finding), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetFinding(ctx context.Context, sbu, year, checkID string) (types.Finding, error) {
	args := m.Called(ctx, sbu, year, checkID)
	if len(args) > 0 {
		return args.Get(0).(types.Finding), args.Error(1)
	}
	return types.Finding{}, nil
}

func (m *MockDatabase) SetFinding(ctx context.Context, finding types.Finding) error {
	args := m.Called(ctx, finding)
	return args.Error(0)
}

func (m *MockDatabase) InsertReview(ctx context.Context, action types.ReviewAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockDatabase) GetReviews(ctx context.Context, sbu, year, checkID string) ([]types.ReviewAction, error) {
	args := m.Called(ctx, sbu, year, checkID)
	if len(args) > 0 {
		return args.Get(0).([]types.ReviewAction), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetSettings(ctx context.Context) (types.Settings, int, error) {
	args := m.Called(ctx)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.Settings), args.Int(1), args.Error(2)
	}
	return types.Settings{}, 0, nil
}

func (m *MockDatabase) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	args := m.Called(ctx, settings, version)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}

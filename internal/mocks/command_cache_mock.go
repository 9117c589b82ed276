package mocks

import (
	"context"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCommandCache is a mock type for the commands.CommandCache type
type MockCommandCache struct {
	mock.Mock
}

// Load provides a mock function with given fields: ctx, raw, sceneKey
func (_m *MockCommandCache) Load(ctx context.Context, raw string, sceneKey string) (*models.CachedCommand, error) {
	ret := _m.Called(ctx, raw, sceneKey)

	var r0 *models.CachedCommand
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *models.CachedCommand); ok {
		r0 = rf(ctx, raw, sceneKey)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.CachedCommand)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, raw, sceneKey)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Store provides a mock function with given fields: ctx, raw, sceneKey, cmds
func (_m *MockCommandCache) Store(ctx context.Context, raw string, sceneKey string, cmds models.Commands) error {
	ret := _m.Called(ctx, raw, sceneKey, cmds)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, models.Commands) error); ok {
		r0 = rf(ctx, raw, sceneKey, cmds)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockCommandCache creates a new instance of MockCommandCache. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCommandCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommandCache {
	m := &MockCommandCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ commands.CommandCache = (*MockCommandCache)(nil)

package mocks

import (
	"context"

	"narrative-engine/internal/commands"

	"github.com/stretchr/testify/mock"
)

// MockWorldChecker is a mock type for the commands.WorldChecker type
type MockWorldChecker struct {
	mock.Mock
}

// EntityExists provides a mock function with given fields: ctx, sceneKey, entityKey
func (_m *MockWorldChecker) EntityExists(ctx context.Context, sceneKey string, entityKey string) (bool, error) {
	ret := _m.Called(ctx, sceneKey, entityKey)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string, string) bool); ok {
		r0 = rf(ctx, sceneKey, entityKey)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, sceneKey, entityKey)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// StageExists provides a mock function with given fields: ctx, sceneKey
func (_m *MockWorldChecker) StageExists(ctx context.Context, sceneKey string) (bool, error) {
	ret := _m.Called(ctx, sceneKey)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string) bool); ok {
		r0 = rf(ctx, sceneKey)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, sceneKey)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockWorldChecker creates a new instance of MockWorldChecker. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorldChecker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorldChecker {
	m := &MockWorldChecker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ commands.WorldChecker = (*MockWorldChecker)(nil)

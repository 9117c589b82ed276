package mocks

import (
	"context"

	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/stretchr/testify/mock"
)

// MockSceneCreator is a mock type for the state.SceneCreator type
type MockSceneCreator struct {
	mock.Mock
}

// CreateSceneWithKey provides a mock function with given fields: ctx, sceneType, fantasticalness, key
func (_m *MockSceneCreator) CreateSceneWithKey(ctx context.Context, sceneType string, fantasticalness string, key string) (*models.ContentContainer, error) {
	ret := _m.Called(ctx, sceneType, fantasticalness, key)

	var r0 *models.ContentContainer
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) *models.ContentContainer); ok {
		r0 = rf(ctx, sceneType, fantasticalness, key)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ContentContainer)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, string) error); ok {
		r1 = rf(ctx, sceneType, fantasticalness, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreateSceneFromStub provides a mock function with given fields: ctx, stub, connected
func (_m *MockSceneCreator) CreateSceneFromStub(ctx context.Context, stub models.SceneStub, connected models.Scene) (*models.ContentContainer, error) {
	ret := _m.Called(ctx, stub, connected)

	var r0 *models.ContentContainer
	if rf, ok := ret.Get(0).(func(context.Context, models.SceneStub, models.Scene) *models.ContentContainer); ok {
		r0 = rf(ctx, stub, connected)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ContentContainer)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.SceneStub, models.Scene) error); ok {
		r1 = rf(ctx, stub, connected)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSceneCreator creates a new instance of MockSceneCreator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSceneCreator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSceneCreator {
	m := &MockSceneCreator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ state.SceneCreator = (*MockSceneCreator)(nil)

package mocks

import (
	"context"

	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/stretchr/testify/mock"
)

// MockWorld is a mock type for the state.World type
type MockWorld struct {
	mock.Mock
}

// LoadStage provides a mock function with given fields: ctx, key
func (_m *MockWorld) LoadStage(ctx context.Context, key string) (models.StageOrStub, error) {
	ret := _m.Called(ctx, key)

	var r0 models.StageOrStub
	if rf, ok := ret.Get(0).(func(context.Context, string) models.StageOrStub); ok {
		r0 = rf(ctx, key)
	} else {
		r0 = ret.Get(0).(models.StageOrStub)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// LoadEntity provides a mock function with given fields: ctx, sceneKey, entityKey
func (_m *MockWorld) LoadEntity(ctx context.Context, sceneKey string, entityKey string) (models.Entity, error) {
	ret := _m.Called(ctx, sceneKey, entityKey)

	var r0 models.Entity
	if rf, ok := ret.Get(0).(func(context.Context, string, string) models.Entity); ok {
		r0 = rf(ctx, sceneKey, entityKey)
	} else {
		r0 = ret.Get(0).(models.Entity)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, sceneKey, entityKey)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// StoreContent provides a mock function with given fields: ctx, content
func (_m *MockWorld) StoreContent(ctx context.Context, content *models.ContentContainer) error {
	ret := _m.Called(ctx, content)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *models.ContentContainer) error); ok {
		r0 = rf(ctx, content)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockWorld creates a new instance of MockWorld. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorld(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorld {
	m := &MockWorld{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ state.World = (*MockWorld)(nil)

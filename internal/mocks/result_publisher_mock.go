package mocks

import (
	"context"

	"narrative-engine/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// MockResultPublisher is a mock type for the messaging.ResultPublisher type
type MockResultPublisher struct {
	mock.Mock
}

// PublishResult provides a mock function with given fields: ctx, result
func (_m *MockResultPublisher) PublishResult(ctx context.Context, result messaging.CommandResult) error {
	ret := _m.Called(ctx, result)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, messaging.CommandResult) error); ok {
		r0 = rf(ctx, result)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockResultPublisher creates a new instance of MockResultPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockResultPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResultPublisher {
	m := &MockResultPublisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ messaging.ResultPublisher = (*MockResultPublisher)(nil)

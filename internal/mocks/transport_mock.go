package mocks

import (
	"context"

	"narrative-engine/internal/llm"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock type for the llm.Transport type
type MockTransport struct {
	mock.Mock
}

// Stream provides a mock function with given fields: ctx, req, onToken
func (_m *MockTransport) Stream(ctx context.Context, req llm.GenerationRequest, onToken llm.TokenHandler) error {
	ret := _m.Called(ctx, req, onToken)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, llm.GenerationRequest, llm.TokenHandler) error); ok {
		r0 = rf(ctx, req, onToken)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Backend provides a mock function with given fields:
func (_m *MockTransport) Backend() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// NewMockTransport creates a new instance of MockTransport. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransport {
	m := &MockTransport{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ llm.Transport = (*MockTransport)(nil)

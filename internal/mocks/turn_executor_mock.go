package mocks

import (
	"context"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/stretchr/testify/mock"
)

// MockTurnExecutor is a mock type for the state.TurnExecutor type
type MockTurnExecutor struct {
	mock.Mock
}

// Execute provides a mock function with given fields: ctx, stage, input
func (_m *MockTurnExecutor) Execute(ctx context.Context, stage models.Stage, input string) (commands.Result, error) {
	ret := _m.Called(ctx, stage, input)

	var r0 commands.Result
	if rf, ok := ret.Get(0).(func(context.Context, models.Stage, string) commands.Result); ok {
		r0 = rf(ctx, stage, input)
	} else {
		r0 = ret.Get(0).(commands.Result)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Stage, string) error); ok {
		r1 = rf(ctx, stage, input)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockTurnExecutor creates a new instance of MockTurnExecutor. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTurnExecutor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTurnExecutor {
	m := &MockTurnExecutor{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ state.TurnExecutor = (*MockTurnExecutor)(nil)

package mocks

import (
	"context"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCommandLogic is a mock type for the commands.CommandLogic type
type MockCommandLogic struct {
	mock.Mock
}

// Execute provides a mock function with given fields: ctx, stage, input
func (_m *MockCommandLogic) Execute(ctx context.Context, stage models.Stage, input string) (models.Commands, models.RawCommandExecution, error) {
	ret := _m.Called(ctx, stage, input)

	var r0 models.Commands
	if rf, ok := ret.Get(0).(func(context.Context, models.Stage, string) models.Commands); ok {
		r0 = rf(ctx, stage, input)
	} else {
		r0 = ret.Get(0).(models.Commands)
	}

	var r1 models.RawCommandExecution
	if rf, ok := ret.Get(1).(func(context.Context, models.Stage, string) models.RawCommandExecution); ok {
		r1 = rf(ctx, stage, input)
	} else {
		r1 = ret.Get(1).(models.RawCommandExecution)
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, models.Stage, string) error); ok {
		r2 = rf(ctx, stage, input)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// ExecuteParsed provides a mock function with given fields: ctx, stage, cmds
func (_m *MockCommandLogic) ExecuteParsed(ctx context.Context, stage models.Stage, cmds models.Commands) (models.RawCommandExecution, error) {
	ret := _m.Called(ctx, stage, cmds)

	var r0 models.RawCommandExecution
	if rf, ok := ret.Get(0).(func(context.Context, models.Stage, models.Commands) models.RawCommandExecution); ok {
		r0 = rf(ctx, stage, cmds)
	} else {
		r0 = ret.Get(0).(models.RawCommandExecution)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Stage, models.Commands) error); ok {
		r1 = rf(ctx, stage, cmds)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockCommandLogic creates a new instance of MockCommandLogic. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCommandLogic(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommandLogic {
	m := &MockCommandLogic{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ commands.CommandLogic = (*MockCommandLogic)(nil)

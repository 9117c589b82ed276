package mocks

import (
	"context"

	"narrative-engine/internal/coherence"
	"narrative-engine/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockExitFixer is a mock type for the coherence.ExitFixer type
type MockExitFixer struct {
	mock.Mock
}

// FixScene provides a mock function with given fields: ctx, scene, failures
func (_m *MockExitFixer) FixScene(ctx context.Context, scene models.Scene, failures []models.CoherenceFailure) ([]models.SceneFix, error) {
	ret := _m.Called(ctx, scene, failures)

	var r0 []models.SceneFix
	if rf, ok := ret.Get(0).(func(context.Context, models.Scene, []models.CoherenceFailure) []models.SceneFix); ok {
		r0 = rf(ctx, scene, failures)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.SceneFix)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Scene, []models.CoherenceFailure) error); ok {
		r1 = rf(ctx, scene, failures)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockExitFixer creates a new instance of MockExitFixer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockExitFixer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExitFixer {
	m := &MockExitFixer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ coherence.ExitFixer = (*MockExitFixer)(nil)

package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockSweepQueue is a mock implementation of jobs.SweepQueue
type MockSweepQueue struct {
	mock.Mock
}

func (m *MockSweepQueue) EnqueueHeartSweep() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSweepQueue) EnqueueStreakSweep() error {
	args := m.Called()
	return args.Error(0)
}

package judge

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Execute(ctx context.Context, params SubmissionParams) (Result, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Result), args.Error(1)
}

package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a testify mock of Completer for use in other packages'
// tests.
type MockCompleter struct {
	mock.Mock
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

package resolve

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, title string, limit int) []model.Candidate {
	args := m.Called(ctx, title, limit)
	if v := args.Get(0); v != nil {
		return v.([]model.Candidate)
	}
	return nil
}

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) SameWork(ctx context.Context, titleA string, authorsA []string, titleB string, authorsB []string) (bool, error) {
	args := m.Called(ctx, titleA, authorsA, titleB, authorsB)
	return args.Bool(0), args.Error(1)
}

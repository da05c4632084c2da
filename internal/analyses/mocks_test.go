package analyses

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"resume-analyzer/internal/llm"
)

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Analyze(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, key, contentType, data)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

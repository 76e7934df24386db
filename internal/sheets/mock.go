package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// MockWriter is a mock implementation of RecordWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, records []model.Record) error
	LastRecords    []model.Record
	WriteCallCount int
	mu             sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements the RecordWriter interface.
func (m *MockWriter) Write(ctx context.Context, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastRecords = records

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, records)
	}
	return nil
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.LastRecords = nil
}

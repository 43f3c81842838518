package llm

import (
	"context"
	"sync"
)

// MockService is a deterministic Service for testing.
// It replays scripted responses in order and repeats the last one when the
// script runs out.
type MockService struct {
	mu sync.Mutex

	// Responses are returned in order by Generate.
	Responses []string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// Calls counts Generate invocations.
	Calls int

	// Requests records every request passed to Generate.
	Requests []Request
}

// NewMockService creates a mock that replays the given responses.
func NewMockService(responses ...string) *MockService {
	return &MockService{Responses: responses}
}

// NewMockServiceWithError creates a mock that always fails with err.
func NewMockServiceWithError(err error) *MockService {
	return &MockService{Error: err}
}

// Generate returns the next scripted response.
func (m *MockService) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.Calls
	m.Calls++
	m.Requests = append(m.Requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Error != nil {
		return nil, m.Error
	}
	if len(m.Responses) == 0 {
		return &Response{}, nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	text := m.Responses[idx]
	return &Response{Raw: text, Text: text}, nil
}

// LastRequest returns the most recent request.
func (m *MockService) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return Request{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

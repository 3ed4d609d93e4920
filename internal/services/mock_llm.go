package services

import (
	"context"
	"sync"

	"github.com/questweaver/questweaver/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	GenerateTurnFunc func(ctx context.Context, messages []chat.Message) (string, error)

	// Responses is a FIFO of canned raw outputs consumed when
	// GenerateTurnFunc is nil. When both are empty a minimal structured
	// delta is returned.
	Responses []string

	// Track calls for testing
	InitModelCalls    []string
	GenerateTurnCalls []GenerateTurnCall

	mu sync.Mutex // protects all fields above
}

type GenerateTurnCall struct {
	Messages []chat.Message
}

// NewMockLLM creates a new mock narrator service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls:    make([]string, 0),
		GenerateTurnCalls: make([]GenerateTurnCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateTurn mocks narrator output
func (m *MockLLM) GenerateTurn(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	m.GenerateTurnCalls = append(m.GenerateTurnCalls, GenerateTurnCall{Messages: messages})
	fn := m.GenerateTurnFunc
	var canned string
	hasCanned := false
	if fn == nil && len(m.Responses) > 0 {
		canned = m.Responses[0]
		m.Responses = m.Responses[1:]
		hasCanned = true
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	if hasCanned {
		return canned, nil
	}
	return `{"narrative":"The story continues.","choices":[{"text":"Press on"}],"game_status":"ongoing"}`, nil
}

// CallCount returns how many turn generations were requested.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateTurnCalls)
}

package ai

import (
	"context"
	"sync"
)

// MockCapability is a scripted Capability for tests. Responses are returned
// in order; the last one repeats once the script runs out.
type MockCapability struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Prompts   []string
}

// Complete records the prompt and returns the next scripted response.
func (m *MockCapability) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	response := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return response, nil
}

// CallCount returns how many prompts the capability has received.
func (m *MockCapability) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

package dispatch

import (
	"context"
	"sync"
)

// MockResponse defines the response for a mocked command.
type MockResponse struct {
	ExitCode int
	Output   string
	Stderr   string
	Err      error
	// Do runs before the response is returned, to simulate side effects
	// such as files a real command would have written.
	Do func(c Command) error
}

// CommandMatcher reports whether a command matches.
type CommandMatcher func(c Command) bool

// MockRule defines a matching rule and its response.
type MockRule struct {
	Match    CommandMatcher
	Response MockResponse
}

// MockExecutor returns pre-recorded responses for commands.
// Rules are matched in registration order; unmatched commands succeed with no output.
type MockExecutor struct {
	mu    sync.Mutex
	rules []MockRule
	calls []MockCall
}

// MockCall records a command invocation for verification.
type MockCall struct {
	Command Command
	Env     *Environment
}

// NewMockExecutor creates an empty MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// AddRule adds a matching rule with its response.
func (e *MockExecutor) AddRule(match CommandMatcher, response MockResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, MockRule{Match: match, Response: response})
}

// AddPrefixMatch adds a rule matching commands whose argv starts with prefix.
func (e *MockExecutor) AddPrefixMatch(prefix []string, response MockResponse) {
	e.AddRule(func(c Command) bool {
		if len(c.Argv) < len(prefix) {
			return false
		}
		for i, arg := range prefix {
			if c.Argv[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// Calls returns all recorded invocations.
func (e *MockExecutor) Calls() []MockCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	calls := make([]MockCall, len(e.calls))
	copy(calls, e.calls)
	return calls
}

// Run records the call and returns the first matching response.
func (e *MockExecutor) Run(ctx context.Context, c Command, env *Environment) (*Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, MockCall{Command: c, Env: env})
	var resp *MockResponse
	for i := range e.rules {
		if e.rules[i].Match(c) {
			resp = &e.rules[i].Response
			break
		}
	}
	e.mu.Unlock()

	if resp == nil {
		return &Result{}, nil
	}
	if resp.Do != nil {
		if err := resp.Do(c); err != nil {
			return nil, err
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Result{ExitCode: resp.ExitCode, Output: resp.Output, Stderr: resp.Stderr}, nil
}

var (
	_ Executor = (*RealExecutor)(nil)
	_ Executor = (*MockExecutor)(nil)
)

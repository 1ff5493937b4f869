package mocks

import (
	"context"
	"sync"

	"github.com/hoornstra/missmeester/internal/eval"
)

// ScriptedEvaluator is a test double for eval.Evaluator that replays a fixed
// sequence of results. When the script runs out it keeps returning the last
// entry, or an unavailable result for an empty script.
type ScriptedEvaluator struct {
	mu      sync.Mutex
	Script  []eval.Result
	FailAt  int // 1-based call number that returns FailErr; 0 disables
	FailErr error

	Calls        int
	NewGameCalls int
	CloseCalls   int
}

func (m *ScriptedEvaluator) Evaluate(ctx context.Context, fen string) (eval.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.FailAt > 0 && m.Calls >= m.FailAt {
		return eval.Result{}, m.FailErr
	}
	if len(m.Script) == 0 {
		return eval.Result{}, nil
	}
	i := m.Calls - 1
	if i >= len(m.Script) {
		i = len(m.Script) - 1
	}
	return m.Script[i], nil
}

func (m *ScriptedEvaluator) NewGame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewGameCalls++
}

func (m *ScriptedEvaluator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

var _ eval.Evaluator = (*ScriptedEvaluator)(nil)

package eval

import "context"

// Score is a signed centipawn evaluation or an explicit gap. A missing score
// is not the same thing as a dead-even 0: callers must check Available before
// using CP in any comparison.
type Score struct {
	CP        float64
	Available bool
}

// Unavailable is the gap marker returned when a backend has no score.
func Unavailable() Score {
	return Score{}
}

// CP returns an available score with the given centipawn value.
func CP(v float64) Score {
	return Score{CP: v, Available: true}
}

// Result is the outcome of evaluating one position. BestMove is the backend's
// suggested move in UCI notation and may be empty.
type Result struct {
	Score    Score
	BestMove string
}

// Evaluator abstracts a position evaluation backend. The pipeline never
// branches on which implementation it holds.
//
// Evaluate returns an error only for fatal backend failures that should abort
// the batch; per-position misses are absorbed into the Result per each
// backend's degrade policy. NewGame marks a game boundary so per-game state
// (the engine's carried-forward score) does not leak across games. Close
// releases any long-lived backend resource and must be called exactly once
// per session.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string) (Result, error)
	NewGame()
	Close() error
}

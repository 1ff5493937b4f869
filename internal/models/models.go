package models

import "time"

// GameMeta carries the PGN header fields the analysis keeps per game.
// Missing headers are stored as "-".
type GameMeta struct {
	White string `json:"white"`
	Black string `json:"black"`
	Event string `json:"event"`
	Date  string `json:"date"`
}

// EvalPoint is one entry in a game's evaluation sequence. When Available is
// false the point is a gap marker: the backend had no score for that ply and
// CP carries no meaning. A genuine 0 score keeps Available true.
type EvalPoint struct {
	Ply       int     `json:"ply"`
	CP        float64 `json:"cp"`
	Available bool    `json:"available"`
}

// Tactic is one flagged tactical moment. Created once by the classifier,
// never mutated afterwards.
type Tactic struct {
	ID string `json:"id"`
	GameMeta

	Ply      int         `json:"ply"`
	FEN      string      `json:"fen"`
	BestMove string      `json:"best_move"`
	Kind     string      `json:"kind"`
	Delta    float64     `json:"delta"`
	EvalSeq  []EvalPoint `json:"eval_seq"`
	Moves    []string    `json:"moves"`

	CreatedAt time.Time `json:"created_at"`
}

// GameEvals is the full evaluation sequence for one game, kept even when the
// game produced no tactics so the whole game can still be charted.
type GameEvals struct {
	GameMeta
	GameIndex int         `json:"game_index"`
	Points    []EvalPoint `json:"points"`
}

// Report is the outcome of one batch run.
type Report struct {
	Tactics   []Tactic    `json:"tactics"`
	Games     []GameEvals `json:"games"`
	GameCount int         `json:"game_count"`
}

// TacticFilter narrows tactic listings from the repository.
type TacticFilter struct {
	BatchID string
	White   string
	Black   string
	Event   string
	Limit   int
	Offset  int
}

package tactics

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/models"
)

// Tactic kinds.
const (
	KindGain = "gain"
	KindLoss = "loss"
	KindFlip = "flip"
)

// Config holds the flag thresholds in centipawns.
type Config struct {
	DeltaSmall float64
	DeltaLarge float64
}

// DefaultConfig returns the standard 100/200 thresholds. One known deployment
// runs 50/100 instead, so these are configuration, never constants.
func DefaultConfig() Config {
	return Config{DeltaSmall: 100, DeltaLarge: 200}
}

// Classifier consumes the evaluation sequence of a single game, ply by ply,
// and flags tactical moments. One classifier serves one game; a fresh game
// gets a fresh classifier so running state never crosses games.
type Classifier struct {
	cfg   Config
	meta  models.GameMeta
	moves []string

	prev    eval.Score
	seq     []models.EvalPoint
	tactics []models.Tactic
}

// NewClassifier creates a classifier for one game. moves is the game's full
// mainline in UCI notation, copied onto every flagged record for replay.
func NewClassifier(cfg Config, meta models.GameMeta, moves []string) *Classifier {
	return &Classifier{
		cfg:   cfg,
		meta:  meta,
		moves: moves,
	}
}

// Observe feeds the evaluation of one ply. Unavailable scores are recorded in
// the sequence as gap markers and neither trigger a flag nor reset the
// previous known score. Returns the tactic record when the ply was flagged.
func (c *Classifier) Observe(ply int, score eval.Score, bestMove, fen string) *models.Tactic {
	point := models.EvalPoint{Ply: ply, Available: score.Available}
	if score.Available {
		point.CP = score.CP
	}
	c.seq = append(c.seq, point)

	if !score.Available {
		return nil
	}
	// The first available score of a game establishes prev without comparison.
	if !c.prev.Available {
		c.prev = score
		return nil
	}

	kind := classify(c.prev.CP, score.CP, c.cfg)
	delta := score.CP - c.prev.CP
	c.prev = score
	if kind == "" {
		return nil
	}

	tactic := models.Tactic{
		ID:        uuid.NewString(),
		GameMeta:  c.meta,
		Ply:       ply,
		FEN:       fen,
		BestMove:  bestMove,
		Kind:      kind,
		Delta:     delta,
		EvalSeq:   append([]models.EvalPoint(nil), c.seq...),
		Moves:     c.moves,
		CreatedAt: time.Now(),
	}
	c.tactics = append(c.tactics, tactic)
	return &c.tactics[len(c.tactics)-1]
}

// classify applies the flag rule to a pair of available scores. Returns the
// tactic kind, or "" when the ply does not qualify.
func classify(prev, cur float64, cfg Config) string {
	delta := cur - prev
	if math.Abs(delta) <= cfg.DeltaSmall {
		return ""
	}

	// Balanced position turned decisive.
	if math.Abs(prev) < cfg.DeltaSmall && math.Abs(cur) > cfg.DeltaLarge {
		return KindGain
	}
	// A large advantage collapsed.
	if prev > cfg.DeltaLarge && delta < -cfg.DeltaLarge {
		return KindLoss
	}
	// The side that is winning changed. The sign product and the delta size
	// are both required.
	if prev*cur < 0 && math.Abs(delta) > cfg.DeltaLarge {
		return KindFlip
	}
	return ""
}

// Sequence returns the evaluation sequence observed so far, gaps included.
func (c *Classifier) Sequence() []models.EvalPoint {
	return c.seq
}

// Tactics returns the records flagged so far, in ply order.
func (c *Classifier) Tactics() []models.Tactic {
	return c.tactics
}

package tactics_test

import (
	"fmt"
	"testing"

	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/models"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = models.GameMeta{White: "Wit", Black: "Zwart", Event: "Voorbeeld", Date: "2024.01.15"}

func feed(t *testing.T, cfg tactics.Config, scores []eval.Score) *tactics.Classifier {
	t.Helper()
	c := tactics.NewClassifier(cfg, testMeta, []string{"e2e4", "e7e5"})
	for ply, s := range scores {
		c.Observe(ply, s, "e2e4", "fen-"+fmt.Sprint(ply))
	}
	return c
}

func TestClassifier_PairExamples(t *testing.T) {
	cfg := tactics.DefaultConfig()

	tests := []struct {
		name  string
		prev  float64
		cur   float64
		kind  string
		delta float64
	}{
		{name: "balanced to decisive is a gain", prev: 50, cur: 260, kind: tactics.KindGain, delta: 210},
		{name: "collapsed advantage is a loss", prev: 300, cur: 50, kind: tactics.KindLoss, delta: -250},
		{name: "sign reversal is a flip", prev: 150, cur: -160, kind: tactics.KindFlip, delta: -310},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feed(t, cfg, []eval.Score{eval.CP(tt.prev), eval.CP(tt.cur)})
			recs := c.Tactics()
			require.Len(t, recs, 1)
			assert.Equal(t, tt.kind, recs[0].Kind)
			assert.Equal(t, tt.delta, recs[0].Delta)
			assert.Equal(t, 1, recs[0].Ply)
		})
	}
}

func TestClassifier_NotFlagged(t *testing.T) {
	cfg := tactics.DefaultConfig()

	tests := []struct {
		name string
		prev float64
		cur  float64
	}{
		{name: "delta below small threshold", prev: 30, cur: 90},
		{name: "delta at exactly small threshold", prev: 0, cur: 100},
		{name: "swing without gain loss or flip", prev: 120, cur: 280},
		{name: "losing side keeps losing", prev: -300, cur: -450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feed(t, cfg, []eval.Score{eval.CP(tt.prev), eval.CP(tt.cur)})
			assert.Empty(t, c.Tactics())
		})
	}
}

func TestClassifier_FirstPlyNeverFlagged(t *testing.T) {
	c := feed(t, tactics.DefaultConfig(), []eval.Score{eval.CP(900)})
	assert.Empty(t, c.Tactics())
}

func TestClassifier_GapsNeverTrigger(t *testing.T) {
	cfg := tactics.DefaultConfig()

	tests := []struct {
		name   string
		scores []eval.Score
	}{
		{name: "gap then score", scores: []eval.Score{eval.Unavailable(), eval.CP(260)}},
		{name: "score then gap", scores: []eval.Score{eval.CP(50), eval.Unavailable()}},
		{name: "all gaps", scores: []eval.Score{eval.Unavailable(), eval.Unavailable()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feed(t, cfg, tt.scores)
			assert.Empty(t, c.Tactics(), "no trigger without two available scores")
		})
	}
}

func TestClassifier_GapDoesNotResetPrev(t *testing.T) {
	// prev=50 survives the gap at ply 1, so ply 2 compares against 50 and
	// flags a gain.
	c := feed(t, tactics.DefaultConfig(), []eval.Score{
		eval.CP(50),
		eval.Unavailable(),
		eval.CP(260),
	})
	recs := c.Tactics()
	require.Len(t, recs, 1)
	assert.Equal(t, tactics.KindGain, recs[0].Kind)
	assert.Equal(t, 2, recs[0].Ply)
	assert.Equal(t, 210.0, recs[0].Delta)
}

func TestClassifier_GapsRecordedAsMarkersNotZero(t *testing.T) {
	c := feed(t, tactics.DefaultConfig(), []eval.Score{
		eval.CP(10),
		eval.Unavailable(),
		eval.CP(0),
	})
	seq := c.Sequence()
	require.Len(t, seq, 3)
	assert.False(t, seq[1].Available, "missing score stays a gap marker")
	assert.True(t, seq[2].Available, "a genuine zero score is available")
	assert.Equal(t, 0.0, seq[2].CP)
}

func TestClassifier_TightThresholds(t *testing.T) {
	// The 50/100 deployment flags swings the default config ignores.
	cfg := tactics.Config{DeltaSmall: 50, DeltaLarge: 100}
	c := feed(t, cfg, []eval.Score{eval.CP(20), eval.CP(130)})
	recs := c.Tactics()
	require.Len(t, recs, 1)
	assert.Equal(t, tactics.KindGain, recs[0].Kind)

	c = feed(t, tactics.DefaultConfig(), []eval.Score{eval.CP(20), eval.CP(130)})
	assert.Empty(t, c.Tactics(), "default thresholds do not flag the same swing")
}

func TestClassifier_FlipRequiresBothChecks(t *testing.T) {
	// Signs differ but the swing is not large: no flip.
	c := feed(t, tactics.DefaultConfig(), []eval.Score{eval.CP(80), eval.CP(-70)})
	assert.Empty(t, c.Tactics())
}

func TestClassifier_RecordCarriesContext(t *testing.T) {
	moves := []string{"e2e4", "e7e5", "d1h5"}
	c := tactics.NewClassifier(tactics.DefaultConfig(), testMeta, moves)
	c.Observe(0, eval.CP(40), "e7e5", "fen-0")
	rec := c.Observe(1, eval.CP(-260), "g8f6", "fen-1")

	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, testMeta, rec.GameMeta)
	assert.Equal(t, "fen-1", rec.FEN)
	assert.Equal(t, "g8f6", rec.BestMove)
	assert.Equal(t, moves, rec.Moves)
	require.Len(t, rec.EvalSeq, 2, "sequence snapshot includes the flagged ply")
	assert.Equal(t, -260.0, rec.EvalSeq[1].CP)
}

func TestClassifier_Idempotent(t *testing.T) {
	scores := []eval.Score{
		eval.CP(10), eval.CP(40), eval.Unavailable(), eval.CP(250),
		eval.CP(30), eval.CP(-220), eval.CP(-240),
	}

	run := func() *tactics.Classifier { return feed(t, tactics.DefaultConfig(), scores) }

	a, b := run(), run()
	require.Equal(t, len(a.Tactics()), len(b.Tactics()))
	for i := range a.Tactics() {
		assert.Equal(t, a.Tactics()[i].Ply, b.Tactics()[i].Ply)
		assert.Equal(t, a.Tactics()[i].Kind, b.Tactics()[i].Kind)
		assert.Equal(t, a.Tactics()[i].Delta, b.Tactics()[i].Delta)
	}
	assert.Equal(t, a.Sequence(), b.Sequence())
}

func TestClassifier_SequenceLengthEqualsPlyCount(t *testing.T) {
	scores := []eval.Score{eval.CP(10), eval.CP(20), eval.Unavailable(), eval.CP(30)}
	c := feed(t, tactics.DefaultConfig(), scores)
	assert.Empty(t, c.Tactics())
	assert.Len(t, c.Sequence(), len(scores), "a quiet game still yields its full sequence")
}

func TestClassifier_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for g := 0; g < 20; g++ {
		c := tactics.NewClassifier(tactics.DefaultConfig(), testMeta, nil)
		for ply := 0; ply < 40; ply++ {
			// Alternate between winning and losing to flag every ply
			// after the first.
			cp := 300.0
			if ply%2 == 1 {
				cp = -300
			}
			c.Observe(ply, eval.CP(cp), "", "")
		}
		for _, rec := range c.Tactics() {
			assert.False(t, seen[rec.ID], "identifier reused: %s", rec.ID)
			seen[rec.ID] = true
		}
	}
	assert.Greater(t, len(seen), 700)
}

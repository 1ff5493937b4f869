package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/services"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/hoornstra/missmeester/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoGameBatch = `[Event "Voorbeeld"]
[White "Wit"]
[Black "Zwart"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 *

[Event "Tweede"]
[White "Speler A"]
[Black "Speler B"]
[Result "*"]

1. d4 d5 *`

func script(cps ...float64) []eval.Result {
	out := make([]eval.Result, len(cps))
	for i, cp := range cps {
		out[i] = eval.Result{Score: eval.CP(cp), BestMove: "e2e4"}
	}
	return out
}

func TestAnalyze_FlagsAcrossBatch(t *testing.T) {
	// Game 1 (4 plies): 20, 40, 310, 300 → gain at ply 2.
	// Game 2 (2 plies): 10, 30 → quiet.
	ev := &mocks.ScriptedEvaluator{Script: script(20, 40, 310, 300, 10, 30)}
	svc := services.NewBatchService()

	report, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.NoError(t, err)

	require.Len(t, report.Tactics, 1)
	assert.Equal(t, tactics.KindGain, report.Tactics[0].Kind)
	assert.Equal(t, 2, report.Tactics[0].Ply)
	assert.Equal(t, "Wit", report.Tactics[0].White)

	require.Len(t, report.Games, 2)
	assert.Len(t, report.Games[0].Points, 4)
	assert.Len(t, report.Games[1].Points, 2, "a quiet game still yields its full sequence")
	assert.Equal(t, 2, report.GameCount)
	assert.Equal(t, 6, ev.Calls)
}

func TestAnalyze_NewGamePerGame(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{Script: script(0, 0, 0, 0, 0, 0)}
	svc := services.NewBatchService()

	_, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ev.NewGameCalls, "evaluator sees each game boundary")
}

func TestAnalyze_ProgressPerGame(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{Script: script(0)}
	svc := services.NewBatchService()

	var reported [][2]int
	progress := func(done, total int) { reported = append(reported, [2]int{done, total}) }

	_, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), progress)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, reported)
}

func TestAnalyze_EmptyBatch(t *testing.T) {
	svc := services.NewBatchService()

	_, err := svc.Analyze(context.Background(), "", &mocks.ScriptedEvaluator{}, tactics.DefaultConfig(), nil)
	require.Error(t, err)

	_, err = svc.Analyze(context.Background(), "   \n ", &mocks.ScriptedEvaluator{}, tactics.DefaultConfig(), nil)
	require.Error(t, err)
}

func TestAnalyze_FatalEvaluatorAbortsBatch(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{
		Script:  script(20, 40),
		FailAt:  3,
		FailErr: errors.New("engine process died"),
	}
	svc := services.NewBatchService()

	report, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Nil(t, report, "no partial results on fatal failure")
	assert.Contains(t, err.Error(), "EVALUATOR_ERROR")
}

func TestAnalyze_GapsAreAbsorbedNotFatal(t *testing.T) {
	// All lookups miss: the cloud backend returns unavailable with nil error.
	ev := &mocks.ScriptedEvaluator{Script: []eval.Result{{}}}
	svc := services.NewBatchService()

	report, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Tactics)

	for _, p := range report.Games[0].Points {
		assert.False(t, p.Available)
	}
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := &mocks.ScriptedEvaluator{Script: script(0)}
	svc := services.NewBatchService()

	_, err := svc.Analyze(ctx, twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ev.Calls, "no game is started after cancellation")
}

func TestAnalyze_UniqueTacticIDs(t *testing.T) {
	// Alternating decisive swings flag every ply after the first in each game.
	var cps []float64
	for i := 0; i < 6; i++ {
		cp := 300.0
		if i%2 == 1 {
			cp = -300
		}
		cps = append(cps, cp)
	}
	ev := &mocks.ScriptedEvaluator{Script: script(cps...)}
	svc := services.NewBatchService()

	report, err := svc.Analyze(context.Background(), twoGameBatch, ev, tactics.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, report.Tactics)

	seen := map[string]bool{}
	for _, rec := range report.Tactics {
		assert.False(t, seen[rec.ID])
		seen[rec.ID] = true
	}
}

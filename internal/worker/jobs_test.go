package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/services"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/hoornstra/missmeester/internal/testutil/mocks"
	"github.com/hoornstra/missmeester/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobBatch = `[Event "Voorbeeld"]
[White "Wit"]
[Black "Zwart"]

1. e4 e5 *`

func newJob(ev *mocks.ScriptedEvaluator, factoryErr error) (*worker.AnalyzeBatchJob, *services.BatchRegistry) {
	registry := services.NewBatchRegistry()
	registry.Create("b1")
	job := &worker.AnalyzeBatchJob{
		Registry:     registry,
		BatchService: services.NewBatchService(),
		NewEvaluator: func() (eval.Evaluator, error) {
			if factoryErr != nil {
				return nil, factoryErr
			}
			return ev, nil
		},
		BatchID: "b1",
		PGN:     jobBatch,
		Config:  tactics.DefaultConfig(),
	}
	return job, registry
}

func TestAnalyzeBatchJob_CompletesAndReleasesEvaluator(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{Script: []eval.Result{{Score: eval.CP(20)}, {Score: eval.CP(40)}}}
	job, registry := newJob(ev, nil)

	require.NoError(t, job.Run(context.Background()))

	st, ok := registry.Get("b1")
	require.True(t, ok)
	assert.Equal(t, services.StatusCompleted, st.Status)
	assert.Equal(t, 1, st.Done)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, ev.CloseCalls, "evaluator released exactly once")

	require.NotNil(t, registry.Index())
	assert.Equal(t, 0, registry.Index().Len())
}

func TestAnalyzeBatchJob_AcquisitionFailureIsFatal(t *testing.T) {
	job, registry := newJob(nil, errors.New("cannot start engine"))

	err := job.Run(context.Background())
	require.Error(t, err)

	st, _ := registry.Get("b1")
	assert.Equal(t, services.StatusFailed, st.Status)
	assert.Contains(t, st.Error, "cannot start engine")
	assert.Nil(t, registry.Index(), "no index without a completed batch")
}

func TestAnalyzeBatchJob_FatalEvaluatorReleasesSession(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{FailAt: 1, FailErr: errors.New("engine died")}
	job, registry := newJob(ev, nil)

	err := job.Run(context.Background())
	require.Error(t, err)

	st, _ := registry.Get("b1")
	assert.Equal(t, services.StatusFailed, st.Status)
	assert.Equal(t, 1, ev.CloseCalls, "session released on the failure path too")
}

func TestAnalyzeBatchJob_IndexReplacedPerRun(t *testing.T) {
	ev := &mocks.ScriptedEvaluator{Script: []eval.Result{{Score: eval.CP(40)}, {Score: eval.CP(-260)}}}
	job, registry := newJob(ev, nil)
	require.NoError(t, job.Run(context.Background()))

	first := registry.Index()
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Len())

	registry.Create("b2")
	job2 := *job
	job2.BatchID = "b2"
	ev2 := &mocks.ScriptedEvaluator{Script: []eval.Result{{Score: eval.CP(10)}, {Score: eval.CP(20)}}}
	job2.NewEvaluator = func() (eval.Evaluator, error) { return ev2, nil }
	require.NoError(t, job2.Run(context.Background()))

	second := registry.Index()
	require.NotNil(t, second)
	assert.NotSame(t, first, second, "a new batch run discards the previous index")
	assert.Equal(t, 0, second.Len())
}

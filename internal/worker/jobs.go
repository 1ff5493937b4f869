package worker

import (
	"context"

	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/logger"
	"github.com/hoornstra/missmeester/internal/repository"
	"github.com/hoornstra/missmeester/internal/services"
	"github.com/hoornstra/missmeester/internal/tactics"
)

// EvaluatorFactory builds a fresh evaluator session for one batch run. The
// session is acquired lazily, when the job actually starts, and the job
// releases it exactly once on every exit path.
type EvaluatorFactory func() (eval.Evaluator, error)

// AnalyzeBatchJob runs one batch through the analysis pipeline.
type AnalyzeBatchJob struct {
	Registry     *services.BatchRegistry
	BatchService services.BatchService
	TacticRepo   repository.TacticRepository
	NewEvaluator EvaluatorFactory

	BatchID string
	PGN     string
	Config  tactics.Config
}

func (j *AnalyzeBatchJob) Name() string { return "analyze_batch" }

func (j *AnalyzeBatchJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("batch_id", j.BatchID)
	j.Registry.SetRunning(j.BatchID)

	evaluator, err := j.NewEvaluator()
	if err != nil {
		// Resource acquisition failed before any game was attempted.
		log.Error("failed to acquire evaluator: %v", err)
		j.Registry.Fail(j.BatchID, err)
		return err
	}
	defer func() {
		if cerr := evaluator.Close(); cerr != nil {
			log.Warn("evaluator close: %v", cerr)
		}
	}()

	progress := func(done, total int) {
		j.Registry.SetProgress(j.BatchID, done, total)
	}

	report, err := j.BatchService.Analyze(ctx, j.PGN, evaluator, j.Config, progress)
	if err != nil {
		j.Registry.Fail(j.BatchID, err)
		return err
	}

	if j.TacticRepo != nil {
		if err := j.TacticRepo.SaveBatch(ctx, j.BatchID, report); err != nil {
			// Persistence is a durable shadow of the in-memory result, not a
			// gate on it.
			log.Warn("failed to persist batch: %v", err)
		}
	}

	j.Registry.Complete(j.BatchID, report)
	log.Info("batch %s completed: %d games, %d tactics", j.BatchID, report.GameCount, len(report.Tactics))
	return nil
}

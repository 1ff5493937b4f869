package services

import (
	"context"

	"github.com/corentings/chess/v2"

	"github.com/hoornstra/missmeester/internal/errors"
	"github.com/hoornstra/missmeester/internal/eval"
	"github.com/hoornstra/missmeester/internal/logger"
	"github.com/hoornstra/missmeester/internal/models"
	"github.com/hoornstra/missmeester/internal/pgn"
	"github.com/hoornstra/missmeester/internal/replay"
	"github.com/hoornstra/missmeester/internal/tactics"
)

// ProgressFunc is invoked after each completed game with the number of games
// done and the batch total.
type ProgressFunc func(done, total int)

// BatchService runs the analysis pipeline over a batch of games.
type BatchService interface {
	Analyze(ctx context.Context, pgnBlob string, evaluator eval.Evaluator, cfg tactics.Config, progress ProgressFunc) (*models.Report, error)
}

type batchService struct{}

// NewBatchService creates a BatchService.
func NewBatchService() BatchService {
	return &batchService{}
}

type parsedGame struct {
	meta models.GameMeta
	game *chess.Game
}

// Analyze walks every game ply by ply, evaluates each position, classifies
// tactical moments, and reports progress per completed game. Games are
// processed strictly sequentially: the classifier's running state is per game
// and the evaluator session serializes naturally. Cancellation is honored
// between games, never mid-game. The caller owns the evaluator's lifecycle.
func (s *batchService) Analyze(ctx context.Context, pgnBlob string, evaluator eval.Evaluator, cfg tactics.Config, progress ProgressFunc) (*models.Report, error) {
	log := logger.FromContext(ctx).WithPrefix("batch")

	texts := pgn.SplitGames(pgnBlob)
	if len(texts) == 0 {
		return nil, errors.NewValidationError("pgn", "empty or invalid game batch")
	}

	var games []parsedGame
	for i, text := range texts {
		g, err := replay.ParseGame(text)
		if err != nil {
			log.Warn("skipping unparseable game %d: %v", i+1, err)
			continue
		}
		games = append(games, parsedGame{meta: pgn.Meta(text), game: g})
	}
	if len(games) == 0 {
		return nil, errors.NewValidationError("pgn", "no parseable games in batch")
	}

	log.Info("analyzing %d games", len(games))
	report := &models.Report{GameCount: len(games)}

	for gi, pg := range games {
		if err := ctx.Err(); err != nil {
			log.Warn("batch cancelled after %d of %d games", gi, len(games))
			return nil, err
		}

		gameLog := log.WithFields(map[string]any{
			"game":  gi + 1,
			"white": pg.meta.White,
			"black": pg.meta.Black,
		})

		evaluator.NewGame()
		moves := replay.MoveList(pg.game)
		classifier := tactics.NewClassifier(cfg, pg.meta, moves)

		steps := replay.Walk(pg.game)
		gameLog.Debug("walking %d plies", len(steps))

		for _, step := range steps {
			res, err := evaluator.Evaluate(ctx, step.FEN)
			if err != nil {
				gameLog.Error("evaluator failed fatally at ply %d: %v", step.Ply, err)
				return nil, errors.NewEvaluatorError(err)
			}
			if rec := classifier.Observe(step.Ply, res.Score, res.BestMove, step.FEN); rec != nil {
				gameLog.Debug("flagged %s at ply %d, delta=%.0f", rec.Kind, rec.Ply, rec.Delta)
			}
		}

		// A quiet game still contributes its full sequence for charting.
		report.Tactics = append(report.Tactics, classifier.Tactics()...)
		report.Games = append(report.Games, models.GameEvals{
			GameMeta:  pg.meta,
			GameIndex: gi,
			Points:    classifier.Sequence(),
		})

		gameLog.Info("game done: %d plies, %d tactics", len(steps), len(classifier.Tactics()))
		if progress != nil {
			progress(gi+1, len(games))
		}
	}

	log.Info("batch completed: %d games, %d tactics", len(games), len(report.Tactics))
	return report, nil
}

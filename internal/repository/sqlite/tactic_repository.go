package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/hoornstra/missmeester/internal/logger"
	"github.com/hoornstra/missmeester/internal/models"
	"github.com/hoornstra/missmeester/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type tacticRepository struct {
	db *sql.DB
}

// NewTacticRepository creates a TacticRepository backed by SQLite.
func NewTacticRepository(db *sql.DB) repository.TacticRepository {
	return &tacticRepository{db: db}
}

func (r *tacticRepository) SaveBatch(ctx context.Context, batchID string, report *models.Report) error {
	log := logger.FromContext(ctx).WithPrefix("tactic_repo")
	log.Debug("saving batch %s: %d games, %d tactics", batchID, report.GameCount, len(report.Tactics))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO batches (id, game_count, tactic_count)
VALUES (?, ?, ?)
`, batchID, report.GameCount, len(report.Tactics)); err != nil {
		log.Error("failed to insert batch: %v", err)
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tactics (id, batch_id, position, white, black, event, date, ply, fen, best_move, kind, delta, eval_seq, moves)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		log.Error("failed to prepare tactic insert: %v", err)
		return err
	}
	defer stmt.Close()

	for pos, t := range report.Tactics {
		evalSeq, err := json.Marshal(t.EvalSeq)
		if err != nil {
			return err
		}
		moves, err := json.Marshal(t.Moves)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, t.ID, batchID, pos,
			t.White, t.Black, t.Event, t.Date,
			t.Ply, t.FEN, t.BestMove, t.Kind, t.Delta,
			string(evalSeq), string(moves)); err != nil {
			log.Error("failed to insert tactic %s: %v", t.ID, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit batch: %v", err)
		return err
	}
	log.Debug("batch %s saved", batchID)
	return nil
}

func (r *tacticRepository) List(ctx context.Context, filter models.TacticFilter) ([]models.Tactic, error) {
	log := logger.FromContext(ctx).WithPrefix("tactic_repo")
	log.Debug("listing tactics: batch=%s white=%s black=%s event=%s",
		filter.BatchID, filter.White, filter.Black, filter.Event)

	query := sqlBuilder.Select(
		"id", "white", "black", "event", "date", "ply", "fen",
		"best_move", "kind", "delta", "eval_seq", "moves", "created_at",
	).From("tactics")

	if filter.BatchID != "" {
		query = query.Where(squirrel.Eq{"batch_id": filter.BatchID})
	}
	if filter.White != "" {
		query = query.Where(squirrel.Eq{"white": filter.White})
	}
	if filter.Black != "" {
		query = query.Where(squirrel.Eq{"black": filter.Black})
	}
	if filter.Event != "" {
		query = query.Where(squirrel.Eq{"event": filter.Event})
	}

	query = query.OrderBy("batch_id", "position ASC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query tactics: %v", err)
		return nil, err
	}
	defer rows.Close()

	var tactics []models.Tactic
	for rows.Next() {
		t, err := scanTactic(rows)
		if err != nil {
			log.Error("failed to scan tactic row: %v", err)
			return nil, err
		}
		tactics = append(tactics, *t)
	}
	log.Debug("found %d tactics", len(tactics))
	return tactics, rows.Err()
}

func (r *tacticRepository) Get(ctx context.Context, id string) (*models.Tactic, error) {
	log := logger.FromContext(ctx).WithPrefix("tactic_repo")
	log.Debug("getting tactic: id=%s", id)

	row := r.db.QueryRowContext(ctx, `
SELECT id, white, black, event, date, ply, fen, best_move, kind, delta, eval_seq, moves, created_at
FROM tactics
WHERE id = ?
`, id)

	t, err := scanTactic(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("tactic not found: id=%s", id)
			return nil, nil
		}
		log.Error("failed to get tactic: %v", err)
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTactic(row rowScanner) (*models.Tactic, error) {
	var (
		t       models.Tactic
		evalSeq string
		moves   string
	)
	if err := row.Scan(&t.ID, &t.White, &t.Black, &t.Event, &t.Date,
		&t.Ply, &t.FEN, &t.BestMove, &t.Kind, &t.Delta,
		&evalSeq, &moves, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(evalSeq), &t.EvalSeq); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(moves), &t.Moves); err != nil {
		return nil, err
	}
	return &t, nil
}

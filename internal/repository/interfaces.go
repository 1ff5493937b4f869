package repository

import (
	"context"

	"github.com/hoornstra/missmeester/internal/models"
)

// TacticRepository persists completed batch results so exports and deep links
// survive the process. The in-memory index stays the navigation authority for
// the live batch; the repository is its durable shadow.
type TacticRepository interface {
	// SaveBatch stores a batch header and its tactics in report order.
	SaveBatch(ctx context.Context, batchID string, report *models.Report) error
	// List returns tactics matching the filter, in batch order.
	List(ctx context.Context, filter models.TacticFilter) ([]models.Tactic, error)
	// Get looks one tactic up by its stable identifier.
	Get(ctx context.Context, id string) (*models.Tactic, error)
}

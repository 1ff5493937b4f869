package tactics

import (
	"sync"

	"github.com/hoornstra/missmeester/internal/models"
)

// Index is a navigable, id-addressable view over the tactics of one completed
// batch run. It is rebuilt wholesale for every new batch; the cursor starts at
// the first record.
type Index struct {
	mu      sync.Mutex
	records []models.Tactic
	byID    map[string]int
	cursor  int
}

// NewIndex builds an index over records in their given order.
func NewIndex(records []models.Tactic) *Index {
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.ID] = i
	}
	return &Index{records: records, byID: byID}
}

// Len returns the number of records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Position returns the cursor's current position.
func (ix *Index) Position() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cursor
}

// Current returns the record under the cursor. ok is false for an empty index.
func (ix *Index) Current() (models.Tactic, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.current()
}

func (ix *Index) current() (models.Tactic, bool) {
	if len(ix.records) == 0 {
		return models.Tactic{}, false
	}
	return ix.records[ix.cursor], true
}

// Next advances the cursor one record, clamped to the last record. No
// wraparound.
func (ix *Index) Next() (models.Tactic, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cursor < len(ix.records)-1 {
		ix.cursor++
	}
	return ix.current()
}

// Prev steps the cursor back one record, clamped to the first record.
func (ix *Index) Prev() (models.Tactic, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cursor > 0 {
		ix.cursor--
	}
	return ix.current()
}

// Get looks a record up by its stable identifier without moving the cursor.
func (ix *Index) Get(id string) (models.Tactic, int, bool) {
	pos, ok := ix.byID[id]
	if !ok {
		return models.Tactic{}, 0, false
	}
	return ix.records[pos], pos, true
}

// JumpTo moves the cursor directly to the record with the given identifier,
// for deep links. An unknown identifier leaves the cursor unchanged.
func (ix *Index) JumpTo(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	pos, ok := ix.byID[id]
	if !ok {
		return false
	}
	ix.cursor = pos
	return true
}

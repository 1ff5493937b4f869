package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hoornstra/missmeester/internal/errors"
	"github.com/hoornstra/missmeester/internal/export"
	"github.com/hoornstra/missmeester/internal/logger"
	"github.com/hoornstra/missmeester/internal/models"
	"github.com/hoornstra/missmeester/internal/replay"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/hoornstra/missmeester/internal/worker"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"pending": s.AnalysisPool.QueueSize(),
	})
}

// handleCreateBatch accepts a PGN blob (raw body or multipart "pgn" file) and
// enqueues it for analysis.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	blob, err := readPGNBlob(r, s.MaxBatchSize)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if strings.TrimSpace(blob) == "" {
		handleError(w, r, errors.NewValidationError("pgn", "empty or invalid game batch"))
		return
	}

	batchID := uuid.NewString()
	s.Registry.Create(batchID)

	job := &worker.AnalyzeBatchJob{
		Registry:     s.Registry,
		BatchService: s.BatchService,
		TacticRepo:   s.TacticRepo,
		NewEvaluator: s.NewEvaluator,
		BatchID:      batchID,
		PGN:          blob,
		Config:       s.Classifier,
	}
	if err := s.AnalysisPool.Submit(job); err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}

	log.Info("batch %s queued (%d bytes)", batchID, len(blob))
	writeJSON(w, http.StatusAccepted, map[string]string{"batch_id": batchID})
}

func readPGNBlob(r *http.Request, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return "", errors.NewBadRequestError("unreadable upload")
		}
		file, _, err := r.FormFile("pgn")
		if err != nil {
			return "", errors.NewBadRequestError("missing pgn file field")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxSize))
		if err != nil {
			return "", errors.NewBadRequestError("unreadable upload")
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxSize))
	if err != nil {
		return "", errors.NewBadRequestError("unreadable request body")
	}
	return string(data), nil
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := s.Registry.Get(id)
	if !ok {
		handleError(w, r, errors.NewNotFoundError("batch", id))
		return
	}

	out := map[string]any{
		"id":         st.ID,
		"status":     st.Status,
		"done":       st.Done,
		"total":      st.Total,
		"created_at": st.CreatedAt,
	}
	if st.Total > 0 {
		out["progress"] = float64(st.Done) / float64(st.Total)
	}
	if st.Error != "" {
		out["error"] = st.Error
	}
	if st.Report != nil {
		out["tactic_count"] = len(st.Report.Tactics)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBatchTactics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := s.Registry.Report(id)
	if report == nil {
		handleError(w, r, errors.NewNotFoundError("completed batch", id))
		return
	}
	tactics := report.Tactics
	if tactics == nil {
		tactics = []models.Tactic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(tactics),
		"tactics": tactics,
	})
}

func (s *Server) handleGameEvals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := s.Registry.Report(id)
	if report == nil {
		handleError(w, r, errors.NewNotFoundError("completed batch", id))
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(report.Games) {
		handleError(w, r, errors.NewNotFoundError("game", chi.URLParam(r, "index")))
		return
	}
	writeJSON(w, http.StatusOK, report.Games[index])
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := s.Registry.Report(id)
	if report == nil {
		handleError(w, r, errors.NewNotFoundError("completed batch", id))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "missmeester_"+id+".csv"))
	if err := export.WriteCSV(w, report.Tactics); err != nil {
		logger.FromContext(r.Context()).Error("csv export failed: %v", err)
	}
}

// handleListTactics serves the persisted view across batches, with filters.
func (s *Server) handleListTactics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TacticFilter{
		BatchID: q.Get("batch"),
		White:   q.Get("white"),
		Black:   q.Get("black"),
		Event:   q.Get("event"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	tactics, err := s.TacticRepo.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	if tactics == nil {
		tactics = []models.Tactic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(tactics),
		"tactics": tactics,
	})
}

// handleGetTactic resolves a tactic by its stable identifier: the live index
// first, the persisted store second.
func (s *Server) handleGetTactic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if ix := s.Registry.Index(); ix != nil {
		if rec, pos, ok := ix.Get(id); ok {
			writeJSON(w, http.StatusOK, map[string]any{"position": pos, "tactic": rec})
			return
		}
	}

	rec, err := s.TacticRepo.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	if rec == nil {
		handleError(w, r, errors.NewNotFoundError("tactic", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tactic": rec})
}

// handleReplayTactic plays the owning game's recorded move list back to full
// board states. An illegal recorded move truncates playback at that ply; the
// valid earlier frames are still returned alongside the error.
func (s *Server) handleReplayTactic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var moves []string
	if ix := s.Registry.Index(); ix != nil {
		if rec, _, ok := ix.Get(id); ok {
			moves = rec.Moves
		}
	}
	if moves == nil {
		rec, err := s.TacticRepo.Get(r.Context(), id)
		if err != nil {
			handleError(w, r, errors.NewInternalError(err))
			return
		}
		if rec == nil {
			handleError(w, r, errors.NewNotFoundError("tactic", id))
			return
		}
		moves = rec.Moves
	}

	frames, err := replay.Playback(moves)
	out := map[string]any{"frames": frames}
	if err != nil {
		logger.FromContext(r.Context()).Warn("replay stopped: %v", err)
		out["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTrainingCurrent returns the record under the cursor. A ?opgave=<id>
// selector jumps the cursor first, which makes tactics deep-linkable.
func (s *Server) handleTrainingCurrent(w http.ResponseWriter, r *http.Request) {
	ix := s.Registry.Index()
	if ix == nil {
		handleError(w, r, errors.NewNotFoundError("batch", "none completed yet"))
		return
	}

	if sel := r.URL.Query().Get("opgave"); sel != "" {
		if !ix.JumpTo(sel) {
			logger.FromContext(r.Context()).Debug("unknown selector %q, cursor unchanged", sel)
		}
	}

	rec, ok := ix.Current()
	writeCurrent(w, r, ix, rec, ok)
}

func (s *Server) handleTrainingNext(w http.ResponseWriter, r *http.Request) {
	ix := s.Registry.Index()
	if ix == nil {
		handleError(w, r, errors.NewNotFoundError("batch", "none completed yet"))
		return
	}
	rec, ok := ix.Next()
	writeCurrent(w, r, ix, rec, ok)
}

func (s *Server) handleTrainingPrev(w http.ResponseWriter, r *http.Request) {
	ix := s.Registry.Index()
	if ix == nil {
		handleError(w, r, errors.NewNotFoundError("batch", "none completed yet"))
		return
	}
	rec, ok := ix.Prev()
	writeCurrent(w, r, ix, rec, ok)
}

func writeCurrent(w http.ResponseWriter, r *http.Request, ix *tactics.Index, rec models.Tactic, ok bool) {
	if !ok {
		handleError(w, r, errors.NewNotFoundError("tactic", "batch has none"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"position": ix.Position(),
		"count":    ix.Len(),
		"tactic":   rec,
	})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Post("/batches", s.handleCreateBatch)
	r.Get("/batches/{id}", s.handleBatchStatus)
	r.Get("/batches/{id}/tactics", s.handleBatchTactics)
	r.Get("/batches/{id}/games/{index}/evals", s.handleGameEvals)
	r.Get("/batches/{id}/export.csv", s.handleExportCSV)

	r.Get("/tactics", s.handleListTactics)
	r.Get("/tactics/{id}", s.handleGetTactic)
	r.Get("/tactics/{id}/replay", s.handleReplayTactic)

	r.Get("/training/current", s.handleTrainingCurrent)
	r.Post("/training/next", s.handleTrainingNext)
	r.Post("/training/prev", s.handleTrainingPrev)

	return r
}

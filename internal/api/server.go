package api

import (
	"github.com/hoornstra/missmeester/internal/repository"
	"github.com/hoornstra/missmeester/internal/services"
	"github.com/hoornstra/missmeester/internal/tactics"
	"github.com/hoornstra/missmeester/internal/worker"
)

// Server wires the HTTP surface to the analysis core. The UI consuming this
// API lives elsewhere; everything here speaks JSON or CSV.
type Server struct {
	Registry     *services.BatchRegistry
	BatchService services.BatchService
	TacticRepo   repository.TacticRepository
	AnalysisPool *worker.Pool
	NewEvaluator worker.EvaluatorFactory
	Classifier   tactics.Config
	MaxBatchSize int64
}
